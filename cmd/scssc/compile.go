package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/sergi/go-diff/diffmatchpatch"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/boxesandglue/scss"
	"github.com/boxesandglue/scss/config"
)

// newCompiler builds a compiler from the configuration and the command line
// flags of cmd. Flags win over the configuration.
func newCompiler(cfg *config.Config, log *zap.Logger, cmd *cli.Command) (*scss.Compiler, error) {
	style := cfg.Output.Style
	if cmd.IsSet("style") {
		style = cmd.String("style")
	}
	st, err := scss.ParseOutputStyle(style)
	if err != nil {
		return nil, err
	}
	c := scss.NewCompiler(log)
	c.Style = st
	c.AllowsCharset = cfg.Output.Charset
	c.CheckSelectors = cfg.Output.CheckSelectors
	c.LoadPaths = append([]string{}, cfg.LoadPaths...)
	if cmd.Bool("no-charset") {
		c.AllowsCharset = false
	}
	if cmd.Bool("check-selectors") {
		c.CheckSelectors = true
	}
	c.LoadPaths = append(c.LoadPaths, cmd.StringSlice("load-path")...)
	return c, nil
}

// outputName returns the name of the CSS file for src in dir.
func outputName(dir, src string) string {
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	return filepath.Join(dir, base+".css")
}

func runCompile(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)
	files := cmd.Args().Slice()
	if len(files) == 0 {
		return errors.New("no input files")
	}
	outDir := cmd.String("out")
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return fmt.Errorf("unable to create output directory: %w", err)
		}
	}
	verify := env.Cfg.Output.Verify || cmd.Bool("verify")

	results := make([]string, len(files))
	var (
		mu   sync.Mutex
		errs error
	)
	eg, pCtx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.NumCPU())
	for i, fn := range files {
		eg.Go(func() error {
			if err := pCtx.Err(); err != nil {
				return err
			}
			// a Compiler handles one compilation at a time
			c, err := newCompiler(env.Cfg, env.Log, cmd)
			if err != nil {
				return err
			}
			css, err := c.CompileFile(fn)
			if err == nil && verify {
				err = verifyOutput(env.Log, fn, css)
			}
			if err == nil && outDir != "" {
				err = os.WriteFile(outputName(outDir, fn), []byte(css), 0644)
			}
			if err != nil {
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", fn, err))
				mu.Unlock()
				return nil
			}
			results[i] = css
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	if errs != nil {
		return errs
	}
	if outDir == "" {
		for _, css := range results {
			if _, err := io.WriteString(os.Stdout, css); err != nil {
				return err
			}
		}
	}
	env.Log.Debug("Compilation done", zap.Int("files", len(files)))
	return nil
}

func verifyOutput(log *zap.Logger, fn, css string) error {
	st, err := scss.Verify(css)
	if err != nil {
		return err
	}
	log.Info("Verified", zap.String("file", fn), zap.Int("rulesets", st.Rulesets),
		zap.Int("declarations", st.Declarations), zap.Int("at-rules", st.AtRules))
	return nil
}

func runHTML(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)
	if cmd.Args().Len() == 0 {
		return errors.New("no input file")
	}
	if cmd.Args().Len() > 2 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}
	c, err := newCompiler(env.Cfg, env.Log, cmd)
	if err != nil {
		return err
	}
	doc, err := c.ProcessHTMLFile(cmd.Args().Get(0))
	if err != nil {
		return err
	}
	out := os.Stdout
	if fname := cmd.Args().Get(1); fname != "" {
		if out, err = os.Create(fname); err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", fname, err)
		}
		defer out.Close()
	}
	return scss.RenderHTML(out, doc)
}

// errMismatch is returned by check when the output differs.
var errMismatch = errors.New("output differs from expected CSS")

func runCheck(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)
	if cmd.Args().Len() != 2 {
		return errors.New("check needs SOURCE and EXPECTED")
	}
	c, err := newCompiler(env.Cfg, env.Log, cmd)
	if err != nil {
		return err
	}
	got, err := c.CompileFile(cmd.Args().Get(0))
	if err != nil {
		return err
	}
	want, err := os.ReadFile(cmd.Args().Get(1))
	if err != nil {
		return fmt.Errorf("unable to read expected CSS: %w", err)
	}
	if diff, same := diffText(string(want), got); !same {
		fmt.Fprintln(os.Stderr, diff)
		return errMismatch
	}
	env.Log.Info("Output matches", zap.String("expected", cmd.Args().Get(1)))
	return nil
}

var dmp = diffmatchpatch.New()

// diffText compares two texts line by line.
func diffText(want, got string) (string, bool) {
	if want == got {
		return "", true
	}
	a, b, lines := dmp.DiffLinesToChars(want, got)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)
	return dmp.DiffPrettyText(diffs), false
}
