package scss

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// OutputStyle selects the layout of the generated CSS.
type OutputStyle int

const (
	// Expanded writes one declaration per line.
	Expanded OutputStyle = iota
	// Compressed removes all optional white space.
	Compressed
)

// ParseOutputStyle converts "expanded" or "compressed".
func ParseOutputStyle(s string) (OutputStyle, error) {
	switch strings.ToLower(s) {
	case "", "expanded":
		return Expanded, nil
	case "compressed":
		return Compressed, nil
	}
	return Expanded, fmt.Errorf("unknown output style %q", s)
}

func (s OutputStyle) String() string {
	if s == Compressed {
		return "compressed"
	}
	return "expanded"
}

// Compiler turns SCSS source into CSS. A Compiler handles one compilation at
// a time.
type Compiler struct {
	Style OutputStyle
	// AllowsCharset adds @charset "UTF-8" (or a byte order mark in compressed
	// style) to output that contains non-ASCII characters.
	AllowsCharset bool
	// CheckSelectors logs a warning for every selector the selector engine
	// does not understand.
	CheckSelectors bool
	// LoadPaths are searched for imported files after the directory of the
	// importing file.
	LoadPaths []string
	// FileFinder, if set, is asked first for the location of a file.
	FileFinder func(string) (string, error)
	// ReadFile reads a source file. It defaults to os.ReadFile.
	ReadFile func(string) ([]byte, error)
	// Functions are made available to every stylesheet, see NewBuiltin.
	Functions []Function

	log      *zap.Logger
	dirstack []string
	active   map[string]bool
	cache    *lru.Cache[string, string]
}

// NewCompiler returns a Compiler with expanded output and the @charset
// policy enabled. log may be nil.
func NewCompiler(log *zap.Logger) *Compiler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Compiler{
		AllowsCharset: true,
		log:           log.Named("scss"),
		active:        make(map[string]bool),
	}
}

// PushDir adds a directory to the dir stack. Relative file names are resolved
// against the top entry. CompileFile and imports use the dir stack
// internally.
func (c *Compiler) PushDir(dir string) {
	if filepath.IsAbs(dir) {
		c.dirstack = append(c.dirstack, dir)
		return
	}
	var newEntry string
	if len(c.dirstack) > 0 {
		lastEntry := c.dirstack[len(c.dirstack)-1]
		newEntry = filepath.Join(lastEntry, dir)
	} else {
		newEntry = dir
	}
	c.dirstack = append(c.dirstack, newEntry)
}

// PopDir removes the last entry from the dir stack.
func (c *Compiler) PopDir() {
	c.dirstack = c.dirstack[:len(c.dirstack)-1]
}

// findFile returns the path of the file. If the function in
// Compiler.FileFinder is set, it is used to find the file. If it is unset,
// findFile returns the filename if is an absolute path or it prefixes the
// filename with the top entry of the dirstack.
func (c *Compiler) findFile(filename string) (string, error) {
	if c.FileFinder != nil {
		if loc, err := c.FileFinder(filename); loc != "" && err == nil {
			return loc, nil
		}
	}
	if len(c.dirstack) == 0 {
		return filename, nil
	}
	lastEntry := c.dirstack[len(c.dirstack)-1]
	if filepath.IsAbs(filename) {
		return filename, nil
	}
	return filepath.Join(lastEntry, filename), nil
}

func (c *Compiler) readFile(path string) ([]byte, error) {
	if c.ReadFile != nil {
		return c.ReadFile(path)
	}
	return os.ReadFile(path)
}

// candidates lists the file names an import URL may refer to.
func candidates(url string) []string {
	dir, base := filepath.Split(filepath.FromSlash(url))
	switch filepath.Ext(base) {
	case ".scss", ".css":
		return []string{filepath.Join(dir, base), filepath.Join(dir, "_"+base)}
	}
	return []string{
		filepath.Join(dir, base+".scss"),
		filepath.Join(dir, "_"+base+".scss"),
		filepath.Join(dir, base, "_index.scss"),
		filepath.Join(dir, base, "index.scss"),
		filepath.Join(dir, base+".css"),
	}
}

// load implements the loader used by @import and @use. The directory of
// the loaded file stays on the dir stack until done is called.
func (c *Compiler) load(url string, pos Pos) (string, string, error) {
	var tried []string
	try := func(name string) (string, string, bool) {
		path, err := c.findFile(name)
		if err != nil {
			return "", "", false
		}
		data, err := c.readFile(path)
		if err != nil {
			tried = append(tried, path)
			return "", "", false
		}
		return string(data), path, true
	}
	var src, path string
	found := false
	for _, name := range candidates(url) {
		if src, path, found = try(name); found {
			break
		}
	}
	if !found {
		for _, lp := range c.LoadPaths {
			for _, name := range candidates(url) {
				if src, path, found = try(filepath.Join(lp, name)); found {
					break
				}
			}
			if found {
				break
			}
		}
	}
	if !found {
		c.log.Debug("import not found", zap.String("url", url), zap.Strings("tried", tried))
		return "", "", newError(ErrImport, pos, "Can't find stylesheet to import.")
	}
	if c.active[path] {
		return "", "", newError(ErrImport, pos, "This file is already being loaded.")
	}
	c.log.Debug("import", zap.String("url", url), zap.String("path", path))
	c.active[path] = true
	// path already contains the current directory
	c.dirstack = append(c.dirstack, filepath.Dir(path))
	return src, path, nil
}

func (c *Compiler) done(path string) {
	delete(c.active, path)
	c.PopDir()
}

// CompileString compiles SCSS source text. Relative imports are resolved
// against the top of the dir stack.
func (c *Compiler) CompileString(src string) (string, error) {
	return c.compile(src, "")
}

// CompileFile reads and compiles a file.
func (c *Compiler) CompileFile(filename string) (string, error) {
	dir, fn := filepath.Split(filename)
	c.PushDir(dir)
	defer c.PopDir()
	path, err := c.findFile(fn)
	if err != nil {
		return "", err
	}
	data, err := c.readFile(path)
	if err != nil {
		return "", fmt.Errorf("read stylesheet: %w", err)
	}
	c.active[path] = true
	defer delete(c.active, path)
	return c.compile(string(data), path)
}

func (c *Compiler) compile(src, file string) (string, error) {
	start := time.Now()
	t := NewTable()
	ev := newEvaluator(t, c.log, c)
	ev.checkSelectors = c.CheckSelectors
	for _, f := range c.Functions {
		ev.register(f)
	}
	stmts, err := ev.evaluate(src)
	if err != nil {
		return "", withFile(err, file)
	}
	out, err := Render(stmts, t, c.AllowsCharset && c.Style == Expanded)
	if err != nil {
		return "", withFile(err, file)
	}
	if c.Style == Compressed {
		if out, err = compress(out, c.AllowsCharset); err != nil {
			return "", err
		}
	}
	c.log.Debug("compiled", zap.String("file", file), zap.Int("bytes", len(out)),
		zap.Duration("took", time.Since(start)))
	return out, nil
}
