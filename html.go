package scss

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	scssStyleMatcher = cascadia.MustCompile(`style[type="text/scss"]`)
	scssLinkMatcher  = cascadia.MustCompile(`link[rel~="stylesheet"][href$=".scss"]`)
)

const inlineCacheSize = 128

// ProcessHTMLFile opens an HTML file, compiles the SCSS style sheets it
// contains or links to and returns the DOM structure. Links are relative to
// the directory of the HTML file.
func (c *Compiler) ProcessHTMLFile(filename string) (*goquery.Document, error) {
	dir, fn := filepath.Split(filename)
	c.PushDir(dir)
	defer c.PopDir()

	filename, err := c.findFile(fn)
	if err != nil {
		return nil, err
	}

	r, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	if err = c.processDocument(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// ProcessHTMLChunk reads the HTML text. Every <style type="text/scss"> and
// every <link rel="stylesheet"> to a .scss file is compiled and replaced by
// a plain <style> element. Errors of all style sheets are reported together.
func (c *Compiler) ProcessHTMLChunk(htmltext string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmltext))
	if err != nil {
		return nil, err
	}
	if err = c.processDocument(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (c *Compiler) inlineCache() *lru.Cache[string, string] {
	if c.cache == nil {
		// only fails for a non-positive size
		c.cache, _ = lru.New[string, string](inlineCacheSize)
	}
	return c.cache
}

// compileInline compiles the text of a style element. Identical blocks are
// compiled once.
func (c *Compiler) compileInline(src string) (string, error) {
	key := c.Style.String() + "\x00" + src
	if css, ok := c.inlineCache().Get(key); ok {
		return css, nil
	}
	css, err := c.CompileString(src)
	if err != nil {
		return "", err
	}
	c.inlineCache().Add(key, css)
	return css, nil
}

func (c *Compiler) processDocument(doc *goquery.Document) error {
	var errs error
	doc.FindMatcher(scssStyleMatcher).Each(func(i int, sel *goquery.Selection) {
		css, err := c.compileInline(sel.Text())
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("style element %d: %w", i+1, err))
			return
		}
		replaceWithStyle(sel, css)
	})
	doc.FindMatcher(scssLinkMatcher).Each(func(i int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		css, err := c.CompileFile(href)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", href, err))
			return
		}
		c.log.Debug("compiled linked stylesheet", zap.String("href", href))
		replaceWithStyle(sel, css)
	})
	return errs
}

// replaceWithStyle replaces sel with a <style> element holding css. A media
// attribute is kept.
func replaceWithStyle(sel *goquery.Selection, css string) {
	n := &html.Node{Type: html.ElementNode, Data: "style", DataAtom: atom.Style}
	if media, ok := sel.Attr("media"); ok {
		n.Attr = append(n.Attr, html.Attribute{Key: "media", Val: media})
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: "\n" + css})
	sel.ReplaceWithNodes(n)
}

// RenderHTML writes the document.
func RenderHTML(w io.Writer, doc *goquery.Document) error {
	for _, n := range doc.Nodes {
		if err := html.Render(w, n); err != nil {
			return err
		}
	}
	return nil
}
