// Package render converts markdown documents to HTML with syntax
// highlighting and extracts a table of contents from the parsed structure.
package render

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	ghtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
	highlighting "github.com/yuin/goldmark-highlighting/v2"

	"github.com/docserve/docserve/internal/frontmatter"
)

// TocEntry is one heading in the extracted table of contents.
type TocEntry struct {
	Text  string `json:"text"`
	Level int    `json:"level"`
	Slug  string `json:"slug"`
}

// Result is the output of rendering one document. TOC lists every heading in
// document order, levels 1-6, flattened.
type Result struct {
	HTML string
	TOC  []TocEntry
}

// Config controls rendering behavior.
type Config struct {
	LineNumbers       bool   // show line numbers in highlighted code
	SyntaxTheme       string // chroma style name
	MarkExternalLinks bool   // tag absolute links with class "external"
	DisableLinkify    bool   // skip engine autolinking; bare URLs get the fallback pass
	SnippetRoot       string // base directory for --8<-- file includes; empty disables
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		SyntaxTheme:       "github",
		MarkExternalLinks: true,
	}
}

// Renderer renders markdown to HTML. The goldmark engine is built once and is
// stateless across calls; per-call parser state (heading ID counters) lives
// in a fresh parse context created inside Render.
type Renderer struct {
	cfg Config
	md  goldmark.Markdown
}

// New builds a renderer for the given configuration.
func New(cfg Config) *Renderer {
	exts := []goldmark.Extender{
		extension.Table,
		extension.Strikethrough,
		extension.TaskList,
		extension.Typographer,
		Admonitions,
		highlighting.NewHighlighting(
			highlighting.WithStyle(cfg.SyntaxTheme),
			highlighting.WithGuessLanguage(true),
			highlighting.WithWrapperRenderer(wrapCodeBlock),
			highlighting.WithFormatOptions(
				chromahtml.WithClasses(true),
				chromahtml.WithLineNumbers(cfg.LineNumbers),
			),
		),
	}
	if !cfg.DisableLinkify {
		exts = append(exts, extension.Linkify)
	}
	md := goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(ghtml.WithUnsafe()),
	)
	return &Renderer{cfg: cfg, md: md}
}

// Render converts markdown content to HTML and extracts its TOC. A leading
// frontmatter block is stripped first, whether or not an earlier layer
// already removed it. Render degrades rather than fails: a document always
// produces a Result.
func (r *Renderer) Render(content string) Result {
	src := frontmatter.Strip([]byte(content))
	if r.cfg.SnippetRoot != "" {
		src = expandSnippets(src, r.cfg.SnippetRoot)
	}

	ctx := parser.NewContext(parser.WithIDs(newSlugIDs()))
	doc := r.md.Parser().Parse(text.NewReader(src), parser.WithContext(ctx))
	toc := extractTOC(doc, src)

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, src, doc); err != nil {
		return Result{TOC: toc}
	}
	out := buf.String()

	if r.cfg.DisableLinkify || r.cfg.MarkExternalLinks {
		out = postprocessLinks(out, r.cfg.DisableLinkify, r.cfg.MarkExternalLinks)
	}
	return Result{HTML: out, TOC: toc}
}

// GetCSS returns the highlight stylesheet for the configured theme, or the
// empty string when the theme is unknown. It never fails.
func (r *Renderer) GetCSS() string {
	style, ok := styles.Registry[r.cfg.SyntaxTheme]
	if !ok {
		return ""
	}
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	var buf bytes.Buffer
	if err := formatter.WriteCSS(&buf, style); err != nil {
		return ""
	}
	return buf.String()
}

// extractTOC flattens the document's headings, in document order, into a
// single list. Slugs come from the heading IDs the parse assigned, so TOC
// anchors always match the rendered HTML. Heading-like text inside code
// blocks never appears here because the walk is over the structural parse.
func extractTOC(doc ast.Node, src []byte) []TocEntry {
	entries := []TocEntry{}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		slug := ""
		if id, ok := h.AttributeString("id"); ok {
			if b, ok := id.([]byte); ok {
				slug = string(b)
			}
		}
		entries = append(entries, TocEntry{
			Text:  string(h.Text(src)),
			Level: h.Level,
			Slug:  slug,
		})
		return ast.WalkSkipChildren, nil
	})
	return entries
}

// wrapCodeBlock wraps every highlighted code block in a div carrying the
// fence's language tag, so the language is discoverable in the DOM however
// the highlighter names its classes.
func wrapCodeBlock(w util.BufWriter, c highlighting.CodeBlockContext, entering bool) {
	if !entering {
		_, _ = w.WriteString("</div>\n")
		return
	}
	if lang, ok := c.Language(); ok && len(lang) > 0 {
		_, _ = fmt.Fprintf(w, `<div class="highlight" data-language="%s">`, util.EscapeHTML(bytes.ToLower(lang)))
	} else {
		_, _ = w.WriteString(`<div class="highlight">`)
	}
}

var snippetPattern = regexp.MustCompile(`(?m)^--8<--[ \t]+"([^"]+)"[ \t]*$`)

// expandSnippets replaces `--8<-- "path"` include lines with the referenced
// file's content, resolved under root. Unresolvable or escaping paths are
// dropped from the output.
func expandSnippets(src []byte, root string) []byte {
	return snippetPattern.ReplaceAllFunc(src, func(m []byte) []byte {
		sub := snippetPattern.FindSubmatch(m)
		rel := filepath.Clean(filepath.FromSlash(string(sub[1])))
		if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil
		}
		data, err := os.ReadFile(filepath.Join(root, rel))
		if err != nil {
			return nil
		}
		return bytes.TrimRight(data, "\n")
	})
}
