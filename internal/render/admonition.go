package render

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Admonition is a callout block introduced by a `!!! kind "title"` marker
// line with a four-space indented body.
type Admonition struct {
	ast.BaseBlock
	Label string // e.g. "note", "warning"; becomes a CSS class
	Title string // header text; empty suppresses the title row
}

// KindAdmonition is the node kind of the Admonition node.
var KindAdmonition = ast.NewNodeKind("Admonition")

func (n *Admonition) Kind() ast.NodeKind {
	return KindAdmonition
}

func (n *Admonition) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Label": n.Label,
		"Title": n.Title,
	}, nil)
}

// admonitionMarker matches the opening line. The second group keeps its
// quotes so an explicitly empty title (`""`) can be told apart from no title.
var admonitionMarker = regexp.MustCompile(`^!!![ \t]+([A-Za-z][A-Za-z0-9_-]*)(?:[ \t]+("[^"]*"))?[ \t]*$`)

type admonitionParser struct{}

func (p *admonitionParser) Trigger() []byte {
	return []byte{'!'}
}

func (p *admonitionParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, segment := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || line[pos] != '!' {
		return nil, parser.NoChildren
	}
	m := admonitionMarker.FindSubmatch(util.TrimRightSpace(line[pos:]))
	if m == nil {
		return nil, parser.NoChildren
	}
	label := string(m[1])
	title := ""
	if len(m[2]) == 0 {
		title = strings.ToUpper(label[:1]) + label[1:]
	} else {
		title = strings.Trim(string(m[2]), `"`)
	}
	node := &Admonition{Label: label, Title: title}
	reader.Advance(segment.Len() - 1)
	return node, parser.HasChildren
}

func (p *admonitionParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	line, segment := reader.PeekLine()
	if util.IsBlank(line) {
		if node.ChildCount() == 0 {
			return parser.Close
		}
		return parser.Continue | parser.HasChildren
	}
	pos, padding := util.IndentPositionPadding(line, reader.LineOffset(), segment.Padding, 4)
	if pos < 0 {
		return parser.Close
	}
	reader.AdvanceAndSetPadding(pos, padding)
	return parser.Continue | parser.HasChildren
}

func (p *admonitionParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {
}

func (p *admonitionParser) CanInterruptParagraph() bool {
	return true
}

func (p *admonitionParser) CanAcceptIndentedLine() bool {
	return false
}

type admonitionHTMLRenderer struct{}

func (r *admonitionHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindAdmonition, r.renderAdmonition)
}

func (r *admonitionHTMLRenderer) renderAdmonition(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*Admonition)
	if entering {
		_, _ = fmt.Fprintf(w, "<div class=\"admonition %s\">\n", util.EscapeHTML([]byte(n.Label)))
		if n.Title != "" {
			_, _ = fmt.Fprintf(w, "<p class=\"admonition-title\">%s</p>\n", util.EscapeHTML([]byte(n.Title)))
		}
	} else {
		_, _ = w.WriteString("</div>\n")
	}
	return ast.WalkContinue, nil
}

type admonitionExtension struct{}

// Admonitions enables `!!! kind` callout blocks.
var Admonitions goldmark.Extender = &admonitionExtension{}

func (e *admonitionExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithBlockParsers(
		util.Prioritized(&admonitionParser{}, 799),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&admonitionHTMLRenderer{}, 500),
	))
}
