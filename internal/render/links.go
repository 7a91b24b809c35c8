package render

import (
	"bytes"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// postprocessLinks runs the HTML-level passes over a rendered fragment:
// wrapping bare URLs in anchors (when the engine-level linkify was not
// enabled) and marking absolute links as external. Returns the input
// unchanged if the fragment cannot be parsed.
func postprocessLinks(fragment string, autolink, markExternal bool) string {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return fragment
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}

	if autolink {
		autolinkNode(body, false)
	}
	if markExternal {
		walkNodes(body, markExternalAnchor)
	}

	var buf bytes.Buffer
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return fragment
		}
	}
	return buf.String()
}

func walkNodes(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkNodes(c, fn)
	}
}

// markExternalAnchor adds class "external" (merged into an existing class
// attribute) to anchors with absolute or protocol-relative hrefs, and a
// target="_blank" rel="noopener noreferrer" pair when no target is set.
// Relative links are left untouched.
func markExternalAnchor(n *html.Node) {
	if n.Type != html.ElementNode || n.DataAtom != atom.A {
		return
	}
	href := ""
	for _, a := range n.Attr {
		if a.Key == "href" {
			href = a.Val
			break
		}
	}
	if !isExternalHref(href) {
		return
	}
	hasTarget := false
	classIdx := -1
	for i, a := range n.Attr {
		switch a.Key {
		case "target":
			hasTarget = true
		case "class":
			classIdx = i
		}
	}
	if classIdx >= 0 {
		n.Attr[classIdx].Val = "external " + n.Attr[classIdx].Val
	} else {
		n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: "external"})
	}
	if !hasTarget {
		n.Attr = append(n.Attr,
			html.Attribute{Key: "target", Val: "_blank"},
			html.Attribute{Key: "rel", Val: "noopener noreferrer"},
		)
	}
}

func isExternalHref(href string) bool {
	return strings.HasPrefix(href, "http://") ||
		strings.HasPrefix(href, "https://") ||
		strings.HasPrefix(href, "//")
}

var bareURLPattern = regexp.MustCompile(`https?://[^\s<"]+`)

// autolinkNode wraps bare URLs found in text nodes in anchor tags, skipping
// content already inside anchors, code, or preformatted blocks.
func autolinkNode(n *html.Node, skip bool) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.A, atom.Code, atom.Pre, atom.Script, atom.Style:
			skip = true
		}
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.TextNode && !skip {
			linkifyText(n, c)
		} else {
			autolinkNode(c, skip)
		}
		c = next
	}
}

// linkifyText replaces one text node with a sequence of text and anchor
// nodes, one anchor per bare URL.
func linkifyText(parent, tn *html.Node) {
	matches := bareURLPattern.FindAllStringIndex(tn.Data, -1)
	if matches == nil {
		return
	}
	text := tn.Data
	last := 0
	var repl []*html.Node
	for _, m := range matches {
		if m[0] > last {
			repl = append(repl, &html.Node{Type: html.TextNode, Data: text[last:m[0]]})
		}
		u := text[m[0]:m[1]]
		a := &html.Node{
			Type:     html.ElementNode,
			Data:     "a",
			DataAtom: atom.A,
			Attr:     []html.Attribute{{Key: "href", Val: u}},
		}
		a.AppendChild(&html.Node{Type: html.TextNode, Data: u})
		repl = append(repl, a)
		last = m[1]
	}
	if last < len(text) {
		repl = append(repl, &html.Node{Type: html.TextNode, Data: text[last:]})
	}
	for _, r := range repl {
		parent.InsertBefore(r, tn)
	}
	parent.RemoveChild(tn)
}
