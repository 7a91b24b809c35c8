package render

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark/ast"
)

var (
	nonWordChars  = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	separatorRuns = regexp.MustCompile(`[\s_]+`)
)

// Slugify converts heading text to a URL-fragment identifier: lowercase,
// non-word characters stripped, whitespace and underscore runs collapsed to a
// single hyphen, leading and trailing hyphens trimmed.
func Slugify(text string) string {
	s := strings.ToLower(text)
	s = nonWordChars.ReplaceAllString(s, "")
	s = separatorRuns.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// slugIDs implements goldmark's parser.IDs so rendered heading anchors and
// the extracted TOC share one slug generator. A fresh instance is created per
// render call, resetting the duplicate counters.
type slugIDs struct {
	used map[string]bool
}

func newSlugIDs() *slugIDs {
	return &slugIDs{used: map[string]bool{}}
}

func (s *slugIDs) Generate(value []byte, kind ast.NodeKind) []byte {
	slug := Slugify(string(value))
	if slug == "" {
		slug = "heading"
	}
	base := slug
	for i := 1; s.used[slug]; i++ {
		slug = fmt.Sprintf("%s-%d", base, i)
	}
	s.used[slug] = true
	return []byte(slug)
}

func (s *slugIDs) Put(value []byte) {}
