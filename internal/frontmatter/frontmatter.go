// Package frontmatter is the single parsing contract for the YAML metadata
// block at the top of a markdown document. Both the tree scanner and the
// renderer go through this package so the delimiter rules and key set cannot
// drift apart.
package frontmatter

import (
	"bytes"
	"regexp"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

// DefaultOrder is the sort weight used when a document declares none.
const DefaultOrder = 999

// Matter holds the recognized frontmatter keys.
type Matter struct {
	Title       string   `yaml:"title"`
	Order       int      `yaml:"order"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`
	Hidden      bool     `yaml:"hidden"`
}

// yamlFormat restricts parsing to `---` delimited YAML. The library also
// understands TOML and JSON fences, which our documents never use.
var yamlFormat = frontmatter.NewFormat("---", "---", yaml.Unmarshal)

// blockPattern matches a leading `---` delimited block, used by Strip for
// content that still carries its raw frontmatter.
var blockPattern = regexp.MustCompile(`(?s)\A---[ \t]*\n.*?\n---[ \t]*\n`)

// Parse splits src into metadata and markdown body. Order defaults to
// DefaultOrder when the key is absent; an explicit order: 0 is preserved.
// Malformed frontmatter is treated as absent: the zero Matter is returned and
// the body is the whole input, so callers fall through their title-resolution
// chain.
func Parse(src []byte) (Matter, []byte) {
	m := Matter{Order: DefaultOrder}
	body, err := frontmatter.Parse(bytes.NewReader(src), &m, yamlFormat)
	if err != nil {
		return Matter{Order: DefaultOrder}, src
	}
	return m, body
}

// Strip removes a leading frontmatter block without interpreting it.
func Strip(src []byte) []byte {
	return blockPattern.ReplaceAll(src, nil)
}
