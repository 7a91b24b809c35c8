// Package search provides a naive in-memory full-text index over
// documentation content.
package search

import (
	"regexp"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/docserve/docserve/internal/doctree"
)

// Result is one search hit. Scores are relative ranking only and carry no
// meaning across queries.
type Result struct {
	Path    string  `json:"path"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// contextChars is the width of the snippet window around the first match.
const contextChars = 150

type entry struct {
	path        string
	title       string
	content     string
	description string
}

// snapshot is one immutable generation of the index. Entries keep insertion
// order so score ties rank in encounter order.
type snapshot struct {
	entries []entry
	byPath  map[string]int
}

// Index maps document paths to searchable content. Rebuilds publish a fresh
// snapshot with an atomic pointer swap, so concurrent readers always see a
// complete index.
type Index struct {
	mu   sync.Mutex // serializes writers
	snap atomic.Pointer[snapshot]
}

// New returns an empty index.
func New() *Index {
	idx := &Index{}
	idx.snap.Store(&snapshot{byPath: map[string]int{}})
	return idx
}

// IndexAll replaces the whole index with the given documents.
func (idx *Index) IndexAll(docs []*doctree.Node) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	s := &snapshot{byPath: make(map[string]int, len(docs))}
	for _, doc := range docs {
		s.byPath[doc.Path] = len(s.entries)
		s.entries = append(s.entries, entryFor(doc))
	}
	idx.snap.Store(s)
}

// IndexDocument adds or overwrites a single document.
func (idx *Index) IndexDocument(doc *doctree.Node) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	old := idx.snap.Load()
	s := &snapshot{
		entries: append([]entry(nil), old.entries...),
		byPath:  make(map[string]int, len(old.byPath)+1),
	}
	for k, v := range old.byPath {
		s.byPath[k] = v
	}
	if i, ok := s.byPath[doc.Path]; ok {
		s.entries[i] = entryFor(doc)
	} else {
		s.byPath[doc.Path] = len(s.entries)
		s.entries = append(s.entries, entryFor(doc))
	}
	idx.snap.Store(s)
}

func entryFor(doc *doctree.Node) entry {
	return entry{
		path:        doc.Path,
		title:       doc.Metadata.Title,
		content:     doc.RawContent,
		description: doc.Metadata.Description,
	}
}

// Search scores every indexed document against the whitespace-tokenized
// query and returns up to limit results, best first. Per query word: +10 for
// a title substring match (+5 more when the word equals the whole title), +5
// for a description substring match, +1 per content occurrence capped at 5.
// Zero-scoring documents are excluded; ties keep encounter order.
func (idx *Index) Search(query string, limit int) []Result {
	if strings.TrimSpace(query) == "" {
		return []Result{}
	}
	words := strings.Fields(strings.ToLower(query))

	s := idx.snap.Load()
	results := []Result{}
	for _, e := range s.entries {
		titleLower := strings.ToLower(e.title)
		contentLower := strings.ToLower(e.content)
		descLower := strings.ToLower(e.description)

		score := 0.0
		for _, w := range words {
			if strings.Contains(titleLower, w) {
				score += 10
				if w == titleLower {
					score += 5
				}
			}
			if descLower != "" && strings.Contains(descLower, w) {
				score += 5
			}
			if n := strings.Count(contentLower, w); n > 0 {
				score += float64(min(n, 5))
			}
		}
		if score > 0 {
			results = append(results, Result{
				Path:    e.path,
				Title:   e.title,
				Snippet: makeSnippet(e.content, contentLower, words),
				Score:   score,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

var whitespaceRuns = regexp.MustCompile(`\s+`)

// makeSnippet extracts a window around the earliest first occurrence of any
// query word, collapses whitespace, and ellipsizes truncated edges.
func makeSnippet(content, contentLower string, words []string) string {
	best := len(content)
	for _, w := range words {
		if pos := strings.Index(contentLower, w); pos >= 0 && pos < best {
			best = pos
		}
	}
	if best == len(content) {
		best = 0
	}

	start := max(0, best-contextChars/2)
	end := min(len(content), best+contextChars)
	for start > 0 && !utf8.RuneStart(content[start]) {
		start--
	}
	for end > start && end < len(content) && !utf8.RuneStart(content[end]) {
		end--
	}

	snippet := strings.TrimSpace(whitespaceRuns.ReplaceAllString(content[start:end], " "))
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(content) {
		snippet = snippet + "..."
	}
	return snippet
}
