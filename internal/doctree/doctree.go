// Package doctree scans a directory of markdown files into a navigable
// documentation tree keyed by URL path.
package doctree

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/docserve/docserve/internal/frontmatter"
)

// Tree holds the scanned documentation tree. Every scan builds a complete
// snapshot (root, path index, mtime table) that is published with an atomic
// pointer swap, so readers always see either the old or the new tree in full.
type Tree struct {
	dir         string
	autoRefresh bool

	scanMu sync.Mutex // serializes rescans
	snap   atomic.Pointer[snapshot]
}

// snapshot is one immutable result of a directory scan.
type snapshot struct {
	root      *Node // nil when the docs directory does not exist
	index     map[string]*Node
	mtimes    map[string]time.Time
	scannedAt time.Time
}

// New scans dir and returns the tree. A missing directory yields an empty
// tree, not an error. With autoRefresh enabled every accessor first compares
// recorded file mtimes (and the directory mtime) against the filesystem and
// rescans when anything changed.
func New(dir string, autoRefresh bool) *Tree {
	t := &Tree{dir: dir, autoRefresh: autoRefresh}
	t.rescan()
	return t
}

// Root returns the root section node, or nil for an empty tree.
func (t *Tree) Root() *Node {
	return t.current().root
}

// Get retrieves a document by URL path. Directory-style paths resolve to
// their index document when one exists. Hidden documents are still
// retrievable here. Returns nil when nothing is registered at the path.
func (t *Tree) Get(path string) *Node {
	s := t.current()
	path = strings.Trim(path, "/")
	indexPath := "index"
	if path != "" {
		indexPath = path + "/index"
	}
	if n, ok := s.index[indexPath]; ok {
		return n
	}
	if n, ok := s.index[path]; ok {
		return n
	}
	return nil
}

// Navigation returns the navigation tree, dropping hidden nodes (and with
// them their subtrees) at each level. The root-level index entry is remapped
// from the empty path to the literal "index" so it stays URL-addressable.
func (t *Tree) Navigation() []NavItem {
	s := t.current()
	if s.root == nil {
		return []NavItem{}
	}
	return buildNavItems(s.root.Children)
}

// Breadcrumbs returns one crumb per path segment from the root to path. A
// segment with no registered node (a folder without an index) gets a
// title-cased synthesized label.
func (t *Tree) Breadcrumbs(path string) []Breadcrumb {
	s := t.current()
	path = strings.Trim(path, "/")
	if path == "" {
		return []Breadcrumb{}
	}
	crumbs := []Breadcrumb{}
	current := ""
	for _, part := range strings.Split(path, "/") {
		current = strings.Trim(current+"/"+part, "/")
		if n, ok := s.index[current]; ok {
			crumbs = append(crumbs, Breadcrumb{Title: n.Metadata.Title, Path: current})
		} else {
			crumbs = append(crumbs, Breadcrumb{Title: filenameToTitle(part), Path: current})
		}
	}
	return crumbs
}

// Siblings returns the documents immediately before and after path in
// depth-first traversal order (which equals navigation order). Either side is
// nil at the corresponding boundary, and both are nil for an unknown path.
func (t *Tree) Siblings(path string) (prev, next *Node) {
	s := t.current()
	flat := flatten(s.root)
	path = strings.Trim(path, "/")
	idx := -1
	for i, n := range flat {
		if n.Path == path {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, nil
	}
	if idx > 0 {
		prev = flat[idx-1]
	}
	if idx < len(flat)-1 {
		next = flat[idx+1]
	}
	return prev, next
}

// Documents returns every non-section, non-hidden node, for search indexing.
func (t *Tree) Documents() []*Node {
	s := t.current()
	var docs []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		if n == nil {
			return
		}
		if !n.IsSection && !n.Metadata.Hidden {
			docs = append(docs, n)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(s.root)
	return docs
}

// Refresh forces a full rescan, replacing the tree wholesale.
func (t *Tree) Refresh() {
	t.rescan()
}

func (t *Tree) current() *snapshot {
	s := t.snap.Load()
	if t.autoRefresh && s.stale(t.dir) {
		t.rescan()
		s = t.snap.Load()
	}
	return s
}

func (t *Tree) rescan() {
	t.scanMu.Lock()
	defer t.scanMu.Unlock()

	s := &snapshot{
		index:     make(map[string]*Node),
		mtimes:    make(map[string]time.Time),
		scannedAt: time.Now(),
	}
	if info, err := os.Stat(t.dir); err == nil && info.IsDir() {
		s.root = scanDirectory(t.dir, "", s)
	}
	t.snap.Store(s)
}

// stale reports whether any tracked file is missing or newer than recorded,
// or the docs directory itself changed after the last scan (which catches
// added and deleted files).
func (s *snapshot) stale(dir string) bool {
	for path, mtime := range s.mtimes {
		info, err := os.Stat(path)
		if err != nil || info.ModTime().After(mtime) {
			return true
		}
	}
	if info, err := os.Stat(dir); err == nil && info.ModTime().After(s.scannedAt) {
		return true
	}
	return false
}

// scanDirectory builds the section node for one directory level. os.ReadDir
// returns entries sorted by name, which keeps the scan deterministic.
func scanDirectory(dirPath, urlPath string, s *snapshot) *Node {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		entries = nil
	}

	var children []*Node
	var indexNode *Node

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
				continue
			}
			childURL := strings.Trim(urlPath+"/"+name, "/")
			children = append(children, scanDirectory(filepath.Join(dirPath, name), childURL, s))
			continue
		}
		if filepath.Ext(name) != ".md" {
			continue
		}
		full := filepath.Join(dirPath, name)
		node := parseMarkdownFile(full, urlPath)
		if node == nil {
			continue
		}
		if info, err := entry.Info(); err == nil {
			s.mtimes[full] = info.ModTime()
		}
		if strings.TrimSuffix(name, ".md") == "index" {
			indexNode = node
		} else {
			children = append(children, node)
			s.index[node.Path] = node
		}
	}

	// An index document labels this directory and is also listed as its
	// first navigable child, independently addressable at "<dir>/index".
	if indexNode != nil {
		s.index[indexNode.Path] = indexNode
		children = append([]*Node{indexNode}, children...)
	}

	sort.SliceStable(children, func(i, j int) bool {
		if children[i].Metadata.Order != children[j].Metadata.Order {
			return children[i].Metadata.Order < children[j].Metadata.Order
		}
		return strings.ToLower(children[i].Metadata.Title) < strings.ToLower(children[j].Metadata.Title)
	})

	title := ""
	order := frontmatter.DefaultOrder
	if indexNode != nil {
		title = indexNode.Metadata.Title
		order = indexNode.Metadata.Order
	} else if urlPath != "" {
		title = filenameToTitle(filepath.Base(dirPath))
	} else {
		title = filenameToTitle("root")
	}

	dirNode := &Node{
		Path:      urlPath,
		Metadata:  Metadata{Title: title, Order: order},
		IsSection: true,
		Children:  children,
	}
	if urlPath != "" {
		s.index[urlPath] = dirNode
	}
	return dirNode
}

// parseMarkdownFile reads one document and resolves its metadata. The title
// fallback chain is frontmatter title, then the first H1, then the filename
// converted to title case. Returns nil when the file cannot be read.
func parseMarkdownFile(filePath, urlPrefix string) *Node {
	src, err := os.ReadFile(filePath)
	if err != nil {
		return nil
	}
	m, body := frontmatter.Parse(src)

	stem := strings.TrimSuffix(filepath.Base(filePath), ".md")
	urlPath := strings.Trim(urlPrefix+"/"+stem, "/")

	title := m.Title
	if title == "" {
		title = extractH1(body)
	}
	if title == "" {
		title = filenameToTitle(stem)
	}

	return &Node{
		Path:       urlPath,
		SourcePath: filePath,
		Metadata: Metadata{
			Title:       title,
			Order:       m.Order,
			Description: m.Description,
			Tags:        m.Tags,
			Hidden:      m.Hidden,
		},
		RawContent: string(body),
	}
}

var h1Pattern = regexp.MustCompile(`(?m)^#\s+(.+)$`)

func extractH1(body []byte) string {
	m := h1Pattern.FindSubmatch(body)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(string(m[1]))
}

var (
	orderingPrefix = regexp.MustCompile(`^\d+[-_]`)
	separators     = regexp.MustCompile(`[-_]`)
)

// filenameToTitle turns "01-getting-started" into "Getting Started".
func filenameToTitle(name string) string {
	name = orderingPrefix.ReplaceAllString(name, "")
	name = separators.ReplaceAllString(name, " ")
	return cases.Title(language.English).String(name)
}

func buildNavItems(nodes []*Node) []NavItem {
	items := []NavItem{}
	for _, n := range nodes {
		if n.Metadata.Hidden {
			continue
		}
		path := n.Path
		if path == "" {
			path = "index"
		}
		items = append(items, NavItem{
			Title:    n.Metadata.Title,
			Path:     path,
			Children: buildNavItems(n.Children),
		})
	}
	return items
}

// flatten returns every visible document in depth-first order.
func flatten(n *Node) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	if n.SourcePath != "" && !n.Metadata.Hidden {
		out = append(out, n)
	}
	for _, c := range n.Children {
		out = append(out, flatten(c)...)
	}
	return out
}
