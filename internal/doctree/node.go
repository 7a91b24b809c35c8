package doctree

// Metadata is the document metadata resolved from frontmatter, with fallbacks
// applied by the scanner.
type Metadata struct {
	Title       string   `json:"title"`
	Order       int      `json:"order"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Hidden      bool     `json:"hidden,omitempty"`
}

// Node is a node in the documentation tree: a markdown document, or a section
// representing a directory. Exactly one node has Path == "" (the root).
type Node struct {
	Path       string // URL-style, slash-separated, no leading/trailing slash
	SourcePath string // filesystem path; empty for synthetic section nodes
	Metadata   Metadata
	IsSection  bool
	Children   []*Node // sorted by (order, title lowercase)
	RawContent string  // markdown body without frontmatter; empty for sections
}

// NavItem is the navigation serialization of a Node subtree. Hidden nodes are
// filtered at each level as the items are built.
type NavItem struct {
	Title    string    `json:"title"`
	Path     string    `json:"path"`
	Children []NavItem `json:"children"`
}

// Breadcrumb is one step of the trail from the root to a document.
type Breadcrumb struct {
	Title string `json:"title"`
	Path  string `json:"path"`
}
