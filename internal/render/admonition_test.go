package render

import (
	"strings"
	"testing"
)

func TestAdmonition_DefaultTitle(t *testing.T) {
	input := "!!! note\n    Stay hydrated.\n"
	r := New(DefaultConfig())
	html := r.Render(input).HTML

	if !strings.Contains(html, `<div class="admonition note">`) {
		t.Errorf("missing admonition container: %q", html)
	}
	if !strings.Contains(html, `<p class="admonition-title">Note</p>`) {
		t.Errorf("missing capitalized default title: %q", html)
	}
	if !strings.Contains(html, "Stay hydrated.") {
		t.Errorf("missing body: %q", html)
	}
}

func TestAdmonition_CustomTitle(t *testing.T) {
	input := "!!! warning \"Careful Now\"\n    Mind the gap.\n"
	r := New(DefaultConfig())
	html := r.Render(input).HTML

	if !strings.Contains(html, `<div class="admonition warning">`) {
		t.Errorf("missing warning container: %q", html)
	}
	if !strings.Contains(html, `<p class="admonition-title">Careful Now</p>`) {
		t.Errorf("missing custom title: %q", html)
	}
}

func TestAdmonition_EmptyTitleSuppressed(t *testing.T) {
	input := "!!! tip \"\"\n    Quietly useful.\n"
	r := New(DefaultConfig())
	html := r.Render(input).HTML

	if !strings.Contains(html, `<div class="admonition tip">`) {
		t.Errorf("missing tip container: %q", html)
	}
	if strings.Contains(html, "admonition-title") {
		t.Errorf("explicit empty title must suppress the title row: %q", html)
	}
}

func TestAdmonition_MultipleParagraphs(t *testing.T) {
	input := "!!! note\n    First paragraph.\n\n    Second paragraph.\n\nOutside.\n"
	r := New(DefaultConfig())
	html := r.Render(input).HTML

	openIdx := strings.Index(html, `<div class="admonition note">`)
	closeIdx := strings.Index(html, "</div>")
	if openIdx < 0 || closeIdx < 0 {
		t.Fatalf("admonition not rendered: %q", html)
	}
	inner := html[openIdx:closeIdx]
	if !strings.Contains(inner, "First paragraph.") || !strings.Contains(inner, "Second paragraph.") {
		t.Errorf("indented paragraphs not inside admonition: %q", html)
	}
	if strings.Contains(inner, "Outside.") {
		t.Errorf("unindented text leaked into admonition: %q", html)
	}
}

func TestAdmonition_NotTriggeredByPlainText(t *testing.T) {
	input := "This is !!! not an admonition.\n"
	r := New(DefaultConfig())
	html := r.Render(input).HTML

	if strings.Contains(html, "admonition") {
		t.Errorf("mid-paragraph bangs must not open an admonition: %q", html)
	}
}
