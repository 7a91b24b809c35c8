package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// FooterLink is one extra link shown in the page footer.
type FooterLink struct {
	Text string `yaml:"text"`
	URL  string `yaml:"url"`
}

type Config struct {
	Port    string
	DocsDir string

	// Tree
	AutoRefresh bool

	// Rendering
	LineNumbers       bool
	SyntaxTheme       string
	MarkExternalLinks bool

	// Search
	EnableSearch bool

	// Site chrome
	SiteTitle       string
	SiteDescription string
	LogoURL         string
	FaviconURL      string
	CopyrightText   string
	FooterLinks     []FooterLink
	ExtraCSS        string
	ExtraJS         string
}

// Load reads configuration from the environment, then overlays an optional
// YAML file named by DOCS_CONFIG_FILE.
func Load() Config {
	cfg := Config{
		Port:    envOr("PORT", "8080"),
		DocsDir: envOr("DOCS_DIR", "./docs"),

		AutoRefresh: envBool("AUTO_REFRESH", false),

		LineNumbers:       envBool("LINE_NUMBERS", false),
		SyntaxTheme:       envOr("SYNTAX_THEME", "github"),
		MarkExternalLinks: envBool("MARK_EXTERNAL_LINKS", true),

		EnableSearch: envBool("ENABLE_SEARCH", true),

		SiteTitle:       envOr("SITE_TITLE", "Documentation"),
		SiteDescription: os.Getenv("SITE_DESCRIPTION"),
		LogoURL:         os.Getenv("LOGO_URL"),
		FaviconURL:      os.Getenv("FAVICON_URL"),
		CopyrightText:   os.Getenv("COPYRIGHT_TEXT"),
	}

	if path := os.Getenv("DOCS_CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			// A broken config file should not take the site down; the
			// environment settings still apply.
			fmt.Fprintf(os.Stderr, "config: ignoring %s: %v\n", path, err)
		}
	}

	return cfg
}

func (c Config) Validate() error {
	if c.DocsDir == "" {
		return fmt.Errorf("DOCS_DIR is required")
	}
	return nil
}

// fileConfig mirrors Config for the YAML overlay. Pointer fields distinguish
// "absent" from zero values so the file only overrides what it sets.
type fileConfig struct {
	Port              *string      `yaml:"port"`
	DocsDir           *string      `yaml:"docs_dir"`
	AutoRefresh       *bool        `yaml:"auto_refresh"`
	LineNumbers       *bool        `yaml:"line_numbers"`
	SyntaxTheme       *string      `yaml:"syntax_theme"`
	MarkExternalLinks *bool        `yaml:"mark_external_links"`
	EnableSearch      *bool        `yaml:"enable_search"`
	SiteTitle         *string      `yaml:"title"`
	SiteDescription   *string      `yaml:"description"`
	LogoURL           *string      `yaml:"logo_url"`
	FaviconURL        *string      `yaml:"favicon_url"`
	CopyrightText     *string      `yaml:"copyright"`
	FooterLinks       []FooterLink `yaml:"footer_links"`
	ExtraCSS          *string      `yaml:"extra_css"`
	ExtraJS           *string      `yaml:"extra_js"`
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}

	setString(&c.Port, fc.Port)
	setString(&c.DocsDir, fc.DocsDir)
	setBool(&c.AutoRefresh, fc.AutoRefresh)
	setBool(&c.LineNumbers, fc.LineNumbers)
	setString(&c.SyntaxTheme, fc.SyntaxTheme)
	setBool(&c.MarkExternalLinks, fc.MarkExternalLinks)
	setBool(&c.EnableSearch, fc.EnableSearch)
	setString(&c.SiteTitle, fc.SiteTitle)
	setString(&c.SiteDescription, fc.SiteDescription)
	setString(&c.LogoURL, fc.LogoURL)
	setString(&c.FaviconURL, fc.FaviconURL)
	setString(&c.CopyrightText, fc.CopyrightText)
	setString(&c.ExtraCSS, fc.ExtraCSS)
	setString(&c.ExtraJS, fc.ExtraJS)
	if fc.FooterLinks != nil {
		c.FooterLinks = fc.FooterLinks
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
