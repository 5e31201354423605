package folio

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// SiteConfig holds all configuration for a folio site. Secrets are
// never read from the config file; LoadSiteConfig pulls them from the
// environment so site.yaml can live in the content repository.
type SiteConfig struct {
	Name        string `yaml:"name"`        // Site name (default "Portfolio")
	URL         string `yaml:"url"`         // Canonical URL (default "http://localhost:3000")
	Description string `yaml:"description"` // Site description for RSS and meta tags
	Author      string `yaml:"author"`      // Author name for the feed

	Addr         string `yaml:"addr"`          // Listen address (default ":3000")
	ContentDir   string `yaml:"content_dir"`   // Markdown content root (default "content")
	StaticDir    string `yaml:"static_dir"`    // User-owned static assets (default "public")
	OutputDir    string `yaml:"output_dir"`    // Static build output (default "dist")
	DatabasePath string `yaml:"database_path"` // SQLite index path (default "data/index.db")
	CookieSecure bool   `yaml:"cookie_secure"` // Set true for HTTPS

	PreviewPassword string `yaml:"-"` // From PREVIEW_PASSWORD; empty disables preview
	SessionSecret   string `yaml:"-"` // From SESSION_SECRET

	CacheTTL time.Duration `yaml:"-"` // Content cache TTL (default 5min)
}

// LoadSiteConfig reads a YAML config file and merges in the secret
// environment variables.
func LoadSiteConfig(path string) (SiteConfig, error) {
	cleaned := filepath.Clean(path)
	data, err := os.ReadFile(cleaned)
	if err != nil {
		return SiteConfig{}, fmt.Errorf("read config %s: %w", cleaned, err)
	}
	var cfg SiteConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return SiteConfig{}, fmt.Errorf("parse config %s: %w", cleaned, err)
	}
	cfg.PreviewPassword = os.Getenv("PREVIEW_PASSWORD")
	cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	return cfg, nil
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Portfolio"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.ContentDir == "" {
		c.ContentDir = "content"
	}
	if c.StaticDir == "" {
		c.StaticDir = "public"
	}
	if c.OutputDir == "" {
		c.OutputDir = "dist"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/index.db"
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = 5 * time.Minute
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.Config.StaticDir = dir
	}
}

// WithCacheTTL overrides the content cache TTL.
func WithCacheTTL(ttl time.Duration) Option {
	return func(a *App) {
		a.Config.CacheTTL = ttl
	}
}
