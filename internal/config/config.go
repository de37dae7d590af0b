// Package config defines the docbrowse configuration file format and its
// loading rules. Everything selectable by name (render engine, layout) is
// validated and resolved once at load time; request handling never performs
// by-name lookups.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration document.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Renderer RendererConfig `yaml:"renderer"`
	Docs     DocsConfig     `yaml:"docs"`
	Cache    CacheConfig    `yaml:"cache"`
	Sync     SyncConfig     `yaml:"sync"`
	Events   EventsConfig   `yaml:"events"`
}

// ServerConfig controls the HTTP surface.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	// Mount is the path prefix the browser is served under.
	Mount string `yaml:"mount"`
	// Layout names the page template used for rendered documentation.
	Layout string `yaml:"layout"`
	// DisableBrowser turns off the browsing routes; health and metrics
	// endpoints remain.
	DisableBrowser bool `yaml:"disable_browser"`
}

// RendererConfig selects and tunes the markup conversion engine.
type RendererConfig struct {
	// Engine is the named conversion engine for documentation pages.
	Engine string `yaml:"engine"`
	// Preprocess is the engine backing the inline template helper. Defaults
	// to Engine.
	Preprocess     string `yaml:"preprocess"`
	HighlightStyle string `yaml:"highlight_style"`
	Sanitize       bool   `yaml:"sanitize"`
}

// DocsConfig describes where documentation lives and which modules are
// served locally.
type DocsConfig struct {
	// Roots is the ordered list of search directories.
	Roots []string `yaml:"roots"`
	// Extensions are candidate documentation file extensions, in order.
	Extensions []string `yaml:"extensions"`
	// DefaultModule is shown when the browser is opened without a module.
	DefaultModule string `yaml:"default_module"`
	// Allow lists regexp patterns over canonical module names. Empty permits
	// everything.
	Allow []string `yaml:"allow"`
	// ExternalBaseURL is the external reference site prefix used for
	// redirects and link rewriting.
	ExternalBaseURL string `yaml:"external_base_url"`
	// Watch enables filesystem watching of the roots for cache invalidation.
	Watch bool `yaml:"watch"`
}

// CacheConfig controls the persistent render cache.
type CacheConfig struct {
	// Path of the SQLite database. Empty disables caching.
	Path string `yaml:"path"`
}

// SyncConfig describes remote documentation roots kept up to date via git.
type SyncConfig struct {
	// Workspace is the directory clones live in. Required when repositories
	// are configured.
	Workspace string `yaml:"workspace"`
	// Interval between scheduled re-syncs as a Go duration string ("1h",
	// "30m"). Empty disables the scheduler (a single sync still runs at
	// startup).
	Interval     string       `yaml:"interval"`
	Repositories []Repository `yaml:"repositories"`
}

// IntervalDuration returns the parsed sync interval. Validate has already
// rejected unparseable values; anything unset or invalid reads as zero.
func (s SyncConfig) IntervalDuration() time.Duration {
	if s.Interval == "" {
		return 0
	}
	d, err := time.ParseDuration(s.Interval)
	if err != nil {
		return 0
	}
	return d
}

// Repository is one remote documentation source.
type Repository struct {
	Name   string `yaml:"name"`
	URL    string `yaml:"url"`
	Branch string `yaml:"branch"`
	// DocsDir is the subdirectory within the clone that becomes a search
	// root. Defaults to the clone root.
	DocsDir string `yaml:"docs_dir"`
}

// EventsConfig enables publishing pipeline events to NATS.
type EventsConfig struct {
	// NATSURL enables event publishing when non-empty.
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// Load reads, expands, defaults and validates a configuration file. A .env
// file next to the process, when present, is loaded first without overriding
// existing environment variables.
func Load(path string) (*Config, error) {
	// Missing .env files are the normal case.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults fills unset fields with their documented defaults.
func (c *Config) ApplyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":3000"
	}
	if c.Server.Mount == "" {
		c.Server.Mount = "/doc"
	}
	if c.Server.Layout == "" {
		c.Server.Layout = "default"
	}
	if c.Renderer.Engine == "" {
		c.Renderer.Engine = "markdown"
	}
	if c.Renderer.Preprocess == "" {
		c.Renderer.Preprocess = c.Renderer.Engine
	}
	if len(c.Docs.Extensions) == 0 {
		c.Docs.Extensions = []string{".md", ".markdown"}
	}
	if c.Docs.ExternalBaseURL == "" {
		c.Docs.ExternalBaseURL = "https://metacpan.org/pod/"
	}
	if c.Events.Subject == "" {
		c.Events.Subject = "docbrowse.events"
	}
}

// Validate checks cross-field consistency. It assumes defaults were applied.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Server.Mount, "/") {
		return fmt.Errorf("server.mount must start with '/', got %q", c.Server.Mount)
	}
	if len(c.Docs.Roots) == 0 && len(c.Sync.Repositories) == 0 {
		return fmt.Errorf("no documentation sources: configure docs.roots or sync.repositories")
	}
	for _, ext := range c.Docs.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("docs.extensions entries must start with '.', got %q", ext)
		}
	}
	if len(c.Sync.Repositories) > 0 && c.Sync.Workspace == "" {
		return fmt.Errorf("sync.workspace is required when sync.repositories is set")
	}
	seen := map[string]struct{}{}
	for i, repo := range c.Sync.Repositories {
		if repo.Name == "" {
			return fmt.Errorf("sync.repositories[%d]: name is required", i)
		}
		if repo.URL == "" {
			return fmt.Errorf("sync.repositories[%d] (%s): url is required", i, repo.Name)
		}
		if _, dup := seen[repo.Name]; dup {
			return fmt.Errorf("sync.repositories: duplicate name %q", repo.Name)
		}
		seen[repo.Name] = struct{}{}
	}
	if c.Sync.Interval != "" {
		d, err := time.ParseDuration(c.Sync.Interval)
		if err != nil {
			return fmt.Errorf("sync.interval: %w", err)
		}
		if d < 0 {
			return fmt.Errorf("sync.interval must not be negative")
		}
	}
	return nil
}
