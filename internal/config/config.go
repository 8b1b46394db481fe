package config

import (
	"embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

type Source struct {
	Name       string `yaml:"name"`
	URL        string `yaml:"url"`
	Category   string `yaml:"category,omitempty"`
	Priority   int    `yaml:"priority,omitempty"`
	Government bool   `yaml:"government,omitempty"`
	Enabled    bool   `yaml:"enabled"`
}

// Tier is one relevance weight class of the keyword taxonomy.
type Tier struct {
	Weight  int      `yaml:"weight"`
	Phrases []string `yaml:"phrases"`
}

// Taxonomy holds the static keyword tables driving scoring and tagging.
// Loaded once at startup, immutable for the run.
type Taxonomy struct {
	Tiers      map[string]Tier     `yaml:"tiers"`
	Categories map[string][]string `yaml:"categories"`

	UrgencyWords []string `yaml:"urgency_words,omitempty"`
	UrgencyBonus int      `yaml:"urgency_bonus,omitempty"`

	AuthorityNames []string `yaml:"authority_names,omitempty"`
	AuthorityBonus int      `yaml:"authority_bonus,omitempty"`

	InternationalTerms []string `yaml:"international_terms,omitempty"`
	InternationalBonus int      `yaml:"international_bonus,omitempty"`
}

type Freshness struct {
	WindowHours int    `yaml:"window_hours"`
	Fallback    string `yaml:"fallback"` // "fresh" or "stale"
}

type Pipeline struct {
	PerSourceCap int      `yaml:"per_source_cap"`
	TopN         int      `yaml:"top_n"`
	SortKeys     []string `yaml:"sort_keys"`
	Retention    string   `yaml:"retention"`
}

type Config struct {
	Title     string    `yaml:"title,omitempty"`
	Sources   []Source  `yaml:"sources"`
	Taxonomy  Taxonomy  `yaml:"taxonomy"`
	Freshness Freshness `yaml:"freshness"`
	Pipeline  Pipeline  `yaml:"pipeline"`
}

// Delivery is the environment-style configuration surface: delivery mode,
// sender credentials and recipients. Read from the process environment,
// optionally seeded from a .env file in the working directory.
type Delivery struct {
	EmailMode      bool
	SMTPHost       string
	SenderEmail    string
	SenderPassword string
	ReceiverEmail  string
	BCC            []string
}

// LoadDelivery reads delivery settings from the environment. A .env file is
// loaded first if present (best-effort).
func LoadDelivery() Delivery {
	_ = godotenv.Load()

	d := Delivery{
		EmailMode:      os.Getenv("GITHUB_ACTIONS") == "true" || os.Getenv("DIGEST_EMAIL") == "true",
		SMTPHost:       os.Getenv("SMTP_HOST"),
		SenderEmail:    os.Getenv("SENDER_EMAIL"),
		SenderPassword: os.Getenv("SENDER_PASSWORD"),
		ReceiverEmail:  os.Getenv("RECEIVER_EMAIL"),
	}
	if d.SMTPHost == "" {
		d.SMTPHost = "smtp.gmail.com"
	}
	if d.ReceiverEmail == "" {
		d.ReceiverEmail = d.SenderEmail
	}
	for _, addr := range strings.Split(os.Getenv("ADDITIONAL_EMAILS"), ",") {
		addr = strings.TrimSpace(addr)
		if addr != "" && addr != d.ReceiverEmail {
			d.BCC = append(d.BCC, addr)
		}
	}
	return d
}

// CredentialsSet reports whether the sender credentials are configured.
func (d Delivery) CredentialsSet() bool {
	return d.SenderEmail != "" && d.SenderPassword != ""
}

func (c *Config) EnabledSources() []Source {
	var out []Source
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

// Window returns the freshness window, defaulting to 24 hours.
func (c *Config) Window() time.Duration {
	if c.Freshness.WindowHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Freshness.WindowHours) * time.Hour
}

// FallbackFresh reports whether unparseable publish dates count as fresh.
// Default is true, the benefit-of-the-doubt policy.
func (c *Config) FallbackFresh() bool {
	return c.Freshness.Fallback != "stale"
}

// RetentionDuration returns how long seen fingerprints are kept.
// Supports "Nd" day syntax; defaults to 48 hours.
func (c *Config) RetentionDuration() time.Duration {
	if c.Pipeline.Retention == "" {
		return 48 * time.Hour
	}
	if len(c.Pipeline.Retention) > 1 && c.Pipeline.Retention[len(c.Pipeline.Retention)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(c.Pipeline.Retention, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour
		}
	}
	d, err := time.ParseDuration(c.Pipeline.Retention)
	if err != nil {
		return 48 * time.Hour
	}
	return d
}

// PerSourceCap returns the maximum entries taken per feed, defaulting to 8.
func (c *Config) PerSourceCap() int {
	if c.Pipeline.PerSourceCap <= 0 {
		return 8
	}
	return c.Pipeline.PerSourceCap
}

// TopN returns the digest size limit, defaulting to 25.
func (c *Config) TopN() int {
	if c.Pipeline.TopN <= 0 {
		return 25
	}
	return c.Pipeline.TopN
}

// SortKeys returns the ranking key order, most significant first.
// Defaults to relevance score then government-source priority.
func (c *Config) SortKeys() []string {
	if len(c.Pipeline.SortKeys) == 0 {
		return []string{"score", "government"}
	}
	return c.Pipeline.SortKeys
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "newsdigest", "config.yaml")
}

func CachePath() string {
	return filepath.Join(xdg.CacheHome, "newsdigest", "seen.db")
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

func Load(path string) (*Config, error) {
	defaults, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Write defaults to config path on first run
			if err := writeDefaults(path); err != nil {
				// Non-fatal: just use embedded defaults
				return defaults, nil
			}
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

var validSortKeys = map[string]bool{"score": true, "government": true, "priority": true, "recency": true}

func validate(cfg *Config) error {
	for i, s := range cfg.Sources {
		if s.Name == "" {
			return fmt.Errorf("source %d: name is required", i)
		}
		if s.URL == "" {
			return fmt.Errorf("source %q: url is required", s.Name)
		}
		u, err := url.Parse(s.URL)
		if err != nil {
			return fmt.Errorf("source %q: invalid url: %w", s.Name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("source %q: url scheme must be http or https, got %q", s.Name, u.Scheme)
		}
	}
	for name, tier := range cfg.Taxonomy.Tiers {
		if tier.Weight <= 0 {
			return fmt.Errorf("taxonomy tier %q: weight must be positive", name)
		}
	}
	if f := cfg.Freshness.Fallback; f != "" && f != "fresh" && f != "stale" {
		return fmt.Errorf("freshness fallback must be %q or %q, got %q", "fresh", "stale", f)
	}
	for _, k := range cfg.Pipeline.SortKeys {
		if !validSortKeys[k] {
			return fmt.Errorf("unknown sort key %q (valid: score, government, priority, recency)", k)
		}
	}
	return nil
}
