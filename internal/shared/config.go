package shared

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	EnvInnertubeKey = "PURELYD_INNERTUBE_KEY"
	EnvCobaltKey    = "PURELYD_COBALT_KEY"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Logging    LoggingConfig    `toml:"logging"`
	Relay      RelayConfig      `toml:"relay"`
	Strategies StrategiesConfig `toml:"strategies"`
	OEmbed     OEmbedConfig     `toml:"oembed"`
	Prefetch   PrefetchConfig   `toml:"prefetch"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host      string  `toml:"host"`
	Port      int     `toml:"port"`
	RateLimit float64 `toml:"rate_limit"`
	Burst     int     `toml:"burst"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig contains log level and sink settings.
type LoggingConfig struct {
	Level   string `toml:"level"`
	TUIFile string `toml:"tui_file"`
}

// RelayConfig contains pass-through byte proxy settings.
type RelayConfig struct {
	UserAgent          string   `toml:"user_agent"`
	DefaultContentType string   `toml:"default_content_type"`
	BufferSize         int      `toml:"buffer_size"`
	AllowedHosts       []string `toml:"allowed_hosts"`
}

// MirrorConfig is shared by strategies that iterate a list of mirror instances of one service.
type MirrorConfig struct {
	Enabled   bool          `toml:"enabled"`
	Instances []string      `toml:"instances"`
	Timeout   time.Duration `toml:"timeout"`
	Retries   int           `toml:"retries"`
	UserAgent string        `toml:"user_agent"`
}

// CobaltConfig contains settings for the download-tool API.
type CobaltConfig struct {
	MirrorConfig
	APIKey       string `toml:"api_key"`
	DownloadMode string `toml:"download_mode"`
	AudioFormat  string `toml:"audio_format"`
}

// InnertubeClient is one client identity the platform-direct strategy can impersonate.
type InnertubeClient struct {
	Name       string `toml:"name"`
	Version    string `toml:"version"`
	AndroidSDK int    `toml:"android_sdk"`
	UserAgent  string `toml:"user_agent"`
	HL         string `toml:"hl"`
	GL         string `toml:"gl"`
}

// InnertubeConfig contains settings for direct platform player calls.
type InnertubeConfig struct {
	Enabled  bool              `toml:"enabled"`
	Endpoint string            `toml:"endpoint"`
	APIKey   string            `toml:"api_key"`
	Timeout  time.Duration     `toml:"timeout"`
	Retries  int               `toml:"retries"`
	Clients  []InnertubeClient `toml:"clients"`
}

// ScrapeConfig contains settings for the playlist page scraper.
type ScrapeConfig struct {
	Enabled     bool          `toml:"enabled"`
	Endpoint    string        `toml:"endpoint"`
	Timeout     time.Duration `toml:"timeout"`
	UserAgent   string        `toml:"user_agent"`
	Enrich      bool          `toml:"enrich"`
	EnrichLimit int           `toml:"enrich_limit"`
}

// StrategiesConfig groups per-upstream strategy settings.
type StrategiesConfig struct {
	Cobalt    CobaltConfig    `toml:"cobalt"`
	Piped     MirrorConfig    `toml:"piped"`
	Invidious MirrorConfig    `toml:"invidious"`
	Innertube InnertubeConfig `toml:"innertube"`
	Scrape    ScrapeConfig    `toml:"scrape"`
}

// OEmbedConfig contains settings for the metadata lookup endpoint.
type OEmbedConfig struct {
	Endpoint string        `toml:"endpoint"`
	Timeout  time.Duration `toml:"timeout"`
}

// PrefetchConfig contains settings for bulk stream resolution.
type PrefetchConfig struct {
	RateLimit float64 `toml:"rate_limit"`
	OutputDir string  `toml:"output_dir"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides secrets from the environment through lookup (usually [os.Getenv]).
func (c *Config) ApplyEnv(lookup func(string) string) {
	if v := lookup(EnvInnertubeKey); v != "" {
		c.Strategies.Innertube.APIKey = v
	}
	if v := lookup(EnvCobaltKey); v != "" {
		c.Strategies.Cobalt.APIKey = v
	}
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("%w: server rate_limit must not be negative", ErrInvalidConfig)
	}
	if c.Relay.BufferSize <= 0 {
		return fmt.Errorf("%w: relay buffer_size must be positive", ErrInvalidConfig)
	}

	mirrors := map[string]MirrorConfig{
		"cobalt":    c.Strategies.Cobalt.MirrorConfig,
		"piped":     c.Strategies.Piped,
		"invidious": c.Strategies.Invidious,
	}
	for name, m := range mirrors {
		if !m.Enabled {
			continue
		}
		if len(m.Instances) == 0 {
			return fmt.Errorf("%w: %s has no instances", ErrInvalidConfig, name)
		}
		for _, inst := range m.Instances {
			if !IsAbsoluteURL(inst) {
				return fmt.Errorf("%w: %s instance %q is not an absolute URL", ErrInvalidConfig, name, inst)
			}
		}
		if err := validateBudget(name, m.Timeout, m.Retries); err != nil {
			return err
		}
	}

	if it := c.Strategies.Innertube; it.Enabled {
		if !IsAbsoluteURL(it.Endpoint) {
			return fmt.Errorf("%w: innertube endpoint %q is not an absolute URL", ErrInvalidConfig, it.Endpoint)
		}
		if len(it.Clients) == 0 {
			return fmt.Errorf("%w: innertube has no clients", ErrInvalidConfig)
		}
		if err := validateBudget("innertube", it.Timeout, it.Retries); err != nil {
			return err
		}
	}

	if sc := c.Strategies.Scrape; sc.Enabled {
		if !IsAbsoluteURL(sc.Endpoint) {
			return fmt.Errorf("%w: scrape endpoint %q is not an absolute URL", ErrInvalidConfig, sc.Endpoint)
		}
		if err := validateBudget("scrape", sc.Timeout, 0); err != nil {
			return err
		}
	}

	return nil
}

func validateBudget(name string, timeout time.Duration, retries int) error {
	if timeout <= 0 {
		return fmt.Errorf("%w: %s timeout must be positive", ErrInvalidConfig, name)
	}
	if retries < 0 {
		return fmt.Errorf("%w: %s retries must not be negative", ErrInvalidConfig, name)
	}
	return nil
}

// IsAbsoluteURL reports whether raw parses as an http(s) URL with a host.
func IsAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
