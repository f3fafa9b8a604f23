package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Server.Port != 8787 {
			t.Errorf("expected server port 8787, got %d", config.Server.Port)
		}

		if config.Strategies.Cobalt.Timeout != 10*time.Second {
			t.Errorf("expected cobalt timeout 10s, got %s", config.Strategies.Cobalt.Timeout)
		}

		if config.Strategies.Piped.Timeout != 8*time.Second {
			t.Errorf("expected piped timeout 8s, got %s", config.Strategies.Piped.Timeout)
		}

		if len(config.Strategies.Piped.Instances) != 4 {
			t.Errorf("expected 4 piped instances, got %d", len(config.Strategies.Piped.Instances))
		}

		if len(config.Strategies.Innertube.Clients) != 1 || config.Strategies.Innertube.Clients[0].Name != "ANDROID_TESTSUITE" {
			t.Errorf("expected single ANDROID_TESTSUITE client, got %+v", config.Strategies.Innertube.Clients)
		}

		if config.Strategies.Innertube.APIKey != "" {
			t.Error("expected no embedded innertube key")
		}

		if config.Relay.BufferSize != 32768 {
			t.Errorf("expected relay buffer 32768, got %d", config.Relay.BufferSize)
		}

		if err := config.Validate(); err != nil {
			t.Errorf("expected default config to validate, got %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Server.Addr() != defaultConfig.Server.Addr() {
			t.Errorf("created config server address doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[server]
host = "0.0.0.0"
port = 9090

[strategies.piped]
enabled = true
instances = ["http://localhost:9001"]
timeout = "2s"

[strategies.innertube]
api_key = "test_key"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Server.Addr() != "0.0.0.0:9090" {
			t.Errorf("expected addr 0.0.0.0:9090, got %s", config.Server.Addr())
		}

		if len(config.Strategies.Piped.Instances) != 1 || config.Strategies.Piped.Instances[0] != "http://localhost:9001" {
			t.Errorf("expected overridden piped instances, got %v", config.Strategies.Piped.Instances)
		}

		if config.Strategies.Piped.Timeout != 2*time.Second {
			t.Errorf("expected piped timeout 2s, got %s", config.Strategies.Piped.Timeout)
		}

		if config.Strategies.Innertube.APIKey != "test_key" {
			t.Errorf("expected innertube key test_key, got %s", config.Strategies.Innertube.APIKey)
		}

		if config.Strategies.Cobalt.Timeout != 10*time.Second {
			t.Errorf("expected cobalt default to survive, got %s", config.Strategies.Cobalt.Timeout)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		config := DefaultConfig()
		env := map[string]string{EnvInnertubeKey: "from-env", EnvCobaltKey: "cobalt-env"}
		config.ApplyEnv(func(k string) string { return env[k] })

		if config.Strategies.Innertube.APIKey != "from-env" {
			t.Errorf("expected innertube key from env, got %s", config.Strategies.Innertube.APIKey)
		}
		if config.Strategies.Cobalt.APIKey != "cobalt-env" {
			t.Errorf("expected cobalt key from env, got %s", config.Strategies.Cobalt.APIKey)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tc := []struct {
			name   string
			mutate func(*Config)
		}{
			{"port out of range", func(c *Config) { c.Server.Port = 0 }},
			{"negative rate limit", func(c *Config) { c.Server.RateLimit = -1 }},
			{"zero relay buffer", func(c *Config) { c.Relay.BufferSize = 0 }},
			{"enabled mirror without instances", func(c *Config) { c.Strategies.Piped.Instances = nil }},
			{"relative instance", func(c *Config) { c.Strategies.Invidious.Instances = []string{"inv.example"} }},
			{"zero timeout", func(c *Config) { c.Strategies.Cobalt.Timeout = 0 }},
			{"negative retries", func(c *Config) { c.Strategies.Cobalt.Retries = -1 }},
			{"innertube without clients", func(c *Config) { c.Strategies.Innertube.Clients = nil }},
			{"scrape bad endpoint", func(c *Config) { c.Strategies.Scrape.Endpoint = "/playlist" }},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				config := DefaultConfig()
				tt.mutate(config)
				err := config.Validate()
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			})
		}

		t.Run("disabled strategy is not checked", func(t *testing.T) {
			config := DefaultConfig()
			config.Strategies.Piped.Enabled = false
			config.Strategies.Piped.Instances = nil
			if err := config.Validate(); err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	})
}
