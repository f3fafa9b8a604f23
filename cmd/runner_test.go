package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/purelyd/internal/models"
	"github.com/desertthunder/purelyd/internal/services"
	"github.com/desertthunder/purelyd/internal/shared"
	tu "github.com/desertthunder/purelyd/internal/testing"
	"github.com/samber/mo"
	"github.com/urfave/cli/v3"
)

type fakeResolver struct {
	item     *models.ResolvedItem
	listing  *models.Listing
	err      error
	attempts models.AttemptLog
	last     string
	lastCap  models.Capability
}

func (f *fakeResolver) Resolve(ctx context.Context, id string, c models.Capability) mo.Result[models.Resolution] {
	f.last, f.lastCap = id, c
	if f.err != nil {
		return mo.Err[models.Resolution](f.err)
	}
	if c == models.CapabilityStream {
		return mo.Ok(models.Resolution{Capability: c, Item: f.item, Attempts: f.attempts})
	}
	l := *f.listing
	l.Items = append([]models.ListingItem(nil), f.listing.Items...)
	return mo.Ok(models.Resolution{Capability: c, Listing: &l, Attempts: f.attempts})
}

func (f *fakeResolver) Stream(ctx context.Context, id string) (*models.ResolvedItem, error) {
	res, err := f.Resolve(ctx, id, models.CapabilityStream).Get()
	if err != nil {
		return nil, err
	}
	return res.Item, nil
}

func (f *fakeResolver) Listing(ctx context.Context, c models.Capability, q string) (*models.Listing, error) {
	res, err := f.Resolve(ctx, q, c).Get()
	if err != nil {
		return nil, err
	}
	return res.Listing, nil
}

func (f *fakeResolver) Strategies() map[string][]string {
	return map[string][]string{
		"stream":   {"cobalt", "piped"},
		"search":   {"piped"},
		"playlist": {},
		"trending": {"piped"},
	}
}

func quietLogger() *log.Logger { return log.New(&bytes.Buffer{}) }

func newTestRunner(r *fakeResolver) (*Runner, *bytes.Buffer) {
	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config:   shared.DefaultConfig(),
		Resolver: r,
		Logger:   quietLogger(),
		Output:   output,
	})
	return runner, output
}

func sampleListing() *models.Listing {
	return &models.Listing{
		Capability: models.CapabilitySearch,
		Query:      "lofi",
		Source:     "piped",
		Items: []models.ListingItem{
			models.NewVideoItem("aaaaaaaaaaa", "Lofi One", "Chill"),
			models.NewVideoItem("bbbbbbbbbbb", "Lofi Two", "Chill"),
			models.NewVideoItem("ccccccccccc", "Lofi Three", "Chill"),
		},
	}
}

func exhausted() error {
	return &models.ExhaustedError{
		Identifier: "dQw4w9WgXcQ",
		Capability: models.CapabilityStream,
		Attempts: models.AttemptLog{
			models.NewAttempt("cobalt", "https://a.example", models.UpstreamStatusError(503), time.Millisecond),
			models.NewAttempt("piped", "https://b.example", models.EmptyResultError("no audio streams"), time.Millisecond),
		},
	}
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := quietLogger()
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			resolver := &fakeResolver{}
			api := services.NewAPIService("", nil)

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Resolver:   resolver,
				API:        api,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.resolver != resolver {
				t.Error("expected resolver to be set")
			}
			if runner.api != api {
				t.Error("expected api to be set")
			}
			if runner.engine == nil {
				t.Error("expected engine to be built from the resolver")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient builds one", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.httpClient == nil {
				t.Error("expected httpClient to be set")
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: "/test/path/config.toml"})
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writeJSON(map[string]string{"key": "value"}, true)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		commands := NewRunner(RunnerOpts{}).register()

		want := []string{"serve", "resolve", "search", "playlist", "trending", "info", "prefetch", "config", "tui", "api"}
		if len(commands) != len(want) {
			t.Fatalf("expected %d commands, got %d", len(want), len(commands))
		}
		for i, cmd := range commands {
			if cmd == nil || cmd.Name != want[i] {
				t.Errorf("command %d: expected %s", i, want[i])
			}
		}
	})
}

func TestSetup(t *testing.T) {
	t.Run("loads config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := shared.CreateConfigFile(path); err != nil {
			t.Fatal(err)
		}

		runner := NewRunner(RunnerOpts{Logger: quietLogger(), Output: &bytes.Buffer{}, ConfigPath: path})
		if _, err := runner.setup(context.Background(), &cli.Command{}); err != nil {
			t.Fatalf("setup failed: %v", err)
		}
		if runner.config == nil || runner.resolver == nil || runner.engine == nil || runner.oembed == nil {
			t.Error("setup should build config, resolver, engine and oembed client")
		}
		if runner.configPath != path {
			t.Errorf("expected configPath %s, got %s", path, runner.configPath)
		}
	})

	t.Run("missing default file falls back to defaults", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Logger: quietLogger(), ConfigPath: filepath.Join(t.TempDir(), "absent.toml")})
		if _, err := runner.setup(context.Background(), &cli.Command{}); err != nil {
			t.Fatalf("setup failed: %v", err)
		}
		if runner.config.Server.Port != shared.DefaultConfig().Server.Port {
			t.Error("expected default config")
		}
	})

	t.Run("explicit missing file fails", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Logger: quietLogger()})
		_, err := runner.loadConfig(filepath.Join(t.TempDir(), "absent.toml"), true)
		if !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("invalid config fails", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Server.Port = 0
		runner := NewRunner(RunnerOpts{Config: config, Logger: quietLogger()})
		if _, err := runner.setup(context.Background(), &cli.Command{}); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("secrets from environment", func(t *testing.T) {
		t.Setenv(shared.EnvCobaltKey, "secret")
		runner := NewRunner(RunnerOpts{Logger: quietLogger()})
		if err := runner.ensureConfig(&cli.Command{}); err != nil {
			t.Fatal(err)
		}
		if runner.config.Strategies.Cobalt.APIKey != "secret" {
			t.Error("expected cobalt key from environment")
		}
	})
}
