package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/purelyd/internal/models"
	"github.com/desertthunder/purelyd/internal/resolver"
	"github.com/desertthunder/purelyd/internal/services"
	"github.com/desertthunder/purelyd/internal/shared"
	"github.com/desertthunder/purelyd/internal/tasks"
	"github.com/samber/mo"
	"github.com/urfave/cli/v3"
)

// Resolver is the resolution core used by command actions.
type Resolver interface {
	Resolve(ctx context.Context, identifier string, capability models.Capability) mo.Result[models.Resolution]
	Stream(ctx context.Context, identifier string) (*models.ResolvedItem, error)
	Listing(ctx context.Context, capability models.Capability, query string) (*models.Listing, error)
	Strategies() map[string][]string
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	resolver   Resolver
	oembed     *services.OEmbedService
	api        *services.APIService
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	engine     *tasks.Engine
	open       func(string) error
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Nil Config and Resolver are built from the config file in [Runner.setup].
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Resolver   Resolver
	API        *services.APIService
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = services.NewHTTPClient()
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		resolver:   opts.Resolver,
		api:        opts.API,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		open:       shared.OpenBrowser,
	}
	if r.resolver != nil {
		r.engine = tasks.NewEngine(r.resolver, r.logger)
	}
	return r
}

// setup loads configuration and builds the resolver for commands that need them.
//
// Used as the Before hook of those commands so `config init` works without a valid config.
func (r *Runner) setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if err := r.ensureConfig(cmd); err != nil {
		return ctx, err
	}

	if err := r.config.Validate(); err != nil {
		return ctx, err
	}

	level := r.config.Logging.Level
	if cmd.IsSet("log-level") {
		level = cmd.String("log-level")
	}
	if err := shared.ApplyLogLevel(r.logger, level); err != nil {
		return ctx, err
	}

	if r.resolver == nil {
		r.resolver = resolver.FromConfig(r.config, r.httpClient, r.logger)
	}
	if r.engine == nil {
		r.engine = tasks.NewEngine(r.resolver, r.logger)
	}
	if r.oembed == nil {
		r.oembed = services.NewOEmbedService(r.config.OEmbed, r.httpClient)
	}
	return ctx, nil
}

// ensureConfig loads the --config file once and applies environment overrides.
func (r *Runner) ensureConfig(cmd *cli.Command) error {
	if r.config != nil {
		return nil
	}

	path := cmd.String("config")
	if path == "" {
		path = r.configPath
	}

	config, err := r.loadConfig(path, cmd.IsSet("config"))
	if err != nil {
		return err
	}
	config.ApplyEnv(os.Getenv)
	r.config = config
	return nil
}

// loadConfig reads path, falling back to the embedded defaults when the file is absent and was not asked for.
func (r *Runner) loadConfig(path string, explicit bool) (*shared.Config, error) {
	if path == "" {
		return shared.DefaultConfig(), nil
	}
	if _, err := os.Stat(path); err != nil {
		if explicit {
			return nil, fmt.Errorf("%w: %s", shared.ErrMissingConfig, path)
		}
		r.logger.Debug("no config file, using defaults", "path", path)
		return shared.DefaultConfig(), nil
	}

	r.configPath = path
	return shared.LoadConfig(path)
}

// SetLogger replaces the logger used by commands and any resolver built afterwards.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, resolveCommand, searchCommand, playlistCommand, trendingCommand,
		infoCommand, prefetchCommand, configCommand, tuiCommand, apiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
