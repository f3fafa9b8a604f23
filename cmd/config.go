package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/desertthunder/purelyd/internal/shared"
	"github.com/urfave/cli/v3"
)

// ConfigInit writes the embedded default configuration to the --config path.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if path == "" {
		path = r.configPath
	}
	if path == "" {
		return fmt.Errorf("%w: --config path", shared.ErrMissingArgument)
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	r.logger.Info("config written", "path", path)
	return r.writePlain("Created %s\n", path)
}

// ConfigCheck validates the loaded configuration and prints the strategy order per capability.
func (r *Runner) ConfigCheck(ctx context.Context, cmd *cli.Command) error {
	r.writePlainHeader("Configuration OK")
	r.writePlain("Listen:   %s\n", r.config.Server.Addr())

	strategies := r.resolver.Strategies()
	capabilities := make([]string, 0, len(strategies))
	for c := range strategies {
		capabilities = append(capabilities, c)
	}
	sort.Strings(capabilities)

	for _, c := range capabilities {
		names := strategies[c]
		if len(names) == 0 {
			r.writePlain("%-9s (none)\n", c+":")
			continue
		}
		r.writePlain("%-9s %s\n", c+":", strings.Join(names, " → "))
	}
	return nil
}
