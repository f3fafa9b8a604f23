package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/desertthunder/purelyd/internal/services"
	"github.com/desertthunder/purelyd/internal/shared"
	"github.com/urfave/cli/v3"
)

// apiClient returns the configured client, or one for --base-url.
func (r *Runner) apiClient(cmd *cli.Command) *services.APIService {
	if r.api != nil {
		return r.api
	}
	r.api = services.NewAPIService(cmd.String("base-url"), r.httpClient)
	return r.api
}

// APIGet makes a direct GET request to a running server
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := argument(cmd, "path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	query := url.Values{}
	for _, kv := range cmd.StringSlice("query") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return fmt.Errorf("%w: query %q is not key=value", shared.ErrInvalidFlag, kv)
		}
		query.Add(k, v)
	}

	r.logger.Info("GET request", "path", path)

	resp, err := r.apiClient(cmd).Get(ctx, path, query)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrUpstream, err)
	}

	if resp.IsJSON {
		if err := r.writeJSON(resp.JSONData, cmd.Bool("pretty")); err != nil {
			return err
		}
	} else {
		r.output.Write(resp.Body)
		r.output.Write([]byte("\n"))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", shared.ErrUpstream, resp.StatusCode)
	}
	return nil
}

// APIHealth prints the health document of a running server.
func (r *Runner) APIHealth(ctx context.Context, cmd *cli.Command) error {
	health, err := r.apiClient(cmd).Health(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrUpstream, err)
	}
	return r.writeJSON(health, true)
}
