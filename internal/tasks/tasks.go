// package tasks implements long-running resolution jobs on top of the resolver.
//
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/purelyd/internal/models"
)

// Resolver is the subset of the resolver used by tasks.
type Resolver interface {
	Stream(ctx context.Context, identifier string) (*models.ResolvedItem, error)
	Listing(ctx context.Context, capability models.Capability, query string) (*models.Listing, error)
}

// Engine runs tasks against a [Resolver].
type Engine struct {
	resolver Resolver
	logger   *log.Logger
}

// NewEngine creates a new Engine; a nil logger discards output.
func NewEngine(r Resolver, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Engine{resolver: r, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
		// Channel full, skip this update
	}
}
