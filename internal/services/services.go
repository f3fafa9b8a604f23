package services

import (
	"context"
	"time"

	"github.com/desertthunder/purelyd/internal/models"
)

// Strategy is one upstream-specific resolution method.
//
// A strategy is bound to an ordered set of instances (mirror base URLs, or client identities for
// the platform-direct adapter). Each instance is an independent attempt with its own timeout.
type Strategy[T any] interface {
	// Name identifies the strategy in attempt logs and results (e.g. "piped").
	Name() string

	// Instances returns the ordered instance labels to try.
	Instances() []string

	// Timeout is the budget for a single attempt against one instance.
	Timeout() time.Duration

	// Retries is the number of extra attempts against the same instance after a failure.
	Retries() int

	// Attempt performs one call against instance for identifier.
	// Failures are returned as [*models.AttemptError].
	Attempt(ctx context.Context, instance, identifier string) (T, error)
}

// StreamStrategy resolves a video id to a playable media URL.
type StreamStrategy = Strategy[*models.ResolvedItem]

// ListingStrategy resolves a query or list id to a [models.Listing].
type ListingStrategy = Strategy[*models.Listing]

// AttemptFunc performs one call against an instance.
type AttemptFunc[T any] func(ctx context.Context, instance, identifier string) (T, error)

// strategy binds an [AttemptFunc] to a name, instances and a budget.
type strategy[T any] struct {
	name      string
	instances []string
	timeout   time.Duration
	retries   int
	attempt   AttemptFunc[T]
}

// NewStrategy builds a [Strategy] from its parts.
func NewStrategy[T any](name string, instances []string, timeout time.Duration, retries int, fn AttemptFunc[T]) Strategy[T] {
	return &strategy[T]{name: name, instances: instances, timeout: timeout, retries: retries, attempt: fn}
}

func (s *strategy[T]) Name() string           { return s.name }
func (s *strategy[T]) Instances() []string    { return s.instances }
func (s *strategy[T]) Timeout() time.Duration { return s.timeout }
func (s *strategy[T]) Retries() int           { return s.retries }

func (s *strategy[T]) Attempt(ctx context.Context, instance, identifier string) (T, error) {
	return s.attempt(ctx, instance, identifier)
}
