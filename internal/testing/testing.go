// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"
)

// StubStrategy is a test double for a resolution strategy.
//
// Fn is called for every attempt; Calls records the instances it was called with, in order.
type StubStrategy[T any] struct {
	Label     string
	Mirrors   []string
	Budget    time.Duration
	RetryMax  int
	Fn        func(ctx context.Context, instance, identifier string) (T, error)
	mu        sync.Mutex
	callOrder []string
}

func (s *StubStrategy[T]) Name() string        { return s.Label }
func (s *StubStrategy[T]) Instances() []string { return s.Mirrors }
func (s *StubStrategy[T]) Retries() int        { return s.RetryMax }

func (s *StubStrategy[T]) Timeout() time.Duration {
	if s.Budget == 0 {
		return time.Second
	}
	return s.Budget
}

func (s *StubStrategy[T]) Attempt(ctx context.Context, instance, identifier string) (T, error) {
	s.mu.Lock()
	s.callOrder = append(s.callOrder, instance)
	s.mu.Unlock()
	return s.Fn(ctx, instance, identifier)
}

// Calls returns the instances attempted so far.
func (s *StubStrategy[T]) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.callOrder...)
}

// NewHangingServer returns a server whose handler blocks until the request context ends.
// The server is closed when the test finishes.
func NewHangingServer(t *testing.T) *httptest.Server {
	t.Helper()
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})
	return srv
}

// NewJSONServer returns a server that answers every request with status and body as JSON.
func NewJSONServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
