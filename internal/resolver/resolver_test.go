package resolver

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/purelyd/internal/models"
	"github.com/desertthunder/purelyd/internal/services"
	"github.com/desertthunder/purelyd/internal/shared"
	tu "github.com/desertthunder/purelyd/internal/testing"
)

const videoID = "dQw4w9WgXcQ"

func okItem(source string) func(ctx context.Context, instance, id string) (*models.ResolvedItem, error) {
	return func(ctx context.Context, instance, id string) (*models.ResolvedItem, error) {
		return &models.ResolvedItem{Identifier: id, Source: source, Instance: instance, URL: "https://cdn.example/" + source}, nil
	}
}

func failItem(err error) func(ctx context.Context, instance, id string) (*models.ResolvedItem, error) {
	return func(ctx context.Context, instance, id string) (*models.ResolvedItem, error) {
		return nil, err
	}
}

func stubStream(name string, instances []string, fn func(ctx context.Context, instance, id string) (*models.ResolvedItem, error)) *tu.StubStrategy[*models.ResolvedItem] {
	return &tu.StubStrategy[*models.ResolvedItem]{Label: name, Mirrors: instances, Fn: fn}
}

// withoutElapsed strips timing so logs from separate calls compare equal.
func withoutElapsed(l models.AttemptLog) models.AttemptLog {
	out := make(models.AttemptLog, len(l))
	for i, a := range l {
		a.Elapsed = 0
		out[i] = a
	}
	return out
}

func exhaustedFrom(t *testing.T, err error) *models.ExhaustedError {
	t.Helper()
	var ee *models.ExhaustedError
	if !errors.As(err, &ee) {
		t.Fatalf("expected ExhaustedError, got %v", err)
	}
	return ee
}

func TestResolverStream(t *testing.T) {
	t.Run("first success short-circuits", func(t *testing.T) {
		first := stubStream("first", []string{"a"}, failItem(models.UpstreamStatusError(503)))
		second := stubStream("second", []string{"b1", "b2"}, okItem("second"))
		third := stubStream("third", []string{"c"}, okItem("third"))

		r := New(WithStreams(first, second, third))
		res := r.Resolve(context.Background(), videoID, models.CapabilityStream)
		got, err := res.Get()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if got.Source() != "second" || got.Item.Instance != "b1" {
			t.Errorf("expected second(b1), got %s(%s)", got.Source(), got.Item.Instance)
		}
		if len(got.Attempts) != 2 {
			t.Fatalf("expected exactly one failure before success, got %d attempts", len(got.Attempts))
		}
		if got.Attempts[0].Outcome != models.OutcomeHTTPError || got.Attempts[1].Outcome != models.OutcomeSuccess {
			t.Errorf("unexpected outcomes %v", got.Attempts.Strings())
		}
		if calls := second.Calls(); !reflect.DeepEqual(calls, []string{"b1"}) {
			t.Errorf("expected remaining mirrors skipped, got %v", calls)
		}
		if calls := third.Calls(); len(calls) != 0 {
			t.Errorf("expected later strategies skipped, got %v", calls)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		r := New(WithStreams(
			stubStream("first", []string{"a"}, failItem(models.ParseError("bad payload"))),
			stubStream("second", []string{"b"}, okItem("second")),
		))

		a, errA := r.Resolve(context.Background(), videoID, models.CapabilityStream).Get()
		b, errB := r.Resolve(context.Background(), videoID, models.CapabilityStream).Get()
		if errA != nil || errB != nil {
			t.Fatalf("unexpected errors %v, %v", errA, errB)
		}
		if !reflect.DeepEqual(a.Item, b.Item) {
			t.Errorf("expected identical items, got %+v and %+v", a.Item, b.Item)
		}
		if !reflect.DeepEqual(withoutElapsed(a.Attempts), withoutElapsed(b.Attempts)) {
			t.Errorf("expected identical logs, got %v and %v", a.Attempts.Strings(), b.Attempts.Strings())
		}
	})

	t.Run("accepts urls", func(t *testing.T) {
		r := New(WithStreams(stubStream("s", []string{"a"}, okItem("s"))))
		item, err := r.Stream(context.Background(), "https://youtu.be/"+videoID+"?t=42")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if item.Identifier != videoID {
			t.Errorf("expected extracted id, got %s", item.Identifier)
		}
	})

	t.Run("missing identifier", func(t *testing.T) {
		r := New(WithStreams(stubStream("s", []string{"a"}, okItem("s"))))
		if _, err := r.Stream(context.Background(), "   "); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("invalid success is recorded as failure", func(t *testing.T) {
		bad := stubStream("bad", []string{"a"}, func(ctx context.Context, instance, id string) (*models.ResolvedItem, error) {
			return &models.ResolvedItem{URL: "/relative"}, nil
		})
		r := New(WithStreams(bad, stubStream("good", []string{"b"}, okItem("good"))))

		got, err := r.Resolve(context.Background(), videoID, models.CapabilityStream).Get()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.Attempts[0].Outcome != models.OutcomeParseError {
			t.Errorf("expected parseError for relative url, got %s", got.Attempts[0].Outcome)
		}
	})

	t.Run("all empty exhausts with three attempts", func(t *testing.T) {
		empty := failItem(models.EmptyResultError("no audio streams"))
		r := New(WithStreams(
			stubStream("one", []string{"a"}, empty),
			stubStream("two", []string{"b"}, empty),
			stubStream("three", []string{"c"}, empty),
		))

		_, err := r.Stream(context.Background(), videoID)
		if !errors.Is(err, shared.ErrAllSourcesFailed) {
			t.Fatalf("expected ErrAllSourcesFailed, got %v", err)
		}
		ee := exhaustedFrom(t, err)
		if len(ee.Attempts) != 3 {
			t.Fatalf("expected 3 attempts, got %d", len(ee.Attempts))
		}
		for _, a := range ee.Attempts {
			if a.Outcome != models.OutcomeEmpty {
				t.Errorf("expected empty outcome, got %s", a.Outcome)
			}
		}
		if ee.Cause != nil {
			t.Errorf("expected no cause for plain exhaustion, got %v", ee.Cause)
		}
	})

	t.Run("exhaustion warning lists each attempt", func(t *testing.T) {
		var buf bytes.Buffer
		r := New(
			WithLogger(log.New(&buf)),
			WithStreams(
				stubStream("one", []string{"a.example"}, failItem(models.UpstreamStatusError(503))),
				stubStream("two", []string{"b.example"}, failItem(models.EmptyResultError("no audio streams"))),
			),
		)

		if _, err := r.Stream(context.Background(), videoID); !errors.Is(err, shared.ErrAllSourcesFailed) {
			t.Fatalf("expected ErrAllSourcesFailed, got %v", err)
		}
		got := buf.String()
		for _, want := range []string{"all sources failed", "one(a.example)", "two(b.example)"} {
			if !strings.Contains(got, want) {
				t.Errorf("log missing %q: %s", want, got)
			}
		}
	})

	t.Run("retries are logged separately", func(t *testing.T) {
		flaky := stubStream("flaky", []string{"a"}, nil)
		flaky.RetryMax = 2
		n := 0
		flaky.Fn = func(ctx context.Context, instance, id string) (*models.ResolvedItem, error) {
			n++
			if n < 3 {
				return nil, models.UpstreamStatusError(502)
			}
			return &models.ResolvedItem{Identifier: id, Source: "flaky", URL: "https://cdn.example/x"}, nil
		}

		got, err := New(WithStreams(flaky)).Resolve(context.Background(), videoID, models.CapabilityStream).Get()
		if err != nil {
			t.Fatalf("expected success on final retry, got %v", err)
		}
		if len(got.Attempts) != 3 {
			t.Errorf("expected 3 attempts, got %d", len(got.Attempts))
		}
		if !reflect.DeepEqual(flaky.Calls(), []string{"a", "a", "a"}) {
			t.Errorf("expected same instance retried, got %v", flaky.Calls())
		}
	})

	t.Run("empty registry", func(t *testing.T) {
		_, err := New().Stream(context.Background(), videoID)
		ee := exhaustedFrom(t, err)
		if !errors.Is(err, shared.ErrNoStrategies) {
			t.Errorf("expected ErrNoStrategies cause, got %v", err)
		}
		if len(ee.Attempts) != 0 {
			t.Errorf("expected empty log, got %d", len(ee.Attempts))
		}
	})

	t.Run("parent cancellation stops the walk", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		first := stubStream("first", []string{"a"}, func(_ context.Context, _, _ string) (*models.ResolvedItem, error) {
			cancel()
			return nil, models.TransportError(context.Canceled)
		})
		second := stubStream("second", []string{"b"}, okItem("second"))

		_, err := New(WithStreams(first, second)).Stream(ctx, videoID)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if len(second.Calls()) != 0 {
			t.Error("expected later strategies not to be tried")
		}
		if ee := exhaustedFrom(t, err); len(ee.Attempts) != 1 {
			t.Errorf("expected 1 attempt, got %d", len(ee.Attempts))
		}
	})

	t.Run("timeout is recorded and the walk continues", func(t *testing.T) {
		hanging := stubStream("hanging", []string{"slow"}, func(ctx context.Context, _, _ string) (*models.ResolvedItem, error) {
			<-ctx.Done()
			return nil, errors.New("gave up")
		})
		hanging.Budget = 30 * time.Millisecond

		start := time.Now()
		got, err := New(WithStreams(hanging, stubStream("next", []string{"b"}, okItem("next")))).
			Resolve(context.Background(), videoID, models.CapabilityStream).Get()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if time.Since(start) > 2*time.Second {
			t.Error("expected the attempt deadline to bound the walk")
		}
		if got.Attempts[0].Outcome != models.OutcomeTimeout || got.Attempts[0].Kind != models.KindTransport {
			t.Errorf("expected transport timeout, got %+v", got.Attempts[0])
		}
		if got.Source() != "next" {
			t.Errorf("expected next strategy to win, got %s", got.Source())
		}
	})
}

func TestResolverAdapters(t *testing.T) {
	t.Run("503 then highest bitrate from second adapter", func(t *testing.T) {
		unavailable := tu.NewJSONServer(t, http.StatusServiceUnavailable, `{}`)
		piped := tu.NewJSONServer(t, http.StatusOK, `{"title":"Song","audioStreams":[
			{"url":"https://cdn.example/128","mimeType":"audio/mp4","bitrate":128000},
			{"url":"https://cdn.example/256","mimeType":"audio/webm","bitrate":256000}
		]}`)

		cfg := shared.MirrorConfig{Enabled: true, Timeout: time.Second}
		cobaltCfg := shared.CobaltConfig{MirrorConfig: cfg}
		cobaltCfg.Instances = []string{unavailable.URL}
		pipedCfg := cfg
		pipedCfg.Instances = []string{piped.URL}

		r := New(WithStreams(
			services.NewCobaltService(cobaltCfg, nil).StreamStrategy(),
			services.NewPipedService(pipedCfg, nil).StreamStrategy(),
		))

		got, err := r.Resolve(context.Background(), videoID, models.CapabilityStream).Get()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.Item.Bitrate != 256000 || got.Item.URL != "https://cdn.example/256" {
			t.Errorf("expected 256kbps candidate, got %d %s", got.Item.Bitrate, got.Item.URL)
		}
		if got.Source() != "piped" {
			t.Errorf("expected piped, got %s", got.Source())
		}
		if got.Attempts[0].Status != http.StatusServiceUnavailable {
			t.Errorf("expected 503 recorded, got %+v", got.Attempts[0])
		}
	})

	t.Run("hanging mirror times out", func(t *testing.T) {
		hanging := tu.NewHangingServer(t)
		cfg := shared.MirrorConfig{Enabled: true, Instances: []string{hanging.URL}, Timeout: 50 * time.Millisecond}

		_, err := New(WithStreams(services.NewPipedService(cfg, nil).StreamStrategy())).Stream(context.Background(), videoID)
		ee := exhaustedFrom(t, err)
		if len(ee.Attempts) != 1 || ee.Attempts[0].Outcome != models.OutcomeTimeout {
			t.Errorf("expected single timeout attempt, got %v", ee.Attempts.Strings())
		}
	})
}

func TestResolverListing(t *testing.T) {
	listing := func(source string, n int) func(ctx context.Context, instance, q string) (*models.Listing, error) {
		return func(ctx context.Context, instance, q string) (*models.Listing, error) {
			items := make([]models.ListingItem, n)
			for i := range items {
				items[i] = models.NewVideoItem(videoID, "Song", "Artist")
			}
			return &models.Listing{Query: q, Source: source, Items: items}, nil
		}
	}
	stub := func(name string, fn func(ctx context.Context, instance, q string) (*models.Listing, error)) *tu.StubStrategy[*models.Listing] {
		return &tu.StubStrategy[*models.Listing]{Label: name, Mirrors: []string{name + ".example"}, Fn: fn}
	}

	t.Run("zero items falls through", func(t *testing.T) {
		r := New(WithListings(models.CapabilitySearch, stub("piped", listing("piped", 0)), stub("invidious", listing("invidious", 2))))

		got, err := r.Resolve(context.Background(), "  lofi  ", models.CapabilitySearch).Get()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.Listing.Source != "invidious" || got.Listing.Query != "lofi" {
			t.Errorf("unexpected listing %+v", got.Listing)
		}
		if got.Attempts[0].Outcome != models.OutcomeEmpty {
			t.Errorf("expected empty outcome, got %s", got.Attempts[0].Outcome)
		}
	})

	t.Run("playlist urls are reduced to ids", func(t *testing.T) {
		s := stub("piped", listing("piped", 1))
		r := New(WithListings(models.CapabilityPlaylist, s))

		got, err := r.Listing(context.Background(), models.CapabilityPlaylist, "https://www.youtube.com/playlist?list=PLabc123")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.Query != "PLabc123" {
			t.Errorf("expected extracted playlist id, got %s", got.Query)
		}
	})

	t.Run("malformed playlist id never reaches a strategy", func(t *testing.T) {
		s := stub("piped", listing("piped", 1))
		r := New(WithListings(models.CapabilityPlaylist, s))

		_, err := r.Listing(context.Background(), models.CapabilityPlaylist, "https://www.youtube.com/playlist?list=../../admin/secret")
		if !errors.Is(err, shared.ErrInvalidIdentifier) {
			t.Errorf("expected ErrInvalidIdentifier, got %v", err)
		}
		if calls := s.Calls(); len(calls) != 0 {
			t.Errorf("expected no attempts, got %v", calls)
		}
	})

	t.Run("empty search query", func(t *testing.T) {
		r := New(WithListings(models.CapabilitySearch, stub("piped", listing("piped", 1))))
		if _, err := r.Listing(context.Background(), models.CapabilitySearch, ""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("stream is not a listing", func(t *testing.T) {
		if _, err := New().Listing(context.Background(), models.CapabilityStream, videoID); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("trending with empty registry", func(t *testing.T) {
		res := New().Resolve(context.Background(), "us", models.CapabilityTrending)
		if res.IsOk() {
			t.Fatal("expected error result")
		}
		if ee := exhaustedFrom(t, res.Error()); ee.Identifier != "US" {
			t.Errorf("expected normalized region, got %s", ee.Identifier)
		}
	})
}

func TestFromConfig(t *testing.T) {
	t.Run("default order", func(t *testing.T) {
		r := FromConfig(shared.DefaultConfig(), nil, nil)
		got := r.Strategies()

		want := map[string][]string{
			"stream":   {"cobalt", "piped", "invidious", "innertube"},
			"search":   {"piped", "invidious"},
			"playlist": {"piped", "invidious", "scrape"},
			"trending": {"piped", "invidious"},
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("disabled strategies are skipped", func(t *testing.T) {
		cfg := shared.DefaultConfig()
		cfg.Strategies.Cobalt.Enabled = false
		cfg.Strategies.Innertube.Enabled = false

		if got := FromConfig(cfg, nil, nil).Strategies()["stream"]; !reflect.DeepEqual(got, []string{"piped", "invidious"}) {
			t.Errorf("unexpected stream order %v", got)
		}
	})

	t.Run("walks configured instances in order", func(t *testing.T) {
		var (
			mu   sync.Mutex
			hits []string
		)
		mk := func(name string, status int) *httptest.Server {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				mu.Lock()
				hits = append(hits, name)
				mu.Unlock()
				w.WriteHeader(status)
				io.WriteString(w, `{"title":"Song","audioStreams":[{"url":"https://cdn.example/a","bitrate":1}]}`)
			}))
			t.Cleanup(srv.Close)
			return srv
		}
		a, b := mk("a", http.StatusBadGateway), mk("b", http.StatusOK)

		cfg := shared.DefaultConfig()
		cfg.Strategies.Cobalt.Enabled = false
		cfg.Strategies.Invidious.Enabled = false
		cfg.Strategies.Innertube.Enabled = false
		cfg.Strategies.Piped.Instances = []string{a.URL, b.URL}

		item, err := FromConfig(cfg, nil, nil).Stream(context.Background(), videoID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		mu.Lock()
		defer mu.Unlock()
		if item.Instance != b.URL || !reflect.DeepEqual(hits, []string{"a", "b"}) {
			t.Errorf("expected a then b, got %v (winner %s)", hits, item.Instance)
		}
	})
}
