package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/purelyd/internal/shared"
)

func TestCapability(t *testing.T) {
	t.Run("round trips through names", func(t *testing.T) {
		for _, c := range Capabilities {
			got, err := ParseCapability(c.String())
			if err != nil {
				t.Fatalf("unexpected error for %s: %v", c, err)
			}
			if got != c {
				t.Errorf("expected %s, got %s", c, got)
			}
		}
	})

	t.Run("parse is case insensitive", func(t *testing.T) {
		if got, err := ParseCapability(" Trending "); err != nil || got != CapabilityTrending {
			t.Errorf("expected trending, got %v (%v)", got, err)
		}
	})

	t.Run("rejects unknown names", func(t *testing.T) {
		if _, err := ParseCapability("lyrics"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("listing JSON decodes back", func(t *testing.T) {
		in := Listing{Capability: CapabilityPlaylist, Source: "piped", Items: []ListingItem{NewVideoItem("dQw4w9WgXcQ", "Song", "Band")}}
		data, err := json.Marshal(in)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		if !strings.Contains(string(data), `"capability":"playlist"`) {
			t.Errorf("expected capability by name, got %s", data)
		}

		var out Listing
		if err := json.Unmarshal(data, &out); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if out.Capability != CapabilityPlaylist || len(out.Items) != 1 || out.Items[0].ID != "dQw4w9WgXcQ" {
			t.Errorf("round trip mismatch: %+v", out)
		}
	})

	t.Run("unknown name fails to decode", func(t *testing.T) {
		var out Listing
		if err := json.Unmarshal([]byte(`{"capability":"lyrics"}`), &out); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestResolvedItem(t *testing.T) {
	t.Run("FromCandidate derives cover", func(t *testing.T) {
		item := FromCandidate("abc12345678", Candidate{URL: "https://cdn.example/a", MimeType: "audio/webm", Bitrate: 160000})
		if item.Cover != "https://img.youtube.com/vi/abc12345678/maxresdefault.jpg" {
			t.Errorf("unexpected cover %s", item.Cover)
		}
		if item.Bitrate != 160000 || item.MimeType != "audio/webm" {
			t.Errorf("candidate fields not copied: %+v", item)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		if err := (&ResolvedItem{URL: "https://cdn.example/a"}).Validate(); err != nil {
			t.Errorf("expected absolute url to validate, got %v", err)
		}
		if err := (&ResolvedItem{URL: "/relative"}).Validate(); err == nil {
			t.Error("expected relative url to fail")
		}
		if err := (&ResolvedItem{}).Validate(); err == nil {
			t.Error("expected empty url to fail")
		}
	})
}

func TestNewAttempt(t *testing.T) {
	tc := []struct {
		name    string
		err     error
		outcome Outcome
		kind    ErrorKind
	}{
		{name: "success", err: nil, outcome: OutcomeSuccess},
		{name: "upstream status", err: UpstreamStatusError(503), outcome: OutcomeHTTPError, kind: KindUpstreamStatus},
		{name: "parse", err: ParseError("missing %s", "url"), outcome: OutcomeParseError, kind: KindParse},
		{name: "empty", err: EmptyResultError("no audio streams"), outcome: OutcomeEmpty, kind: KindEmpty},
		{name: "transport", err: TransportError(errors.New("connection refused")), outcome: OutcomeHTTPError, kind: KindTransport},
		{name: "unclassified", err: errors.New("boom"), outcome: OutcomeHTTPError, kind: KindTransport},
		{name: "deadline", err: TransportError(fmt.Errorf("get: %w", context.DeadlineExceeded)), outcome: OutcomeTimeout, kind: KindTransport},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAttempt("piped", "https://p.example", tt.err, 25*time.Millisecond)
			if a.Outcome != tt.outcome {
				t.Errorf("expected outcome %s, got %s", tt.outcome, a.Outcome)
			}
			if a.Kind != tt.kind {
				t.Errorf("expected kind %s, got %s", tt.kind, a.Kind)
			}
		})
	}

	t.Run("records upstream status", func(t *testing.T) {
		a := NewAttempt("cobalt", "https://c.example", UpstreamStatusError(429), 0)
		if a.Status != 429 || a.Detail != "HTTP 429" {
			t.Errorf("unexpected attempt %+v", a)
		}
		if a.String() != "cobalt(https://c.example): HTTP 429" {
			t.Errorf("unexpected string %q", a.String())
		}
	})
}

func TestExhaustedError(t *testing.T) {
	err := &ExhaustedError{
		Identifier: "abc12345678",
		Capability: CapabilityStream,
		Attempts: AttemptLog{
			NewAttempt("cobalt", "a", UpstreamStatusError(503), 0),
			NewAttempt("piped", "b", EmptyResultError("no audio streams"), 0),
		},
	}

	if !errors.Is(err, shared.ErrAllSourcesFailed) {
		t.Error("expected ExhaustedError to match ErrAllSourcesFailed")
	}
	if !strings.Contains(err.Error(), "after 2 attempts") {
		t.Errorf("unexpected message %q", err.Error())
	}

	wrapped := fmt.Errorf("handler: %w", &ExhaustedError{Cause: context.Canceled})
	if !errors.Is(wrapped, context.Canceled) {
		t.Error("expected cause to unwrap")
	}

	var ee *ExhaustedError
	if !errors.As(wrapped, &ee) {
		t.Error("expected errors.As to find ExhaustedError")
	}

	if got := err.Attempts.Failures(); len(got) != 2 {
		t.Errorf("expected 2 failures, got %d", len(got))
	}
}
