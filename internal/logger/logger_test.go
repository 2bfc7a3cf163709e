package logger

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestSessionID_RoundTrip(t *testing.T) {
	ctx := WithSessionID(context.Background(), "abc-123")
	if got := SessionID(ctx); got != "abc-123" {
		t.Errorf("SessionID = %q, want abc-123", got)
	}
}

func TestSessionID_MissingIsEmpty(t *testing.T) {
	if got := SessionID(context.Background()); got != "" {
		t.Errorf("SessionID = %q, want empty", got)
	}
}

func TestGenerateSessionID(t *testing.T) {
	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	id := GenerateSessionID("10.0.0.5:53210", ts)
	if !strings.HasPrefix(id, "10.0.0.5:53210-") {
		t.Errorf("id = %q, want addr prefix", id)
	}

	// Different connect times must yield different IDs for the same addr.
	other := GenerateSessionID("10.0.0.5:53210", ts.Add(time.Nanosecond))
	if id == other {
		t.Error("ids should differ across connect times")
	}
}

func TestLogWithSession(t *testing.T) {
	if attrs := LogWithSession(context.Background()); attrs != nil {
		t.Errorf("attrs = %v, want nil without a session", attrs)
	}

	ctx := WithSessionID(context.Background(), "abc-123")
	attrs := LogWithSession(ctx)
	if len(attrs) != 1 {
		t.Fatalf("attrs = %v, want one", attrs)
	}
}
