package sloghooks

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func newBufLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func TestSamplingAndRedaction(t *testing.T) {
	l, buf := newBufLogger()
	h := New(l, Options{LoadMissEvery: 3, Redact: HashName})

	for i := 0; i < 6; i++ {
		h.LoadMiss("users")
	}
	if got := strings.Count(buf.String(), "cachewrap.load_miss"); got != 2 {
		t.Fatalf("sampled load_miss lines = %d, want 2", got)
	}
	if strings.Contains(buf.String(), "users") {
		t.Fatalf("cache name leaked despite redaction: %q", buf.String())
	}
	if !strings.Contains(buf.String(), HashName("users")) {
		t.Fatalf("expected redacted name in %q", buf.String())
	}
}

func TestFinalizeErrorLogged(t *testing.T) {
	l, buf := newBufLogger()
	h := New(l, Options{})
	h.FinalizeError("users", errors.New("disk full"))
	out := buf.String()
	if !strings.Contains(out, "level=ERROR") || !strings.Contains(out, "disk full") || !strings.Contains(out, "cache=users") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestNilLoggerIsSilent(t *testing.T) {
	h := New(nil, Options{})
	h.LoadMiss("x")
	h.LoadRejected("x")
	h.Built("x")
	h.DependentMissing("x", "y")
	h.StoreSelfHeal("x", "corrupt")
	h.FinalizeError("x", errors.New("e"))
}
