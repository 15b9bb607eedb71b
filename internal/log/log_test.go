package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newBufferLogger(component string) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(Config{Level: slog.LevelDebug, Component: component, Output: &buf}), &buf
}

func TestLoggerStampsComponent(t *testing.T) {
	l, buf := newBufferLogger(ComponentWorker)
	l.Info("Hello", "k", "v")
	if out := buf.String(); !strings.Contains(out, "component=worker") || !strings.Contains(out, "k=v") {
		t.Fatalf("unexpected output %q", out)
	}

	buf.Reset()
	l.Info("Override", FieldComponent, "http")
	if out := buf.String(); strings.Count(out, "component=") != 1 || !strings.Contains(out, "component=http") {
		t.Fatalf("explicit component should win, got %q", out)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	l, buf := newBufferLogger(ComponentHTTP)
	h := Middleware(l)(RequestIDMiddleware(func(*http.Request) string { return "req-42" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).InfoContext(r.Context(), "Inside")
		})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.Contains(buf.String(), "request_id=req-42") {
		t.Fatalf("missing request id: %q", buf.String())
	}
}

func TestFromContextFallsBack(t *testing.T) {
	if l := FromContext(context.Background()); l.Component() != "unknown" {
		t.Fatalf("component = %q", l.Component())
	}
}

func TestStructuredLogger(t *testing.T) {
	l, buf := newBufferLogger(ComponentApp)
	sl := NewStructuredLogger(l)
	ctx := context.Background()

	sl.LogBudgetAlert(ctx, "Budget exceeded", "alice", "b1", "Food", "monthly", 10000, 12000, 120)
	out := buf.String()
	for _, want := range []string{"level=WARN", "budget_id=b1", "spent_cents=12000", "operation=alert"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}

	buf.Reset()
	r := httptest.NewRequest(http.MethodPost, "/api/transactions?x=1", nil)
	sl.LogHTTPEnd(ctx, r, http.StatusInternalServerError, 12, "1.2.3.4")
	if !strings.Contains(buf.String(), "level=ERROR") || !strings.Contains(buf.String(), "status_code=500") {
		t.Fatalf("unexpected %q", buf.String())
	}

	buf.Reset()
	sl.LogError(ctx, "Boom", errors.New("bad"), ComponentStorage, OpCreate, nil)
	if !strings.Contains(buf.String(), "error=bad") {
		t.Fatalf("unexpected %q", buf.String())
	}
}
