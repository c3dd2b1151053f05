package log

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Component: ComponentRecords, Output: &buf})
	l.Info("record created", FieldRecordID, 7)

	out := buf.String()
	if !strings.Contains(out, "component=records") || !strings.Contains(out, "record_id=7") {
		t.Fatalf("unexpected log line %q", out)
	}

	buf.Reset()
	l.WithComponent(ComponentCharts).Warn("slow")
	if !strings.Contains(buf.String(), "component=charts") {
		t.Fatalf("component not switched: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"":      slog.LevelInfo,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestMiddlewareAttachesRequestID(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Level: slog.LevelInfo, Component: ComponentHTTP, Output: &buf})

	h := Middleware(base, func(*http.Request) string { return "req_1" })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).Info("inside")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(buf.String(), "request_id=req_1") {
		t.Fatalf("request id missing: %q", buf.String())
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	if l := FromContext(context.Background()); l == nil || l.Component() != ComponentApp {
		t.Fatalf("unexpected fallback logger %+v", l)
	}
}
