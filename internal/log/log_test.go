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

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"DEBUG", slog.LevelDebug, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
			}
		})
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().
		WithComponent(ComponentTurnover).
		WithMonth("2024-06-01").
		WithEntity("card", "c1").
		WithError(errors.New("boom")).
		WithError(nil)

	if f[FieldMonthKey] != "2024-06-01" || f[FieldEntityID] != "c1" || f[FieldError] != "boom" {
		t.Errorf("unexpected fields %v", f)
	}
	if len(f.ToSlice()) != 2*len(f) {
		t.Errorf("ToSlice length = %d", len(f.ToSlice()))
	}
}

func TestMiddlewareCarriesRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewText(&buf, slog.LevelInfo, ComponentHTTP)

	h := Middleware(logger.With(FieldRequestID, "req_1"))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			NewStructuredLogger(nil).LogMutation(r.Context(), OpCreate, "income", "i1")
		}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/incomes", nil))

	out := buf.String()
	for _, want := range []string{"Ledger updated", "request_id=req_1", "entity=income", "entity_id=i1"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}
}

func TestFromContextDefault(t *testing.T) {
	if l := FromContext(context.Background()); l.Component() != ComponentApp {
		t.Errorf("default component = %q", l.Component())
	}
}
