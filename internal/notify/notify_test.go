package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"financeiro/internal/amqp"
)

func TestNewUsesDefaultDuration(t *testing.T) {
	n := Warning("Income removed")
	if n.Duration != DefaultDuration || n.Severity != SeverityWarning || n.Time.IsZero() {
		t.Errorf("unexpected notification %+v", n)
	}
}

func TestNotificationJSON(t *testing.T) {
	raw, err := json.Marshal(Success("Income added"))
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatal(err)
	}
	if got["message"] != "Income added" || got["severity"] != "success" || got["durationMs"] != float64(5000) {
		t.Errorf("unexpected JSON %s", raw)
	}
}

func TestRecorderNewestFirstAndBounded(t *testing.T) {
	r := NewRecorder(2)
	ctx := context.Background()
	r.Notify(ctx, Success("one"))
	r.Notify(ctx, Success("two"))
	r.Notify(ctx, Success("three"))

	got := r.Recent()
	if len(got) != 2 || got[0].Message != "three" || got[1].Message != "two" {
		t.Errorf("unexpected recent list %+v", got)
	}
}

func TestFanoutAndLogSink(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	rec := NewRecorder(0)

	Fanout{NewLogSink(logger), nil, rec}.Notify(context.Background(), Error("Save failed"))

	if len(rec.Recent()) != 1 {
		t.Error("recorder did not receive the notification")
	}
	if out := buf.String(); !strings.Contains(out, "level=ERROR") || !strings.Contains(out, "Save failed") {
		t.Errorf("unexpected log output %q", out)
	}
}

type fakePublisher struct {
	got []*amqp.NotificationMessage
	err error
}

func (f *fakePublisher) PublishNotification(_ context.Context, msg *amqp.NotificationMessage) error {
	f.got = append(f.got, msg)
	return f.err
}

func TestAMQPSink(t *testing.T) {
	pub := &fakePublisher{}
	NewAMQPSink(pub).Notify(context.Background(), Success("Purchase registered"))

	if len(pub.got) != 1 {
		t.Fatalf("expected one publish, got %d", len(pub.got))
	}
	if m := pub.got[0]; m.Message != "Purchase registered" || m.Severity != "success" || m.DurationMs != 5000 {
		t.Errorf("unexpected message %+v", m)
	}

	// Publish errors are swallowed.
	pub.err = errors.New("connection refused")
	NewAMQPSink(pub).Notify(context.Background(), Error("x"))
}
