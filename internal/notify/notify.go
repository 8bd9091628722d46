// Package notify delivers user-facing outcome messages to one or more sinks.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"financeiro/internal/amqp"
)

// Severity classifies a notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// DefaultDuration is how long a notification stays visible unless stated
// otherwise.
const DefaultDuration = 5 * time.Second

// Notification is a transient message about the outcome of an operation.
type Notification struct {
	Message  string
	Severity Severity
	Duration time.Duration
	Time     time.Time
}

// New returns a notification with the default duration, stamped now.
func New(message string, severity Severity) Notification {
	return Notification{
		Message:  message,
		Severity: severity,
		Duration: DefaultDuration,
		Time:     time.Now(),
	}
}

func Success(message string) Notification { return New(message, SeveritySuccess) }
func Warning(message string) Notification { return New(message, SeverityWarning) }
func Error(message string) Notification   { return New(message, SeverityError) }

func (n Notification) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Message    string    `json:"message"`
		Severity   Severity  `json:"severity"`
		DurationMs int64     `json:"durationMs"`
		Time       time.Time `json:"time"`
	}{n.Message, n.Severity, n.Duration.Milliseconds(), n.Time})
}

// Sink receives notifications. Implementations must not block for long and
// handle their own delivery failures.
type Sink interface {
	Notify(ctx context.Context, n Notification)
}

// LogSink writes notifications to a slog logger, at a level matching the
// severity.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Notify(ctx context.Context, n Notification) {
	level := slog.LevelInfo
	switch n.Severity {
	case SeverityWarning:
		level = slog.LevelWarn
	case SeverityError:
		level = slog.LevelError
	}
	s.logger.Log(ctx, level, n.Message, "severity", string(n.Severity), "component", "notify")
}

// Fanout forwards every notification to each of its sinks in order.
type Fanout []Sink

func (f Fanout) Notify(ctx context.Context, n Notification) {
	for _, s := range f {
		if s != nil {
			s.Notify(ctx, n)
		}
	}
}

// Recorder keeps the most recent notifications in memory.
type Recorder struct {
	mu    sync.Mutex
	limit int
	items []Notification
}

// NewRecorder keeps at most limit notifications; limit <= 0 means 50.
func NewRecorder(limit int) *Recorder {
	if limit <= 0 {
		limit = 50
	}
	return &Recorder{limit: limit}
}

func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
	if len(r.items) > r.limit {
		r.items = r.items[len(r.items)-r.limit:]
	}
}

// Recent returns the recorded notifications, newest first.
func (r *Recorder) Recent() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.items))
	for i, n := range r.items {
		out[len(r.items)-1-i] = n
	}
	return out
}

// Publisher is the part of amqp.Client the AMQP sink needs.
type Publisher interface {
	PublishNotification(ctx context.Context, msg *amqp.NotificationMessage) error
}

// AMQPSink publishes notifications to a message broker. Failures are logged
// and otherwise ignored.
type AMQPSink struct {
	pub Publisher
}

func NewAMQPSink(pub Publisher) *AMQPSink {
	return &AMQPSink{pub: pub}
}

func (s *AMQPSink) Notify(ctx context.Context, n Notification) {
	msg := &amqp.NotificationMessage{
		Message:    n.Message,
		Severity:   string(n.Severity),
		DurationMs: n.Duration.Milliseconds(),
		Timestamp:  n.Time,
	}
	if err := s.pub.PublishNotification(ctx, msg); err != nil {
		slog.WarnContext(ctx, "Failed to publish notification", "error", err, "severity", msg.Severity)
	}
}
