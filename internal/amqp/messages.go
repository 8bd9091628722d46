package amqp

import (
	"encoding/json"
	"time"
)

// NotificationMessage carries one user-facing notification to other
// processes. DurationMs is how long a UI should keep it visible.
type NotificationMessage struct {
	Message    string    `json:"message"`
	Severity   string    `json:"severity"`
	DurationMs int64     `json:"durationMs"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewNotificationMessage creates a message stamped with the current time.
func NewNotificationMessage(message, severity string, duration time.Duration) *NotificationMessage {
	return &NotificationMessage{
		Message:    message,
		Severity:   severity,
		DurationMs: duration.Milliseconds(),
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *NotificationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// NotificationMessageFromJSON parses a message from JSON bytes
func NotificationMessageFromJSON(data []byte) (*NotificationMessage, error) {
	var msg NotificationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
