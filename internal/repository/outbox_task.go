package repository

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskStatusCreated    TaskStatus = "CREATED"
	TaskStatusProcessing TaskStatus = "PROCESSING"
	TaskStatusFailed     TaskStatus = "FAILED"
	TaskStatusDone       TaskStatus = "DONE"
)

// OutboxTask is one notification event awaiting delivery. Tasks are written
// in the same transaction as the state change that triggered them, so a
// broker outage can never roll back a lifecycle transition.
type OutboxTask struct {
	ID          uuid.UUID       `db:"id"`
	Status      TaskStatus      `db:"status"`
	Payload     json.RawMessage `db:"payload"`
	Topic       string          `db:"topic"`
	Attempts    int             `db:"attempts"`
	LastError   *string         `db:"last_error"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
	CompletedAt *time.Time      `db:"completed_at"`
}

// NotificationPayload is the event body published to the notifications
// topic. Delivery mechanics (push/email/SMS) live downstream of the broker.
type NotificationPayload struct {
	Timestamp time.Time         `json:"timestamp"`
	UserID    string            `json:"user_id"`
	Template  string            `json:"template"`
	MatchID   string            `json:"match_id,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	TripID    string            `json:"trip_id,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}
