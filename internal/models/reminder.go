package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RecordStatusPending   = "pending"
	RecordStatusCompleted = "completed"
	RecordStatusCancelled = "cancelled"
)

// TerminalStatuses never produce reminders.
var TerminalStatuses = []string{RecordStatusCompleted, RecordStatusCancelled}

// ReminderCandidate is a read-only projection of a record used by one scheduler pass.
type ReminderCandidate struct {
	ID         uuid.UUID `db:"id"          json:"id"`
	UserID     uuid.UUID `db:"user_id"     json:"userId"`
	OwnerEmail string    `db:"owner_email" json:"ownerEmail"`
	Title      string    `db:"title"       json:"title"`
	DueDate    time.Time `db:"due_date"    json:"dueDate"`
	Status     string    `db:"status"      json:"status"`
}

const (
	ReminderClaimed   = "claimed"
	ReminderSent      = "sent"
	ReminderFailed    = "failed"
	ReminderCancelled = "cancelled"
)

// ScheduledReminder tracks one reminder per (record, due date) so a due date
// change can be told apart from a repeat run.
type ScheduledReminder struct {
	RecordID   uuid.UUID `db:"record_id"   json:"recordId"`
	DueDate    time.Time `db:"due_date"    json:"dueDate"`
	Status     string    `db:"status"      json:"status"`
	MessageIDs []string  `db:"-"           json:"messageIds"`
	CreatedAt  time.Time `db:"created_at"  json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at"  json:"updatedAt"`
}

type NotificationLog struct {
	UserID       uuid.UUID  `db:"user_id"       json:"userId"`
	RecordID     *uuid.UUID `db:"record_id"     json:"recordId,omitempty"`
	Kind         string     `db:"kind"          json:"kind"`
	Title        string     `db:"title"         json:"title"`
	Body         string     `db:"body"          json:"body"`
	SuccessCount int        `db:"success_count" json:"successCount"`
	FailureCount int        `db:"failure_count" json:"failureCount"`
	CreatedAt    time.Time  `db:"created_at"    json:"createdAt"`
}
