package activity

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Activity types recorded offline on a device.
type Type string

const (
	TypeQuizAttempt Type = "quiz_attempt"
	TypeContentView Type = "content_view"
	TypeDownload    Type = "download"
)

// Sync lifecycle. Replay only ever moves pending forward; re-enqueueing a
// failed activity is an external decision.
type Status string

const (
	StatusPending Status = "pending"
	StatusSynced  Status = "synced"
	StatusFailed  Status = "failed"
)

// QuizAnswer is one answer recorded during an offline quiz attempt.
type QuizAnswer struct {
	QuestionID string `json:"question_id" bson:"question_id" validate:"required"`
	Answer     string `json:"answer" bson:"answer"`
}

// Details is the type-specific payload of an offline activity.
type Details struct {
	ContentID       string       `json:"content_id,omitempty" bson:"content_id,omitempty"`
	CourseID        string       `json:"course_id,omitempty" bson:"course_id,omitempty"`
	QuizAnswers     []QuizAnswer `json:"quiz_answers,omitempty" bson:"quiz_answers,omitempty"`
	DurationSeconds int          `json:"duration_seconds,omitempty" bson:"duration_seconds,omitempty"`
}

// OfflineActivity is one action recorded on a disconnected device, replayed
// against the live system when connectivity resumes.
type OfflineActivity struct {
	ID           string     `json:"id" bson:"_id,omitempty"`
	ClientID     string     `json:"client_id" bson:"client_id"` // device-generated uuid
	UserID       string     `json:"user_id" bson:"user_id"`
	ActivityType Type       `json:"activity_type" bson:"activity_type"`
	Details      Details    `json:"details" bson:"details"`
	SyncStatus   Status     `json:"sync_status" bson:"sync_status"`
	SyncedAt     *time.Time `json:"synced_at,omitempty" bson:"synced_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at" bson:"created_at"` // UTC, arrival order
}

// NewActivity is the client-facing enqueue payload.
type NewActivity struct {
	ClientID     string  `json:"client_id" validate:"omitempty,uuid4"`
	ActivityType Type    `json:"activity_type" validate:"required,oneof=quiz_attempt content_view download"`
	Details      Details `json:"details"`
}

func (na *NewActivity) Validate(validate *validator.Validate) error {
	if na.ClientID == "" {
		na.ClientID = uuid.New().String()
	}
	return validate.Struct(na)
}

// SyncResult reports a replay batch outcome.
type SyncResult struct {
	Synced int `json:"synced"`
	Failed int `json:"failed"`
}
