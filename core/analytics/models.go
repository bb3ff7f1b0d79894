package analytics

import "time"

// Activity types recorded as learning outcomes.
const (
	OutcomeQuiz       = "quiz"
	OutcomeAssignment = "assignment"
	OutcomeExam       = "exam"
)

// DeviceInfo describes the client device of a tracked session.
type DeviceInfo struct {
	Browser    string `json:"browser" bson:"browser"`
	OS         string `json:"os" bson:"os"`
	DeviceType string `json:"device_type" bson:"device_type"` // mobile | tablet | desktop | other
}

// UserAttendance is one login session.
type UserAttendance struct {
	ID              string     `json:"id" bson:"_id,omitempty"`
	UserID          string     `json:"user_id" bson:"user_id"`
	LoginTimestamp  time.Time  `json:"login_timestamp" bson:"login_timestamp"`
	LogoutTimestamp *time.Time `json:"logout_timestamp,omitempty" bson:"logout_timestamp,omitempty"`
	SessionDuration int        `json:"session_duration" bson:"session_duration"` // minutes
	IPAddress       string     `json:"ip_address" bson:"ip_address"`
	DeviceInfo      DeviceInfo `json:"device_info" bson:"device_info"`
}

// LearningOutcome is one scored learning activity.
type LearningOutcome struct {
	ID            string    `json:"id" bson:"_id,omitempty"`
	UserID        string    `json:"user_id" bson:"user_id"`
	CourseID      string    `json:"course_id" bson:"course_id"`
	ActivityDate  time.Time `json:"activity_date" bson:"activity_date"`
	ActivityType  string    `json:"activity_type" bson:"activity_type"`
	Score         int       `json:"score" bson:"score"`
	MaxScore      int       `json:"max_score" bson:"max_score"`
	Percentage    float64   `json:"percentage" bson:"percentage"` // in [0,100]
	CurriculumTag string    `json:"curriculum_tag,omitempty" bson:"curriculum_tag,omitempty"`
	Topic         string    `json:"topic,omitempty" bson:"topic,omitempty"`
}

// ContentEngagement is a per-content, per-day usage rollup.
type ContentEngagement struct {
	ID          string    `json:"id" bson:"_id,omitempty"`
	ContentID   string    `json:"content_id" bson:"content_id"`
	Date        time.Time `json:"date" bson:"date"`
	Views       int       `json:"views" bson:"views"`
	Downloads   int       `json:"downloads" bson:"downloads"`
	Completions int       `json:"completions" bson:"completions"`
}
