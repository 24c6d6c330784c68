package event

import "time"

const (
	AttemptStarted   = "attempt.started"
	AttemptResumed   = "attempt.resumed"
	AttemptPaused    = "attempt.paused"
	AttemptSubmitted = "attempt.submitted"
	AttemptAbandoned = "attempt.abandoned"
)

type Envelope struct {
	Type       string      `json:"type"`
	Payload    interface{} `json:"payload"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// AttemptEvent is the payload of every attempt lifecycle event.
type AttemptEvent struct {
	AttemptID      string   `json:"attempt_id"`
	UserID         string   `json:"user_id"`
	ExamID         string   `json:"exam_id"`
	Status         string   `json:"status"`
	SelectedSkills []string `json:"selected_skills,omitempty"`
	TimeRemaining  *int     `json:"time_remaining,omitempty"`
	OverallScore   *float64 `json:"overall_score,omitempty"`
}
