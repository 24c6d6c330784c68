package models

import (
	"strings"
	"time"
)

type UserAnswer struct {
	ID              string    `bson:"_id" json:"id"`
	AttemptID       string    `bson:"attempt_id" json:"attemptId"`
	QuestionID      string    `bson:"question_id" json:"questionId"`
	TextContent     string    `bson:"text_content,omitempty" json:"textContent,omitempty"`
	SelectedOptions string    `bson:"selected_options,omitempty" json:"selectedOptions,omitempty"`
	AudioURL        string    `bson:"audio_url,omitempty" json:"audioUrl,omitempty"`
	Sequence        int       `bson:"sequence" json:"-"`
	SavedAt         time.Time `bson:"saved_at" json:"savedAt"`
}

// Response is the value graded for this answer. Text content wins over
// selected options when both are present.
func (a UserAnswer) Response() string {
	if strings.TrimSpace(a.TextContent) != "" {
		return a.TextContent
	}
	return a.SelectedOptions
}
