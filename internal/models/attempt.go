package models

import (
	"strings"
	"time"
)

type AttemptStatus string

const (
	StatusInProgress AttemptStatus = "InProgress"
	StatusPending    AttemptStatus = "Pending"
	StatusCompleted  AttemptStatus = "Completed"
	StatusAbandoned  AttemptStatus = "Abandoned"
)

// IsActive reports whether the status still counts toward the one active
// attempt per user and exam.
func (s AttemptStatus) IsActive() bool {
	return s == StatusInProgress || s == StatusPending
}

func (s AttemptStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusAbandoned
}

type Attempt struct {
	ID                   string        `bson:"_id" json:"id"`
	UserID               string        `bson:"user_id" json:"userId"`
	ExamID               string        `bson:"exam_id" json:"examId"`
	Status               AttemptStatus `bson:"status" json:"status"`
	Active               bool          `bson:"active" json:"-"`
	StartedAt            time.Time     `bson:"started_at" json:"startedAt"`
	CompletedAt          *time.Time    `bson:"completed_at" json:"completedAt"`
	TimeRemaining        *int          `bson:"time_remaining" json:"timeRemaining"`
	DurationMinutes      int           `bson:"duration_minutes" json:"durationMinutes"`
	SelectedSkills       string        `bson:"selected_skills" json:"-"`
	OverallScore         *float64      `bson:"overall_score" json:"overallScore"`
	ListeningScore       *float64      `bson:"listening_score" json:"listeningScore"`
	ReadingScore         *float64      `bson:"reading_score" json:"readingScore"`
	WritingScore         *float64      `bson:"writing_score" json:"writingScore"`
	SpeakingScore        *float64      `bson:"speaking_score" json:"speakingScore"`
	CorrectQuestionCount int           `bson:"correct_question_count" json:"correctQuestionCount"`
	TotalQuestionCount   int           `bson:"total_question_count" json:"totalQuestionCount"`
}

// Skills parses the canonical selected-skills string. Nil means full test.
func (a *Attempt) Skills() []SkillType {
	if strings.TrimSpace(a.SelectedSkills) == "" {
		return nil
	}
	var out []SkillType
	for _, part := range strings.Split(a.SelectedSkills, ",") {
		if s, ok := ParseSkill(part); ok {
			out = append(out, s)
		}
	}
	return out
}

func (a *Attempt) IsFullTest() bool {
	return len(a.Skills()) == 0
}

func (a *Attempt) IncludesSkill(skill SkillType) bool {
	skills := a.Skills()
	if len(skills) == 0 {
		return true
	}
	for _, s := range skills {
		if s == skill {
			return true
		}
	}
	return false
}

// SkillScore returns the stored band for a skill, nil when it was not scored.
func (a *Attempt) SkillScore(skill SkillType) *float64 {
	switch skill {
	case SkillListening:
		return a.ListeningScore
	case SkillReading:
		return a.ReadingScore
	case SkillWriting:
		return a.WritingScore
	case SkillSpeaking:
		return a.SpeakingScore
	}
	return nil
}

func (a *Attempt) SetSkillScore(skill SkillType, band float64) {
	v := band
	switch skill {
	case SkillListening:
		a.ListeningScore = &v
	case SkillReading:
		a.ReadingScore = &v
	case SkillWriting:
		a.WritingScore = &v
	case SkillSpeaking:
		a.SpeakingScore = &v
	}
}

// SetStatus keeps Active and CompletedAt consistent with the status.
func (a *Attempt) SetStatus(status AttemptStatus, now time.Time) {
	a.Status = status
	a.Active = status.IsActive()
	if status.IsTerminal() {
		t := now
		a.CompletedAt = &t
	} else {
		a.CompletedAt = nil
	}
}
