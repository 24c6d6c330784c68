package handlers

import (
	"sync"
	"time"

	"github.com/sang1833/EnglishPractice-sub000/internal/models"
	"github.com/sang1833/EnglishPractice-sub000/internal/service"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type StartTestRequest struct {
	ExamID         string   `json:"examId" binding:"required"`
	ForceNew       bool     `json:"forceNew"`
	SelectedSkills []string `json:"selectedSkills" binding:"omitempty,dive,ielts_skill"`
}

type SubmitAnswerRequest struct {
	QuestionID      string `json:"questionId" binding:"required"`
	TextContent     string `json:"textContent,omitempty"`
	SelectedOptions string `json:"selectedOptions,omitempty"`
	AudioURL        string `json:"audioUrl,omitempty"`
}

type PauseTestRequest struct {
	Answers       []SubmitAnswerRequest `json:"answers" binding:"dive"`
	TimeRemaining *int                  `json:"timeRemaining"`
}

type SubmitTestRequest struct {
	Answers []SubmitAnswerRequest `json:"answers" binding:"dive"`
}

// AttemptDto exposes the selected skills as a list. Empty means full test.
type AttemptDto struct {
	ID                   string               `json:"id"`
	UserID               string               `json:"userId"`
	ExamID               string               `json:"examId"`
	Status               models.AttemptStatus `json:"status"`
	StartedAt            time.Time            `json:"startedAt"`
	CompletedAt          *time.Time           `json:"completedAt"`
	TimeRemaining        *int                 `json:"timeRemaining"`
	DurationMinutes      int                  `json:"durationMinutes"`
	SelectedSkills       []string             `json:"selectedSkills"`
	IsFullTest           bool                 `json:"isFullTest"`
	OverallScore         *float64             `json:"overallScore"`
	ListeningScore       *float64             `json:"listeningScore"`
	ReadingScore         *float64             `json:"readingScore"`
	WritingScore         *float64             `json:"writingScore"`
	SpeakingScore        *float64             `json:"speakingScore"`
	CorrectQuestionCount int                  `json:"correctQuestionCount"`
	TotalQuestionCount   int                  `json:"totalQuestionCount"`
}

func toAttemptDto(a *models.Attempt) AttemptDto {
	skills := []string{}
	for _, s := range a.Skills() {
		skills = append(skills, string(s))
	}
	return AttemptDto{
		ID:                   a.ID,
		UserID:               a.UserID,
		ExamID:               a.ExamID,
		Status:               a.Status,
		StartedAt:            a.StartedAt,
		CompletedAt:          a.CompletedAt,
		TimeRemaining:        a.TimeRemaining,
		DurationMinutes:      a.DurationMinutes,
		SelectedSkills:       skills,
		IsFullTest:           len(skills) == 0,
		OverallScore:         a.OverallScore,
		ListeningScore:       a.ListeningScore,
		ReadingScore:         a.ReadingScore,
		WritingScore:         a.WritingScore,
		SpeakingScore:        a.SpeakingScore,
		CorrectQuestionCount: a.CorrectQuestionCount,
		TotalQuestionCount:   a.TotalQuestionCount,
	}
}

func toAnswerInputs(in []SubmitAnswerRequest) []service.AnswerInput {
	out := make([]service.AnswerInput, len(in))
	for i, a := range in {
		out[i] = service.AnswerInput{
			QuestionID:      a.QuestionID,
			TextContent:     a.TextContent,
			SelectedOptions: a.SelectedOptions,
			AudioURL:        a.AudioURL,
		}
	}
	return out
}

var registerOnce sync.Once

// RegisterValidators installs the custom binding tags on gin's validator.
func RegisterValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("ielts_skill", func(fl validator.FieldLevel) bool {
				_, ok := models.ParseSkill(fl.Field().String())
				return ok
			})
		}
	})
}
