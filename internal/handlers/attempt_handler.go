package handlers

import (
	"github.com/sang1833/EnglishPractice-sub000/internal/middleware"
	"github.com/sang1833/EnglishPractice-sub000/internal/models"
	"github.com/sang1833/EnglishPractice-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

type AttemptHandler struct {
	Service *service.AttemptService
}

func NewAttemptHandler(s *service.AttemptService) *AttemptHandler {
	RegisterValidators()
	return &AttemptHandler{Service: s}
}

// StartTest creates, resumes or restarts the caller's attempt on an exam.
func (h *AttemptHandler) StartTest(c *gin.Context) {
	var req StartTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestResponse(c, "Invalid request format", err)
		return
	}

	attempt, err := h.Service.Start(c.Request.Context(), middleware.UserID(c), service.StartInput{
		ExamID:         req.ExamID,
		SelectedSkills: req.SelectedSkills,
		ForceNew:       req.ForceNew,
	})
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, "Attempt started", toAttemptDto(attempt))
}

func (h *AttemptHandler) PauseTest(c *gin.Context) {
	var req PauseTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestResponse(c, "Invalid request format", err)
		return
	}

	err := h.Service.Pause(c.Request.Context(), middleware.UserID(c), c.Param("id"), toAnswerInputs(req.Answers), req.TimeRemaining)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, "Attempt paused", nil)
}

func (h *AttemptHandler) SubmitTest(c *gin.Context) {
	var req SubmitTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestResponse(c, "Invalid request format", err)
		return
	}

	result, err := h.Service.Submit(c.Request.Context(), middleware.UserID(c), c.Param("id"), toAnswerInputs(req.Answers))
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, "Attempt submitted", result)
}

func (h *AttemptHandler) AbandonTest(c *gin.Context) {
	if err := h.Service.Abandon(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, "Attempt abandoned", nil)
}

func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	attempt, err := h.Service.GetAttempt(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, "Attempt retrieved", toAttemptDto(attempt))
}

// ListAttempts supports an optional ?status= filter.
func (h *AttemptHandler) ListAttempts(c *gin.Context) {
	status := models.AttemptStatus(c.Query("status"))
	if status != "" && !status.IsActive() && !status.IsTerminal() {
		BadRequestResponse(c, "Unknown status: "+string(status), nil)
		return
	}

	attempts, err := h.Service.ListAttempts(c.Request.Context(), middleware.UserID(c), status)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	out := make([]AttemptDto, len(attempts))
	for i := range attempts {
		out[i] = toAttemptDto(&attempts[i])
	}
	SuccessResponse(c, "Attempts retrieved", out)
}

func (h *AttemptHandler) GetAttemptExam(c *gin.Context) {
	exam, err := h.Service.GetAttemptExam(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, "Exam retrieved", exam)
}

func (h *AttemptHandler) GetAttemptAnswers(c *gin.Context) {
	answers, err := h.Service.GetAttemptAnswers(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	if answers == nil {
		answers = []models.UserAnswer{}
	}
	SuccessResponse(c, "Answers retrieved", answers)
}

func (h *AttemptHandler) GetResult(c *gin.Context) {
	result, err := h.Service.GetResult(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, "Result retrieved", result)
}
