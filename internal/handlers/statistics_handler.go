package handlers

import (
	"fmt"
	"time"

	"github.com/sang1833/EnglishPractice-sub000/internal/middleware"
	"github.com/sang1833/EnglishPractice-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	Service *service.StatisticsService
}

func NewStatisticsHandler(s *service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{Service: s}
}

func (h *StatisticsHandler) Summary(c *gin.Context) {
	q, err := statisticsQuery(c)
	if err != nil {
		BadRequestResponse(c, "Invalid query", err)
		return
	}

	summary, err := h.Service.Summary(c.Request.Context(), middleware.UserID(c), q)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, "Statistics retrieved", summary)
}

func (h *StatisticsHandler) Chart(c *gin.Context) {
	q, err := statisticsQuery(c)
	if err != nil {
		BadRequestResponse(c, "Invalid query", err)
		return
	}

	points, err := h.Service.Chart(c.Request.Context(), middleware.UserID(c), q)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, "Chart retrieved", points)
}

func statisticsQuery(c *gin.Context) (service.StatisticsQuery, error) {
	q := service.StatisticsQuery{
		ExamType: c.Query("examType"),
		Skill:    c.Query("skill"),
		Period:   c.Query("period"),
	}

	var err error
	if q.From, err = parseTime(c.Query("from"), false); err != nil {
		return q, fmt.Errorf("from: %w", err)
	}
	if q.To, err = parseTime(c.Query("to"), true); err != nil {
		return q, fmt.Errorf("to: %w", err)
	}
	return q, nil
}

// parseTime accepts RFC 3339 or a bare date. A bare end date covers the whole
// day.
func parseTime(raw string, endOfDay bool) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected RFC 3339 or YYYY-MM-DD, got %q", raw)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
