package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sang1833/EnglishPractice-sub000/internal/models"
	"github.com/sang1833/EnglishPractice-sub000/internal/repository"
	"github.com/sang1833/EnglishPractice-sub000/internal/statistics"
)

// StatisticsQuery carries the raw filter values from the caller. Empty fields
// mean no restriction.
type StatisticsQuery struct {
	From     time.Time
	To       time.Time
	ExamType string
	Skill    string
	Period   string
}

type StatisticsService struct {
	ExamRepo    ExamRepository
	AttemptRepo AttemptRepository
	now         func() time.Time
}

func NewStatisticsService(examRepo ExamRepository, attemptRepo AttemptRepository) *StatisticsService {
	return &StatisticsService{
		ExamRepo:    examRepo,
		AttemptRepo: attemptRepo,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *StatisticsService) Summary(ctx context.Context, userID string, q StatisticsQuery) (*statistics.Summary, error) {
	filter, err := s.filter(ctx, q)
	if err != nil {
		return nil, err
	}
	attempts, err := s.completed(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	summary := statistics.Summarize(attempts, filter)
	return &summary, nil
}

// Chart defaults From to the period's look-back window when no explicit
// range start is given.
func (s *StatisticsService) Chart(ctx context.Context, userID string, q StatisticsQuery) ([]statistics.ChartPoint, error) {
	period, ok := statistics.ParsePeriod(strings.ToLower(strings.TrimSpace(q.Period)))
	if !ok {
		return nil, validation("unknown period: %s", q.Period)
	}

	filter, err := s.filter(ctx, q)
	if err != nil {
		return nil, err
	}
	if filter.From.IsZero() {
		filter.From = period.Window(s.now())
	}

	attempts, err := s.completed(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	return statistics.Chart(attempts, filter, period), nil
}

func (s *StatisticsService) filter(ctx context.Context, q StatisticsQuery) (statistics.Filter, error) {
	f := statistics.Filter{From: q.From, To: q.To}

	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return f, validation("from must not be after to")
	}

	if strings.TrimSpace(q.Skill) != "" {
		skill, ok := models.ParseSkill(q.Skill)
		if !ok {
			return f, validation("unknown skill: %s", q.Skill)
		}
		f.Skill = skill
	}

	if examType := strings.TrimSpace(q.ExamType); examType != "" {
		ids, err := s.ExamRepo.FindIDsByType(ctx, examType)
		if err != nil {
			return f, fmt.Errorf("find exams by type: %w", err)
		}
		f.ExamIDs = make(map[string]bool, len(ids))
		for _, id := range ids {
			f.ExamIDs[id] = true
		}
	}
	return f, nil
}

func (s *StatisticsService) completed(ctx context.Context, userID string, f statistics.Filter) ([]models.Attempt, error) {
	attempts, err := s.AttemptRepo.FindByUser(ctx, userID, repository.AttemptQuery{
		Status: models.StatusCompleted,
		From:   f.From,
		To:     f.To,
	})
	if err != nil {
		return nil, fmt.Errorf("load attempts: %w", err)
	}
	return attempts, nil
}
