package service

import (
	"context"

	"github.com/sang1833/EnglishPractice-sub000/internal/models"
	"github.com/sang1833/EnglishPractice-sub000/internal/repository"
)

type ExamRepository interface {
	FindByID(ctx context.Context, id string) (*models.Exam, error)
	FindIDsByType(ctx context.Context, examType string) ([]string, error)
}

type AttemptRepository interface {
	FindByID(ctx context.Context, id string) (*models.Attempt, error)
	FindActive(ctx context.Context, userID, examID string) (*models.Attempt, error)
	Create(ctx context.Context, attempt *models.Attempt) error
	Update(ctx context.Context, attempt *models.Attempt) error
	Delete(ctx context.Context, id string) error
	FindByUser(ctx context.Context, userID string, q repository.AttemptQuery) ([]models.Attempt, error)
}

type AnswerRepository interface {
	ReplaceForAttempt(ctx context.Context, attemptID string, answers []models.UserAnswer) error
	Append(ctx context.Context, attemptID string, answers []models.UserAnswer) error
	FindByAttempt(ctx context.Context, attemptID string) ([]models.UserAnswer, error)
	DeleteByAttempt(ctx context.Context, attemptID string) error
}

type ResultRepository interface {
	FindByAttempt(ctx context.Context, attemptID string) (*models.TestResult, error)
	Save(ctx context.Context, result *models.TestResult) error
	DeleteByAttempt(ctx context.Context, attemptID string) error
}

// Locker serializes work on a key across requests (and instances, when
// Redis-backed).
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

type EventPublisher interface {
	Publish(eventType string, payload interface{}) error
}
