package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sang1833/EnglishPractice-sub000/internal/event"
	"github.com/sang1833/EnglishPractice-sub000/internal/lock"
	"github.com/sang1833/EnglishPractice-sub000/internal/metrics"
	"github.com/sang1833/EnglishPractice-sub000/internal/models"
	"github.com/sang1833/EnglishPractice-sub000/internal/practice"
	"github.com/sang1833/EnglishPractice-sub000/internal/repository"
	"github.com/sang1833/EnglishPractice-sub000/internal/scoring"

	"github.com/google/uuid"
)

type StartInput struct {
	ExamID         string
	SelectedSkills []string
	ForceNew       bool
}

type AnswerInput struct {
	QuestionID      string
	TextContent     string
	SelectedOptions string
	AudioURL        string
}

type AttemptService struct {
	ExamRepo    ExamRepository
	AttemptRepo AttemptRepository
	AnswerRepo  AnswerRepository
	ResultRepo  ResultRepository
	locker      Locker
	engine      *scoring.Engine
	publisher   EventPublisher
	now         func() time.Time
}

func NewAttemptService(
	examRepo ExamRepository,
	attemptRepo AttemptRepository,
	answerRepo AnswerRepository,
	resultRepo ResultRepository,
	locker Locker,
	publisher EventPublisher,
) *AttemptService {
	return &AttemptService{
		ExamRepo:    examRepo,
		AttemptRepo: attemptRepo,
		AnswerRepo:  answerRepo,
		ResultRepo:  resultRepo,
		locker:      locker,
		engine:      scoring.NewEngine(nil),
		publisher:   publisher,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Start returns the user's active attempt on the exam, resuming it if
// paused, or creates a new one. ForceNew discards any active attempt first.
func (s *AttemptService) Start(ctx context.Context, userID string, in StartInput) (*models.Attempt, error) {
	exam, err := s.ExamRepo.FindByID(ctx, in.ExamID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("exam %s not found", in.ExamID)
	}
	if err != nil {
		return nil, fmt.Errorf("load exam: %w", err)
	}

	// A rejected selection must not touch an attempt that ForceNew would discard.
	sel, selErr := practice.Select(exam, in.SelectedSkills)
	var skillErr *practice.SkillError
	if errors.As(selErr, &skillErr) {
		selErr = validation("%s", skillErr.Error())
	}

	unlock, err := s.locker.Lock(ctx, lock.AttemptKey(userID, exam.ID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	existing, err := s.AttemptRepo.FindActive(ctx, userID, exam.ID)
	switch {
	case err == nil && !in.ForceNew:
		return s.resume(ctx, existing)
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("find active attempt: %w", err)
	}
	if selErr != nil {
		return nil, selErr
	}
	if err == nil {
		if err := s.discard(ctx, existing); err != nil {
			return nil, err
		}
	}

	now := s.now()
	remaining := sel.DurationMinutes * 60
	attempt := &models.Attempt{
		ID:              uuid.NewString(),
		UserID:          userID,
		ExamID:          exam.ID,
		StartedAt:       now,
		TimeRemaining:   &remaining,
		DurationMinutes: sel.DurationMinutes,
		SelectedSkills:  sel.Canonical(),
	}
	attempt.SetStatus(models.StatusInProgress, now)

	if err := s.AttemptRepo.Create(ctx, attempt); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Another instance won the race without sharing our lock.
			winner, findErr := s.AttemptRepo.FindActive(ctx, userID, exam.ID)
			if findErr != nil {
				return nil, fmt.Errorf("find active attempt: %w", findErr)
			}
			return winner, nil
		}
		return nil, fmt.Errorf("create attempt: %w", err)
	}

	log.Printf("[AttemptService] Started attempt %s for user %s on exam %s (skills=%q, duration=%dm)",
		attempt.ID, userID, exam.ID, attempt.SelectedSkills, attempt.DurationMinutes)
	metrics.RecordTransition("started")
	s.publish(event.AttemptStarted, attempt)
	return attempt, nil
}

func (s *AttemptService) resume(ctx context.Context, attempt *models.Attempt) (*models.Attempt, error) {
	if attempt.Status == models.StatusInProgress {
		return attempt, nil
	}

	attempt.SetStatus(models.StatusInProgress, s.now())
	if err := s.AttemptRepo.Update(ctx, attempt); err != nil {
		return nil, fmt.Errorf("resume attempt: %w", err)
	}

	log.Printf("[AttemptService] Resumed attempt %s", attempt.ID)
	metrics.RecordTransition("resumed")
	s.publish(event.AttemptResumed, attempt)
	return attempt, nil
}

func (s *AttemptService) discard(ctx context.Context, attempt *models.Attempt) error {
	if err := s.AnswerRepo.DeleteByAttempt(ctx, attempt.ID); err != nil {
		return fmt.Errorf("delete answers: %w", err)
	}
	if err := s.AttemptRepo.Delete(ctx, attempt.ID); err != nil {
		return fmt.Errorf("delete attempt: %w", err)
	}
	log.Printf("[AttemptService] Discarded %s attempt %s for a fresh start", attempt.Status, attempt.ID)
	metrics.RecordTransition("restarted")
	return nil
}

// Pause replaces the stored answer set with answers and parks the attempt.
// A nil timeRemaining keeps the stored value.
func (s *AttemptService) Pause(ctx context.Context, userID, attemptID string, answers []AnswerInput, timeRemaining *int) error {
	return s.withAttempt(ctx, userID, attemptID, func(attempt *models.Attempt) error {
		if attempt.Status != models.StatusInProgress {
			return invalidState("attempt is not active")
		}

		now := s.now()
		if err := s.AnswerRepo.ReplaceForAttempt(ctx, attempt.ID, toUserAnswers(attempt.ID, answers, now)); err != nil {
			return fmt.Errorf("replace answers: %w", err)
		}

		if timeRemaining != nil {
			v := *timeRemaining
			if v < 0 {
				v = 0
			}
			attempt.TimeRemaining = &v
		}
		attempt.SetStatus(models.StatusPending, now)
		if err := s.AttemptRepo.Update(ctx, attempt); err != nil {
			return fmt.Errorf("pause attempt: %w", err)
		}

		log.Printf("[AttemptService] Paused attempt %s with %d answers", attempt.ID, len(answers))
		metrics.RecordTransition("paused")
		s.publish(event.AttemptPaused, attempt)
		return nil
	})
}

// Submit appends answers, scores the attempt and freezes the result. The
// attempt flips to Completed in the last write, so a failed Submit leaves it
// InProgress and can be retried.
func (s *AttemptService) Submit(ctx context.Context, userID, attemptID string, answers []AnswerInput) (*models.TestResult, error) {
	var result *models.TestResult
	err := s.withAttempt(ctx, userID, attemptID, func(attempt *models.Attempt) error {
		if attempt.Status != models.StatusInProgress {
			return invalidState("attempt no longer active")
		}

		exam, err := s.ExamRepo.FindByID(ctx, attempt.ExamID)
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("exam %s not found", attempt.ExamID)
		}
		if err != nil {
			return fmt.Errorf("load exam: %w", err)
		}

		prior, err := s.AnswerRepo.FindByAttempt(ctx, attempt.ID)
		if err != nil {
			return fmt.Errorf("load answers: %w", err)
		}

		now := s.now()
		submitted := toUserAnswers(attempt.ID, answers, now)
		all := make([]models.UserAnswer, 0, len(prior)+len(submitted))
		all = append(append(all, prior...), submitted...)

		done := *attempt
		done.SetStatus(models.StatusCompleted, now)

		began := time.Now()
		score := s.engine.CalculateTestScore(&done, all, exam.Questions())
		metrics.ObserveScoring(time.Since(began))

		overall := score.OverallBandScore
		done.OverallScore = &overall
		for _, sr := range score.SkillResults {
			done.SetSkillScore(sr.Skill, sr.BandScore)
		}
		done.CorrectQuestionCount = score.TotalCorrect
		done.TotalQuestionCount = score.TotalQuestions

		res := &models.TestResult{
			ID:               resultID(attempt.ID),
			AttemptID:        attempt.ID,
			UserID:           attempt.UserID,
			ExamID:           attempt.ExamID,
			OverallBandScore: score.OverallBandScore,
			TotalCorrect:     score.TotalCorrect,
			TotalQuestions:   score.TotalQuestions,
			PercentageScore:  score.PercentageScore,
			TimeTaken:        int(now.Sub(attempt.StartedAt).Seconds()),
			SkillResults:     score.SkillResults,
			QuestionResults:  score.QuestionResults,
			CreatedAt:        now,
		}
		if err := s.ResultRepo.Save(ctx, res); err != nil {
			return fmt.Errorf("save result: %w", err)
		}
		if err := s.AnswerRepo.Append(ctx, attempt.ID, submitted); err != nil {
			s.rollbackSubmit(ctx, attempt.ID, prior)
			return fmt.Errorf("append answers: %w", err)
		}
		if err := s.AttemptRepo.Update(ctx, &done); err != nil {
			s.rollbackSubmit(ctx, attempt.ID, prior)
			return fmt.Errorf("complete attempt: %w", err)
		}
		result = res

		log.Printf("[AttemptService] Submitted attempt %s: band %.1f, %d/%d correct",
			done.ID, res.OverallBandScore, res.TotalCorrect, res.TotalQuestions)
		metrics.RecordTransition("submitted")
		metrics.ObserveResult(res)
		s.publish(event.AttemptSubmitted, &done)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// rollbackSubmit puts the answer set back to what it was before a failed
// Submit and drops the result written for it. Failures are only logged.
func (s *AttemptService) rollbackSubmit(ctx context.Context, attemptID string, prior []models.UserAnswer) {
	if err := s.AnswerRepo.ReplaceForAttempt(ctx, attemptID, prior); err != nil {
		log.Printf("[AttemptService] Failed to restore answers for attempt %s: %v", attemptID, err)
	}
	if err := s.ResultRepo.DeleteByAttempt(ctx, attemptID); err != nil {
		log.Printf("[AttemptService] Failed to drop result for attempt %s: %v", attemptID, err)
	}
}

// resultID is stable per attempt so a retried Submit overwrites its own
// result document.
func resultID(attemptID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("result:"+attemptID)).String()
}

func (s *AttemptService) Abandon(ctx context.Context, userID, attemptID string) error {
	return s.withAttempt(ctx, userID, attemptID, func(attempt *models.Attempt) error {
		if attempt.Status != models.StatusInProgress {
			return invalidState("attempt is not active")
		}

		attempt.SetStatus(models.StatusAbandoned, s.now())
		if err := s.AttemptRepo.Update(ctx, attempt); err != nil {
			return fmt.Errorf("abandon attempt: %w", err)
		}

		log.Printf("[AttemptService] Abandoned attempt %s", attempt.ID)
		metrics.RecordTransition("abandoned")
		s.publish(event.AttemptAbandoned, attempt)
		return nil
	})
}

func (s *AttemptService) GetAttempt(ctx context.Context, userID, attemptID string) (*models.Attempt, error) {
	return s.owned(ctx, userID, attemptID)
}

// GetAttemptAnswers returns the stored answers in save order.
func (s *AttemptService) GetAttemptAnswers(ctx context.Context, userID, attemptID string) ([]models.UserAnswer, error) {
	attempt, err := s.owned(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	return s.AnswerRepo.FindByAttempt(ctx, attempt.ID)
}

// GetAttemptExam returns the exam as the test taker should see it: only the
// selected skills and no correct answers.
func (s *AttemptService) GetAttemptExam(ctx context.Context, userID, attemptID string) (*models.Exam, error) {
	attempt, err := s.owned(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	exam, err := s.ExamRepo.FindByID(ctx, attempt.ExamID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("exam %s not found", attempt.ExamID)
	}
	if err != nil {
		return nil, err
	}
	return exam.Prune(attempt.Skills()).WithoutAnswers(), nil
}

func (s *AttemptService) GetResult(ctx context.Context, userID, attemptID string) (*models.TestResult, error) {
	attempt, err := s.owned(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != models.StatusCompleted {
		return nil, notFound("attempt %s has no result", attemptID)
	}
	result, err := s.ResultRepo.FindByAttempt(ctx, attempt.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("attempt %s has no result", attemptID)
	}
	return result, err
}

// ListAttempts returns the user's attempts, newest first. An empty status
// lists every attempt.
func (s *AttemptService) ListAttempts(ctx context.Context, userID string, status models.AttemptStatus) ([]models.Attempt, error) {
	return s.AttemptRepo.FindByUser(ctx, userID, repository.AttemptQuery{Status: status})
}

// owned loads an attempt, hiding attempts that belong to someone else.
func (s *AttemptService) owned(ctx context.Context, userID, attemptID string) (*models.Attempt, error) {
	attempt, err := s.AttemptRepo.FindByID(ctx, attemptID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && attempt.UserID != userID) {
		return nil, notFound("attempt %s not found", attemptID)
	}
	if err != nil {
		return nil, fmt.Errorf("load attempt: %w", err)
	}
	return attempt, nil
}

// withAttempt runs fn under the (user, exam) lock against a fresh read of the
// attempt.
func (s *AttemptService) withAttempt(ctx context.Context, userID, attemptID string, fn func(*models.Attempt) error) error {
	attempt, err := s.owned(ctx, userID, attemptID)
	if err != nil {
		return err
	}

	unlock, err := s.locker.Lock(ctx, lock.AttemptKey(userID, attempt.ExamID))
	if err != nil {
		return err
	}
	defer unlock()

	attempt, err = s.owned(ctx, userID, attemptID)
	if err != nil {
		return err
	}
	return fn(attempt)
}

func (s *AttemptService) publish(eventType string, attempt *models.Attempt) {
	if s.publisher == nil {
		return
	}

	payload := event.AttemptEvent{
		AttemptID:     attempt.ID,
		UserID:        attempt.UserID,
		ExamID:        attempt.ExamID,
		Status:        string(attempt.Status),
		TimeRemaining: attempt.TimeRemaining,
		OverallScore:  attempt.OverallScore,
	}
	for _, sk := range attempt.Skills() {
		payload.SelectedSkills = append(payload.SelectedSkills, string(sk))
	}

	if err := s.publisher.Publish(eventType, payload); err != nil {
		log.Printf("[AttemptService] Failed to publish %s for attempt %s: %v", eventType, attempt.ID, err)
	}
}

func toUserAnswers(attemptID string, in []AnswerInput, now time.Time) []models.UserAnswer {
	out := make([]models.UserAnswer, 0, len(in))
	for _, a := range in {
		out = append(out, models.UserAnswer{
			ID:              uuid.NewString(),
			AttemptID:       attemptID,
			QuestionID:      a.QuestionID,
			TextContent:     a.TextContent,
			SelectedOptions: a.SelectedOptions,
			AudioURL:        a.AudioURL,
			SavedAt:         now,
		})
	}
	return out
}
