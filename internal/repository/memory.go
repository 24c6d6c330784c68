package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/sang1833/EnglishPractice-sub000/internal/models"
)

// MemoryStore keeps every collection in process. It backs STORAGE_DRIVER=memory
// for local runs and the service tests, and mirrors the Mongo repositories'
// semantics including the one-active-attempt unique constraint.
type MemoryStore struct {
	mu       sync.RWMutex
	exams    map[string]models.Exam
	attempts map[string]models.Attempt
	answers  map[string][]models.UserAnswer
	results  map[string]models.TestResult
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		exams:    map[string]models.Exam{},
		attempts: map[string]models.Attempt{},
		answers:  map[string][]models.UserAnswer{},
		results:  map[string]models.TestResult{},
	}
}

// PutExam loads an exam into the store.
func (s *MemoryStore) PutExam(exam models.Exam) {
	exam.SortTree()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exams[exam.ID] = exam
}

func (s *MemoryStore) Exams() *MemoryExamRepository       { return &MemoryExamRepository{s} }
func (s *MemoryStore) Attempts() *MemoryAttemptRepository { return &MemoryAttemptRepository{s} }
func (s *MemoryStore) Answers() *MemoryAnswerRepository   { return &MemoryAnswerRepository{s} }
func (s *MemoryStore) Results() *MemoryResultRepository   { return &MemoryResultRepository{s} }

type MemoryExamRepository struct{ s *MemoryStore }

func (r *MemoryExamRepository) FindByID(_ context.Context, id string) (*models.Exam, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	exam, ok := r.s.exams[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &exam, nil
}

func (r *MemoryExamRepository) FindIDsByType(_ context.Context, examType string) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var ids []string
	for id, e := range r.s.exams {
		if e.ExamType == examType {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

type MemoryAttemptRepository struct{ s *MemoryStore }

func (r *MemoryAttemptRepository) FindByID(_ context.Context, id string) (*models.Attempt, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.attempts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (r *MemoryAttemptRepository) FindActive(_ context.Context, userID, examID string) (*models.Attempt, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, a := range r.s.attempts {
		if a.UserID == userID && a.ExamID == examID && a.Status.IsActive() {
			return &a, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryAttemptRepository) Create(_ context.Context, attempt *models.Attempt) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.attempts[attempt.ID]; ok {
		return ErrDuplicate
	}
	if attempt.Active {
		for _, a := range r.s.attempts {
			if a.Active && a.UserID == attempt.UserID && a.ExamID == attempt.ExamID {
				return ErrDuplicate
			}
		}
	}
	r.s.attempts[attempt.ID] = *attempt
	return nil
}

func (r *MemoryAttemptRepository) Update(_ context.Context, attempt *models.Attempt) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.attempts[attempt.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Status = attempt.Status
	stored.Active = attempt.Active
	stored.CompletedAt = attempt.CompletedAt
	stored.TimeRemaining = attempt.TimeRemaining
	stored.OverallScore = attempt.OverallScore
	stored.ListeningScore = attempt.ListeningScore
	stored.ReadingScore = attempt.ReadingScore
	stored.WritingScore = attempt.WritingScore
	stored.SpeakingScore = attempt.SpeakingScore
	stored.CorrectQuestionCount = attempt.CorrectQuestionCount
	stored.TotalQuestionCount = attempt.TotalQuestionCount
	r.s.attempts[attempt.ID] = stored
	return nil
}

func (r *MemoryAttemptRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.attempts, id)
	return nil
}

func (r *MemoryAttemptRepository) FindByUser(_ context.Context, userID string, q AttemptQuery) ([]models.Attempt, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []models.Attempt
	for _, a := range r.s.attempts {
		if a.UserID != userID {
			continue
		}
		if q.Status != "" && a.Status != q.Status {
			continue
		}
		if !q.From.IsZero() && (a.CompletedAt == nil || a.CompletedAt.Before(q.From)) {
			continue
		}
		if !q.To.IsZero() && (a.CompletedAt == nil || a.CompletedAt.After(q.To)) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}

type MemoryAnswerRepository struct{ s *MemoryStore }

func (r *MemoryAnswerRepository) ReplaceForAttempt(_ context.Context, attemptID string, answers []models.UserAnswer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.answers[attemptID] = nil
	r.appendLocked(attemptID, answers)
	return nil
}

func (r *MemoryAnswerRepository) Append(_ context.Context, attemptID string, answers []models.UserAnswer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.appendLocked(attemptID, answers)
	return nil
}

func (r *MemoryAnswerRepository) appendLocked(attemptID string, answers []models.UserAnswer) {
	offset := len(r.s.answers[attemptID])
	for i, a := range answers {
		a.AttemptID = attemptID
		a.Sequence = offset + i
		r.s.answers[attemptID] = append(r.s.answers[attemptID], a)
	}
}

func (r *MemoryAnswerRepository) FindByAttempt(_ context.Context, attemptID string) ([]models.UserAnswer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return append([]models.UserAnswer(nil), r.s.answers[attemptID]...), nil
}

func (r *MemoryAnswerRepository) DeleteByAttempt(_ context.Context, attemptID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.answers, attemptID)
	return nil
}

type MemoryResultRepository struct{ s *MemoryStore }

func (r *MemoryResultRepository) FindByAttempt(_ context.Context, attemptID string) (*models.TestResult, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	res, ok := r.s.results[attemptID]
	if !ok {
		return nil, ErrNotFound
	}
	return &res, nil
}

func (r *MemoryResultRepository) Save(_ context.Context, result *models.TestResult) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.results[result.AttemptID] = *result
	return nil
}

func (r *MemoryResultRepository) DeleteByAttempt(_ context.Context, attemptID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.results, attemptID)
	return nil
}
