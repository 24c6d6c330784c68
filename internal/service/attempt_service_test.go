package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sang1833/EnglishPractice-sub000/internal/event"
	"github.com/sang1833/EnglishPractice-sub000/internal/lock"
	"github.com/sang1833/EnglishPractice-sub000/internal/models"
	"github.com/sang1833/EnglishPractice-sub000/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(eventType string, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
	return nil
}

var start = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

// testExam has Reading (r1=A, r2=C, 60 minutes) and Listening (l1=B, 30
// minutes).
func testExam() models.Exam {
	return models.Exam{
		ID:              "exam-1",
		Title:           "Academic Test 1",
		ExamType:        "Academic",
		DurationMinutes: 160,
		Skills: []models.Skill{
			{
				Type: models.SkillListening, OrderIndex: 1, DurationMinutes: 30,
				Sections: []models.Section{{Groups: []models.QuestionGroup{{
					QuestionType: models.QuestionMultipleChoice,
					Questions:    []models.Question{{ID: "l1", CorrectAnswer: "B", Points: 1}},
				}}}},
			},
			{
				Type: models.SkillReading, OrderIndex: 2, DurationMinutes: 60,
				Sections: []models.Section{{Groups: []models.QuestionGroup{{
					QuestionType: models.QuestionMultipleChoice,
					Questions: []models.Question{
						{ID: "r1", CorrectAnswer: "A", Points: 1},
						{ID: "r2", CorrectAnswer: "C", Points: 1},
					},
				}}}},
			},
		},
	}
}

type fixture struct {
	store     *repository.MemoryStore
	svc       *AttemptService
	publisher *recordingPublisher
	clock     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	store.PutExam(testExam())

	f := &fixture{store: store, publisher: &recordingPublisher{}, clock: start}
	f.svc = NewAttemptService(store.Exams(), store.Attempts(), store.Answers(), store.Results(), lock.NewMemoryLocker(), f.publisher)
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.clock = f.clock.Add(d)
}

func (f *fixture) answers(t *testing.T, attemptID string) []models.UserAnswer {
	t.Helper()
	out, err := f.store.Answers().FindByAttempt(context.Background(), attemptID)
	require.NoError(t, err)
	return out
}

func intPtr(v int) *int { return &v }

func TestStart_CreatesFullTest(t *testing.T) {
	f := newFixture(t)

	attempt, err := f.svc.Start(context.Background(), "u1", StartInput{ExamID: "exam-1"})
	require.NoError(t, err)

	assert.NotEmpty(t, attempt.ID)
	assert.Equal(t, models.StatusInProgress, attempt.Status)
	assert.True(t, attempt.IsFullTest())
	assert.Equal(t, 160, attempt.DurationMinutes)
	require.NotNil(t, attempt.TimeRemaining)
	assert.Equal(t, 160*60, *attempt.TimeRemaining)
	assert.Nil(t, attempt.CompletedAt)
	assert.Equal(t, start, attempt.StartedAt)
	assert.Equal(t, []string{event.AttemptStarted}, f.publisher.events)
}

func TestStart_PracticeModeSumsSkillDurations(t *testing.T) {
	f := newFixture(t)

	attempt, err := f.svc.Start(context.Background(), "u1", StartInput{
		ExamID:         "exam-1",
		SelectedSkills: []string{"Reading", "listening"},
	})
	require.NoError(t, err)

	assert.Equal(t, 90, attempt.DurationMinutes)
	assert.Equal(t, 90*60, *attempt.TimeRemaining)
	assert.Equal(t, []models.SkillType{models.SkillReading, models.SkillListening}, attempt.Skills())
}

func TestStart_RejectsUnavailableSkill(t *testing.T) {
	f := newFixture(t)

	for _, skills := range [][]string{{"Writing"}, {"Reading", "Cooking"}} {
		_, err := f.svc.Start(context.Background(), "u1", StartInput{ExamID: "exam-1", SelectedSkills: skills})
		assert.ErrorIs(t, err, ErrValidation, "skills %v", skills)
	}

	list, err := f.svc.ListAttempts(context.Background(), "u1", "")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStart_UnknownExam(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Start(context.Background(), "u1", StartInput{ExamID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestStart_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Start(ctx, "u1", StartInput{ExamID: "exam-1"})
	require.NoError(t, err)
	second, err := f.svc.Start(ctx, "u1", StartInput{ExamID: "exam-1", SelectedSkills: []string{"Reading"}})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.IsFullTest())
}

func TestStart_ForceNewReplacesActiveAttempt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Start(ctx, "u1", StartInput{ExamID: "exam-1"})
	require.NoError(t, err)
	require.NoError(t, f.svc.Pause(ctx, "u1", first.ID, []AnswerInput{{QuestionID: "r1", TextContent: "A"}}, intPtr(100)))

	second, err := f.svc.Start(ctx, "u1", StartInput{ExamID: "exam-1", ForceNew: true})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, models.StatusInProgress, second.Status)

	_, err = f.svc.GetAttempt(ctx, "u1", first.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, f.answers(t, first.ID))
}

func TestStart_RejectedForceNewKeepsActiveAttempt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Start(ctx, "u1", StartInput{ExamID: "exam-1"})
	require.NoError(t, err)
	require.NoError(t, f.svc.Pause(ctx, "u1", first.ID, []AnswerInput{{QuestionID: "r1", TextContent: "A"}}, intPtr(100)))

	_, err = f.svc.Start(ctx, "u1", StartInput{ExamID: "exam-1", SelectedSkills: []string{"Speaking"}, ForceNew: true})
	assert.ErrorIs(t, err, ErrValidation)

	kept, err := f.svc.GetAttempt(ctx, "u1", first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, kept.Status)
	assert.Len(t, f.answers(t, first.ID), 1)

	// Without ForceNew the active attempt is resumed as-is.
	resumed, err := f.svc.Start(ctx, "u1", StartInput{ExamID: "exam-1", SelectedSkills: []string{"Speaking"}})
	require.NoError(t, err)
	assert.Equal(t, first.ID, resumed.ID)
}

func TestStart_ResumesPausedAttempt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	attempt, err := f.svc.Start(ctx, "u1", StartInput{ExamID: "exam-1", SelectedSkills: []string{"Reading"}})
	require.NoError(t, err)
	require.NoError(t, f.svc.Pause(ctx, "u1", attempt.ID, nil, intPtr(1200)))

	f.advance(time.Hour)
	resumed, err := f.svc.Start(ctx, "u1", StartInput{ExamID: "exam-1"})
	require.NoError(t, err)

	assert.Equal(t, attempt.ID, resumed.ID)
	assert.Equal(t, models.StatusInProgress, resumed.Status)
	assert.Equal(t, 1200, *resumed.TimeRemaining)
	assert.Equal(t, 60, resumed.DurationMinutes)
	assert.Equal(t, start, resumed.StartedAt)
	assert.Nil(t, resumed.CompletedAt)
	assert.Equal(t, []string{event.AttemptStarted, event.AttemptPaused, event.AttemptResumed}, f.publisher.events)
}

func TestStart_AfterCompletionCreatesNewAttempt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Start(ctx, "u1", StartInput{ExamID: "exam-1"})
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, "u1", first.ID, nil)
	require.NoError(t, err)

	second, err := f.svc.Start(ctx, "u1", StartInput{ExamID: "exam-1"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestStart_ConcurrentCallsShareOneAttempt(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := f.svc.Start(context.Background(), "u1", StartInput{ExamID: "exam-1"})
			if assert.NoError(t, err) {
				ids[i] = a.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids[1:] {
		assert.Equal(t, ids[0], id)
	}
}

func TestPause_ReplacesAnswers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	attempt, err := f.svc.Start(ctx, "u1", StartInput{ExamID: "exam-1"})
	require.NoError(t, err)
	require.NoError(t, f.svc.Pause(ctx, "u1", attempt.ID, []AnswerInput{
		{QuestionID: "r1", TextContent: "B"},
		{QuestionID: "r2", TextContent: "D"},
		{QuestionID: "l1", TextContent: "A"},
	}, intPtr(3000)))
	_, err = f.svc.Start(ctx, "u1", StartInput{ExamID: "exam-1"})
	require.NoError(t, err)

	err = f.svc.Pause(ctx, "u1", attempt.ID, []AnswerInput{
		{QuestionID: "r1", TextContent: "A"},
		{QuestionID: "l1", SelectedOptions: "B"},
	}, intPtr(1500))
	require.NoError(t, err)

	got, err := f.svc.GetAttempt(ctx, "u1", attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Equal(t, 1500, *got.TimeRemaining)
	assert.Nil(t, got.CompletedAt)

	answers := f.answers(t, attempt.ID)
	require.Len(t, answers, 2)
	assert.Equal(t, "r1", answers[0].QuestionID)
	assert.Equal(t, "A", answers[0].TextContent)
	assert.Equal(t, "B", answers[1].SelectedOptions)
	assert.Equal(t, start, answers[0].SavedAt)
}

func TestPause_TimeRemaining(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	attempt, err := f.svc.Start(ctx, "u1", StartInput{ExamID: "exam-1"})
	require.NoError(t, err)
	require.NoError(t, f.svc.Pause(ctx, "u1", attempt.ID, nil, nil))

	got, err := f.svc.GetAttempt(ctx, "u1", attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, 160*60, *got.TimeRemaining)

	_, err = f.svc.Start(ctx, "u1", StartInput{ExamID: "exam-1"})
	require.NoError(t, err)
	require.NoError(t, f.svc.Pause(ctx, "u1", attempt.ID, nil, intPtr(-5)))

	got, err = f.svc.GetAttempt(ctx, "u1", attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, *got.TimeRemaining)
}

func TestTransitions_RequireInProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	paused, err := f.svc.Start(ctx, "u1", StartInput{ExamID: "exam-1"})
	require.NoError(t, err)
	require.NoError(t, f.svc.Pause(ctx, "u1", paused.ID, nil, nil))

	assert.ErrorIs(t, f.svc.Pause(ctx, "u1", paused.ID, nil, nil), ErrInvalidState)
	_, err = f.svc.Submit(ctx, "u1", paused.ID, nil)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.ErrorIs(t, f.svc.Abandon(ctx, "u1", paused.ID), ErrInvalidState)

	done, err := f.svc.Start(ctx, "u1", StartInput{ExamID: "exam-1", ForceNew: true})
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, "u1", done.ID, nil)
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, "u1", done.ID, nil)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.EqualError(t, err, "attempt no longer active")
	assert.ErrorIs(t, f.svc.Pause(ctx, "u1", done.ID, nil, nil), ErrInvalidState)
	assert.ErrorIs(t, f.svc.Abandon(ctx, "u1", done.ID), ErrInvalidState)
}

func TestSubmit_ScoresSelectedSkillsOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	attempt, err := f.svc.Start(ctx, "u1", StartInput{ExamID: "exam-1", SelectedSkills: []string{"Reading"}})
	require.NoError(t, err)

	f.advance(45 * time.Minute)
	result, err := f.svc.Submit(ctx, "u1", attempt.ID, []AnswerInput{
		{QuestionID: "r1", TextContent: "a"},
		{QuestionID: "r2", TextContent: "B"},
		{QuestionID: "l1", TextContent: "B"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.TotalCorrect)
	assert.Equal(t, 2, result.TotalQuestions)
	assert.Equal(t, 50.0, result.PercentageScore)
	assert.Equal(t, 5.5, result.OverallBandScore)
	assert.Equal(t, 45*60, result.TimeTaken)
	require.Len(t, result.SkillResults, 1)
	assert.Equal(t, models.SkillReading, result.SkillResults[0].Skill)
	assert.Len(t, result.QuestionResults, 2)

	got, err := f.svc.GetAttempt(ctx, "u1", attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, start.Add(45*time.Minute), *got.CompletedAt)
	require.NotNil(t, got.OverallScore)
	assert.Equal(t, 5.5, *got.OverallScore)
	require.NotNil(t, got.ReadingScore)
	assert.Equal(t, 5.5, *got.ReadingScore)
	assert.Nil(t, got.ListeningScore)
	assert.Equal(t, 1, got.CorrectQuestionCount)
	assert.Equal(t, 2, got.TotalQuestionCount)

	stored, err := f.svc.GetResult(ctx, "u1", attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, result.ID, stored.ID)
}

func TestSubmit_AppendsToPausedAnswers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	attempt, err := f.svc.Start(ctx, "u1", StartInput{ExamID: "exam-1"})
	require.NoError(t, err)
	require.NoError(t, f.svc.Pause(ctx, "u1", attempt.ID, []AnswerInput{
		{QuestionID: "r1", TextContent: "A"},
		{QuestionID: "l1", TextContent: "C"},
	}, intPtr(600)))
	_, err = f.svc.Start(ctx, "u1", StartInput{ExamID: "exam-1"})
	require.NoError(t, err)

	result, err := f.svc.Submit(ctx, "u1", attempt.ID, []AnswerInput{
		{QuestionID: "r2", TextContent: "C"},
		{QuestionID: "l1", TextContent: "B"},
	})
	require.NoError(t, err)

	assert.Len(t, f.answers(t, attempt.ID), 4)
	// l1 answered twice: the later answer counts.
	assert.Equal(t, 3, result.TotalCorrect)
	assert.Equal(t, 3, result.TotalQuestions)
	assert.Equal(t, 9.0, result.OverallBandScore)
}

type failingResults struct {
	ResultRepository
	err error
}

func (r *failingResults) Save(context.Context, *models.TestResult) error { return r.err }

// failingCompletion rejects the write that marks an attempt Completed.
type failingCompletion struct {
	AttemptRepository
}

func (r failingCompletion) Update(ctx context.Context, attempt *models.Attempt) error {
	if attempt.Status == models.StatusCompleted {
		return errors.New("write conflict")
	}
	return r.AttemptRepository.Update(ctx, attempt)
}

// pausedWithAnswer leaves an InProgress attempt holding one saved answer.
func pausedWithAnswer(t *testing.T, f *fixture) *models.Attempt {
	t.Helper()
	ctx := context.Background()
	attempt, err := f.svc.Start(ctx, "u1", StartInput{ExamID: "exam-1"})
	require.NoError(t, err)
	require.NoError(t, f.svc.Pause(ctx, "u1", attempt.ID, []AnswerInput{{QuestionID: "r1", TextContent: "A"}}, nil))
	_, err = f.svc.Start(ctx, "u1", StartInput{ExamID: "exam-1"})
	require.NoError(t, err)
	return attempt
}

func TestSubmit_FailedResultWriteCanBeRetried(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	attempt := pausedWithAnswer(t, f)
	answers := []AnswerInput{{QuestionID: "r2", TextContent: "C"}}

	f.svc.ResultRepo = &failingResults{ResultRepository: f.store.Results(), err: errors.New("disk full")}
	_, err := f.svc.Submit(ctx, "u1", attempt.ID, answers)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	got, err := f.svc.GetAttempt(ctx, "u1", attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, got.Status)
	assert.Nil(t, got.OverallScore)
	assert.Nil(t, got.CompletedAt)
	assert.Len(t, f.answers(t, attempt.ID), 1)
	assert.NotContains(t, f.publisher.events, event.AttemptSubmitted)

	f.svc.ResultRepo = f.store.Results()
	result, err := f.svc.Submit(ctx, "u1", attempt.ID, answers)
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalCorrect)
	assert.Equal(t, 3, result.TotalQuestions)
	assert.Len(t, f.answers(t, attempt.ID), 2)

	stored, err := f.svc.GetResult(ctx, "u1", attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, result.ID, stored.ID)
}

func TestSubmit_FailedCompletionRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	attempt := pausedWithAnswer(t, f)
	answers := []AnswerInput{{QuestionID: "r2", TextContent: "C"}, {QuestionID: "l1", TextContent: "B"}}

	f.svc.AttemptRepo = failingCompletion{f.store.Attempts()}
	_, err := f.svc.Submit(ctx, "u1", attempt.ID, answers)
	require.Error(t, err)

	got, err := f.svc.GetAttempt(ctx, "u1", attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, got.Status)
	assert.Len(t, f.answers(t, attempt.ID), 1)
	_, err = f.store.Results().FindByAttempt(ctx, attempt.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	f.svc.AttemptRepo = f.store.Attempts()
	result, err := f.svc.Submit(ctx, "u1", attempt.ID, answers)
	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalCorrect)
	assert.Len(t, f.answers(t, attempt.ID), 3)

	got, err = f.svc.GetAttempt(ctx, "u1", attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	require.NotNil(t, got.OverallScore)
	assert.Equal(t, 9.0, *got.OverallScore)
}

func TestAbandon(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	attempt, err := f.svc.Start(ctx, "u1", StartInput{ExamID: "exam-1"})
	require.NoError(t, err)
	f.advance(10 * time.Minute)
	require.NoError(t, f.svc.Abandon(ctx, "u1", attempt.ID))

	got, err := f.svc.GetAttempt(ctx, "u1", attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAbandoned, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, start.Add(10*time.Minute), *got.CompletedAt)
	assert.Nil(t, got.OverallScore)

	_, err = f.svc.GetResult(ctx, "u1", attempt.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAttempts_HiddenFromOtherUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	attempt, err := f.svc.Start(ctx, "u1", StartInput{ExamID: "exam-1"})
	require.NoError(t, err)

	_, err = f.svc.GetAttempt(ctx, "u2", attempt.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.svc.Pause(ctx, "u2", attempt.ID, nil, nil), ErrNotFound)
	_, err = f.svc.Submit(ctx, "u2", attempt.ID, nil)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.svc.Abandon(ctx, "u2", attempt.ID), ErrNotFound)
	_, err = f.svc.GetAttemptAnswers(ctx, "u2", attempt.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := f.svc.GetAttempt(ctx, "u1", attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, got.Status)
}

func TestGetAttemptExam_PrunesAndHidesAnswers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	attempt, err := f.svc.Start(ctx, "u1", StartInput{ExamID: "exam-1", SelectedSkills: []string{"Reading"}})
	require.NoError(t, err)

	exam, err := f.svc.GetAttemptExam(ctx, "u1", attempt.ID)
	require.NoError(t, err)

	require.Len(t, exam.Skills, 1)
	assert.Equal(t, models.SkillReading, exam.Skills[0].Type)
	for _, q := range exam.Questions() {
		assert.Empty(t, q.CorrectAnswer, q.ID)
	}

	stored, err := f.store.Exams().FindByID(ctx, "exam-1")
	require.NoError(t, err)
	assert.Equal(t, "A", stored.Questions()[1].CorrectAnswer)
}

func TestListAttempts_FiltersByStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Start(ctx, "u1", StartInput{ExamID: "exam-1"})
	require.NoError(t, err)
	require.NoError(t, f.svc.Abandon(ctx, "u1", first.ID))
	f.advance(time.Minute)
	second, err := f.svc.Start(ctx, "u1", StartInput{ExamID: "exam-1"})
	require.NoError(t, err)

	all, err := f.svc.ListAttempts(ctx, "u1", "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)

	abandoned, err := f.svc.ListAttempts(ctx, "u1", models.StatusAbandoned)
	require.NoError(t, err)
	require.Len(t, abandoned, 1)
	assert.Equal(t, first.ID, abandoned[0].ID)
}
