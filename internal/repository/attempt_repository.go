package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sang1833/EnglishPractice-sub000/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AttemptQuery filters a user's attempt history. Zero values are ignored.
type AttemptQuery struct {
	Status models.AttemptStatus
	From   time.Time
	To     time.Time
}

type AttemptRepository struct {
	Col *mongo.Collection
}

func NewAttemptRepository(db *mongo.Database) *AttemptRepository {
	return &AttemptRepository{Col: db.Collection("attempts")}
}

func (r *AttemptRepository) FindByID(ctx context.Context, id string) (*models.Attempt, error) {
	var attempt models.Attempt
	err := r.Col.FindOne(ctx, bson.M{"_id": id}).Decode(&attempt)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find attempt %s: %w", id, err)
	}
	return &attempt, nil
}

// FindActive returns the InProgress or Pending attempt for a user and exam.
func (r *AttemptRepository) FindActive(ctx context.Context, userID, examID string) (*models.Attempt, error) {
	filter := bson.M{
		"user_id": userID,
		"exam_id": examID,
		"status":  bson.M{"$in": []models.AttemptStatus{models.StatusInProgress, models.StatusPending}},
	}
	var attempt models.Attempt
	err := r.Col.FindOne(ctx, filter).Decode(&attempt)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find active attempt: %w", err)
	}
	return &attempt, nil
}

func (r *AttemptRepository) Create(ctx context.Context, attempt *models.Attempt) error {
	_, err := r.Col.InsertOne(ctx, attempt)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

// Update writes the fields a transition may change. Identity, ownership and
// the skill selection are never rewritten.
func (r *AttemptRepository) Update(ctx context.Context, attempt *models.Attempt) error {
	update := bson.M{
		"status":                 attempt.Status,
		"active":                 attempt.Active,
		"completed_at":           attempt.CompletedAt,
		"time_remaining":         attempt.TimeRemaining,
		"overall_score":          attempt.OverallScore,
		"listening_score":        attempt.ListeningScore,
		"reading_score":          attempt.ReadingScore,
		"writing_score":          attempt.WritingScore,
		"speaking_score":         attempt.SpeakingScore,
		"correct_question_count": attempt.CorrectQuestionCount,
		"total_question_count":   attempt.TotalQuestionCount,
	}
	res, err := r.Col.UpdateOne(ctx, bson.M{"_id": attempt.ID}, bson.M{"$set": update})
	if err != nil {
		return fmt.Errorf("update attempt %s: %w", attempt.ID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AttemptRepository) Delete(ctx context.Context, id string) error {
	_, err := r.Col.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// FindByUser lists a user's attempts, newest first.
func (r *AttemptRepository) FindByUser(ctx context.Context, userID string, q AttemptQuery) ([]models.Attempt, error) {
	filter := bson.M{"user_id": userID}
	if q.Status != "" {
		filter["status"] = q.Status
	}
	completed := bson.M{}
	if !q.From.IsZero() {
		completed["$gte"] = q.From
	}
	if !q.To.IsZero() {
		completed["$lte"] = q.To
	}
	if len(completed) > 0 {
		filter["completed_at"] = completed
	}

	opts := options.Find().SetSort(bson.D{{Key: "started_at", Value: -1}})
	cur, err := r.Col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find attempts by user: %w", err)
	}
	defer cur.Close(ctx)

	var attempts []models.Attempt
	for cur.Next(ctx) {
		var a models.Attempt
		if err := cur.Decode(&a); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, cur.Err()
}
