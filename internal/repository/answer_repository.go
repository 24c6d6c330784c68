package repository

import (
	"context"
	"fmt"

	"github.com/sang1833/EnglishPractice-sub000/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AnswerRepository struct {
	Col *mongo.Collection
}

func NewAnswerRepository(db *mongo.Database) *AnswerRepository {
	return &AnswerRepository{Col: db.Collection("answers")}
}

// ReplaceForAttempt drops every stored answer of the attempt and writes the
// snapshot in its place.
func (r *AnswerRepository) ReplaceForAttempt(ctx context.Context, attemptID string, answers []models.UserAnswer) error {
	if err := r.DeleteByAttempt(ctx, attemptID); err != nil {
		return err
	}
	return r.insert(ctx, attemptID, answers, 0)
}

// Append adds answers after the ones already stored for the attempt.
func (r *AnswerRepository) Append(ctx context.Context, attemptID string, answers []models.UserAnswer) error {
	n, err := r.Col.CountDocuments(ctx, bson.M{"attempt_id": attemptID})
	if err != nil {
		return fmt.Errorf("count answers: %w", err)
	}
	return r.insert(ctx, attemptID, answers, int(n))
}

func (r *AnswerRepository) insert(ctx context.Context, attemptID string, answers []models.UserAnswer, offset int) error {
	if len(answers) == 0 {
		return nil
	}
	docs := make([]interface{}, len(answers))
	for i := range answers {
		answers[i].AttemptID = attemptID
		answers[i].Sequence = offset + i
		docs[i] = answers[i]
	}
	if _, err := r.Col.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert answers: %w", err)
	}
	return nil
}

// FindByAttempt returns answers in the order they were saved.
func (r *AnswerRepository) FindByAttempt(ctx context.Context, attemptID string) ([]models.UserAnswer, error) {
	opts := options.Find().SetSort(bson.D{{Key: "sequence", Value: 1}})
	cur, err := r.Col.Find(ctx, bson.M{"attempt_id": attemptID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var answers []models.UserAnswer
	for cur.Next(ctx) {
		var a models.UserAnswer
		if err := cur.Decode(&a); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, cur.Err()
}

func (r *AnswerRepository) DeleteByAttempt(ctx context.Context, attemptID string) error {
	if _, err := r.Col.DeleteMany(ctx, bson.M{"attempt_id": attemptID}); err != nil {
		return fmt.Errorf("delete answers: %w", err)
	}
	return nil
}
