package repository

import (
	"context"
	"errors"

	"github.com/sang1833/EnglishPractice-sub000/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ResultRepository struct {
	Col *mongo.Collection
}

func NewResultRepository(db *mongo.Database) *ResultRepository {
	return &ResultRepository{Col: db.Collection("results")}
}

func (r *ResultRepository) FindByAttempt(ctx context.Context, attemptID string) (*models.TestResult, error) {
	var result models.TestResult
	err := r.Col.FindOne(ctx, bson.M{"attempt_id": attemptID}).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &result, nil
}

// Save writes the attempt's result, replacing any earlier one.
func (r *ResultRepository) Save(ctx context.Context, result *models.TestResult) error {
	_, err := r.Col.ReplaceOne(ctx,
		bson.M{"attempt_id": result.AttemptID},
		result,
		options.Replace().SetUpsert(true),
	)
	return err
}

func (r *ResultRepository) DeleteByAttempt(ctx context.Context, attemptID string) error {
	_, err := r.Col.DeleteOne(ctx, bson.M{"attempt_id": attemptID})
	return err
}
