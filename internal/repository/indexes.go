package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the attempt lifecycle relies on. The
// partial unique index is the storage-level guard for one active attempt per
// user and exam.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		"attempts": {
			{
				Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "exam_id", Value: 1}},
				Options: options.Index().
					SetName("uniq_active_attempt").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"active": true}),
			},
			{
				Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}, {Key: "completed_at", Value: -1}},
			},
		},
		"answers": {
			{Keys: bson.D{{Key: "attempt_id", Value: 1}, {Key: "sequence", Value: 1}}},
		},
		"results": {
			{
				Keys:    bson.D{{Key: "attempt_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		"exams": {
			{Keys: bson.D{{Key: "exam_type", Value: 1}}},
		},
	}

	for col, idx := range specs {
		if _, err := db.Collection(col).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", col, err)
		}
	}
	return nil
}
