// FILE: database/repository/availability/indexes.go
package availabilityRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes backing the one-schedule-per-provider and
// one-override-per-date invariants.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := db.Collection("schedules").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "providerId", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("unique_provider"),
	})
	if err != nil {
		return fmt.Errorf("failed to create schedule indexes: %w", err)
	}

	_, err = db.Collection("overrides").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "providerId", Value: 1}, {Key: "date", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("unique_provider_date"),
	})
	if err != nil {
		return fmt.Errorf("failed to create override indexes: %w", err)
	}
	return nil
}
