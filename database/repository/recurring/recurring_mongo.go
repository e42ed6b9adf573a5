package recurringRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bloomify-scheduler/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *mongoRecurringRepo) Create(ctx context.Context, rule *models.RecurringServiceRule) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, rule); err != nil {
		return fmt.Errorf("error creating recurring rule: %w", err)
	}
	return nil
}

func (r *mongoRecurringRepo) GetByID(ctx context.Context, ruleID string) (*models.RecurringServiceRule, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var rule models.RecurringServiceRule
	err := r.coll.FindOne(ctx, bson.M{"id": ruleID}).Decode(&rule)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrRuleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching recurring rule %s: %w", ruleID, err)
	}
	return &rule, nil
}

func (r *mongoRecurringRepo) Update(ctx context.Context, rule *models.RecurringServiceRule, expectedVersion int) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rule.Version = expectedVersion + 1
	filter := bson.M{"id": rule.ID, "version": expectedVersion}
	res, err := r.coll.ReplaceOne(ctx, filter, rule)
	if err != nil {
		rule.Version = expectedVersion
		return fmt.Errorf("error updating recurring rule %s: %w", rule.ID, err)
	}
	if res.MatchedCount == 0 {
		rule.Version = expectedVersion
		return ErrVersionConflict
	}
	return nil
}

func (r *mongoRecurringRepo) ListActive(ctx context.Context, endingAfter time.Time) ([]models.RecurringServiceRule, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{
		"state":   models.RuleStateActive,
		"endDate": bson.M{"$gte": endingAfter},
	}
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("error listing active recurring rules: %w", err)
	}
	defer cursor.Close(ctx)

	var rules []models.RecurringServiceRule
	if err := cursor.All(ctx, &rules); err != nil {
		return nil, fmt.Errorf("error decoding recurring rules: %w", err)
	}
	return rules, nil
}

// EnsureIndexes creates the rule lookup indexes.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "state", Value: 1}, {Key: "endDate", Value: 1}}},
		{Keys: bson.D{{Key: "providerId", Value: 1}}},
	}
	if _, err := db.Collection("recurring_rules").Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create recurring rule indexes: %w", err)
	}
	return nil
}
