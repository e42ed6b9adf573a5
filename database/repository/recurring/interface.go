package recurringRepo

import (
	"context"
	"errors"
	"time"

	"bloomify-scheduler/models"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrRuleNotFound    = errors.New("recurring rule not found")
	ErrVersionConflict = errors.New("recurring rule was modified concurrently")
)

// RecurringRuleRepository stores recurring service rules.
type RecurringRuleRepository interface {
	Create(ctx context.Context, rule *models.RecurringServiceRule) error
	GetByID(ctx context.Context, ruleID string) (*models.RecurringServiceRule, error)
	// Update writes rule only if the stored version still equals expectedVersion.
	Update(ctx context.Context, rule *models.RecurringServiceRule, expectedVersion int) error
	// ListActive returns active rules whose end date is not before endingAfter.
	ListActive(ctx context.Context, endingAfter time.Time) ([]models.RecurringServiceRule, error)
}

type mongoRecurringRepo struct {
	coll *mongo.Collection
}

// NewMongoRecurringRepo constructs a MongoDB RecurringRuleRepository.
func NewMongoRecurringRepo(db *mongo.Database) RecurringRuleRepository {
	return &mongoRecurringRepo{coll: db.Collection("recurring_rules")}
}
