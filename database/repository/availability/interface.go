// File: database/repository/availability/interface.go
package availabilityRepo

import (
	"context"
	"errors"

	"bloomify-scheduler/models"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrScheduleNotFound = errors.New("schedule not found")
	ErrOverrideNotFound = errors.New("override not found")
)

// AvailabilityRepository stores weekly templates, booking settings and overrides.
type AvailabilityRepository interface {
	// GetSchedule returns template, settings and every override of the provider.
	GetSchedule(ctx context.Context, providerID string) (*models.ProviderSchedule, error)
	// ReplaceSchedule swaps template and settings in a single write.
	ReplaceSchedule(ctx context.Context, schedule *models.ProviderSchedule) error
	UpsertOverride(ctx context.Context, override *models.Override) error
	DeleteOverride(ctx context.Context, providerID, date string) error
}

type mongoAvailabilityRepo struct {
	schedules *mongo.Collection
	overrides *mongo.Collection
}

// NewMongoAvailabilityRepo constructs a MongoDB AvailabilityRepository.
func NewMongoAvailabilityRepo(db *mongo.Database) AvailabilityRepository {
	return &mongoAvailabilityRepo{
		schedules: db.Collection("schedules"),
		overrides: db.Collection("overrides"),
	}
}
