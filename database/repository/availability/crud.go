// File: database/repository/availability/crud.go
package availabilityRepo

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

func (r *mongoAvailabilityRepo) GetSchedule(ctx context.Context, providerID string) (*models.ProviderSchedule, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var schedule models.ProviderSchedule
	err := r.schedules.FindOne(ctx, bson.M{"providerId": providerID}).Decode(&schedule)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrScheduleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching schedule for provider %s: %w", providerID, err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	cursor, err := r.overrides.Find(ctx, bson.M{"providerId": providerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error fetching overrides for provider %s: %w", providerID, err)
	}
	defer cursor.Close(ctx)

	var overrides []models.Override
	if err := cursor.All(ctx, &overrides); err != nil {
		return nil, fmt.Errorf("error decoding overrides: %w", err)
	}
	set, err := models.NewOverrideSet(overrides)
	if err != nil {
		return nil, err
	}
	schedule.Overrides = set
	return &schedule, nil
}

func (r *mongoAvailabilityRepo) ReplaceSchedule(ctx context.Context, schedule *models.ProviderSchedule) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"providerId": schedule.ProviderID}
	_, err := r.schedules.ReplaceOne(ctx, filter, schedule, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("error replacing schedule for provider %s: %w", schedule.ProviderID, err)
	}
	return nil
}

func (r *mongoAvailabilityRepo) UpsertOverride(ctx context.Context, override *models.Override) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"providerId": override.ProviderID, "date": override.Date}
	_, err := r.overrides.ReplaceOne(ctx, filter, override, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("error saving override %s for provider %s: %w", override.Date, override.ProviderID, err)
	}
	return nil
}

func (r *mongoAvailabilityRepo) DeleteOverride(ctx context.Context, providerID, date string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.overrides.DeleteOne(ctx, bson.M{"providerId": providerID, "date": date})
	if err != nil {
		return fmt.Errorf("error deleting override %s for provider %s: %w", date, providerID, err)
	}
	if res.DeletedCount == 0 {
		return ErrOverrideNotFound
	}
	return nil
}
