package bookingRepo

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

func (r *mongoBookingRepo) PersistBooking(ctx context.Context, booking *models.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": booking.ID}
	_, err := r.coll.ReplaceOne(ctx, filter, booking, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("error persisting booking %s: %w", booking.ID, err)
	}
	return nil
}

func (r *mongoBookingRepo) FetchExistingBookings(ctx context.Context, providerID string, from, to time.Time) ([]models.BookingInterval, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"provider_id": providerID,
		"status":      models.BookingStatusConfirmed,
		"starts_at":   bson.M{"$lt": to},
		"ends_at":     bson.M{"$gt": from},
	}
	projection := bson.M{"id": 1, "starts_at": 1, "ends_at": 1}
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetProjection(projection))
	if err != nil {
		return nil, fmt.Errorf("error finding overlapping bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var intervals []models.BookingInterval
	if err := cursor.All(ctx, &intervals); err != nil {
		return nil, fmt.Errorf("error decoding bookings: %w", err)
	}
	return intervals, nil
}

func (r *mongoBookingRepo) GetByID(ctx context.Context, bookingID string) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var booking models.Booking
	err := r.coll.FindOne(ctx, bson.M{"id": bookingID}).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching booking %s: %w", bookingID, err)
	}
	return &booking, nil
}

// EnsureIndexes creates the indexes used by the overlap query and idempotent upserts.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		{
			Keys:    bson.D{{Key: "provider_id", Value: 1}, {Key: "status", Value: 1}, {Key: "starts_at", Value: 1}},
			Options: options.Index().SetName("provider_status_start_idx"),
		},
	}
	if _, err := db.Collection("bookings").Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}
	return nil
}
