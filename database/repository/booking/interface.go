package bookingRepo

import (
	"context"
	"errors"
	"time"

	"bloomify-scheduler/models"

	"go.mongodb.org/mongo-driver/mongo"
)

var ErrBookingNotFound = errors.New("booking not found")

// BookingRepository is the durable store for committed bookings.
type BookingRepository interface {
	// PersistBooking is idempotent on booking ID.
	PersistBooking(ctx context.Context, booking *models.Booking) error
	// FetchExistingBookings returns confirmed bookings of the provider intersecting [from, to).
	FetchExistingBookings(ctx context.Context, providerID string, from, to time.Time) ([]models.BookingInterval, error)
	GetByID(ctx context.Context, bookingID string) (*models.Booking, error)
}

type mongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo constructs a MongoDB BookingRepository.
func NewMongoBookingRepo(db *mongo.Database) BookingRepository {
	return &mongoBookingRepo{coll: db.Collection("bookings")}
}
