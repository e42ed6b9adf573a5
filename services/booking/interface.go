package booking

import (
	"context"
	"time"

	"bloomify-scheduler/models"
)

// ScheduleReader loads a provider's template, settings and overrides.
type ScheduleReader interface {
	GetSchedule(ctx context.Context, providerID string) (*models.ProviderSchedule, error)
}

// BookingStore is the durable side of the coordinator.
type BookingStore interface {
	// PersistBooking must be idempotent on booking ID.
	PersistBooking(ctx context.Context, booking *models.Booking) error
	FetchExistingBookings(ctx context.Context, providerID string, from, to time.Time) ([]models.BookingInterval, error)
	// GetByID returns bookingRepo.ErrBookingNotFound for unknown IDs.
	GetByID(ctx context.Context, bookingID string) (*models.Booking, error)
}

// BookingCoordinator is the only place bookings are written. A rejected commit
// returns a booking with status rejected and a reason; the error result is kept
// for invalid requests and collaborator failures.
type BookingCoordinator interface {
	CommitSlot(ctx context.Context, providerID string, req models.SlotRequest) (*models.Booking, error)
	CommitOccurrence(ctx context.Context, rule models.RecurringServiceRule, occurrenceAt time.Time) (*models.Booking, error)
}
