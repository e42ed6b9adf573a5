package notification

import (
	"context"
	"time"

	"bloomify-scheduler/models"

	"go.uber.org/zap"
)

// NotificationService tells interested parties about booking and occurrence outcomes.
type NotificationService interface {
	NotifyOccurrenceDue(ctx context.Context, ruleID string, occurrenceAt time.Time, booking *models.Booking) error
	NotifyOccurrenceConflict(ctx context.Context, ruleID string, occurrenceAt time.Time, reason models.RejectionReason) error
	NotifyBookingConfirmed(ctx context.Context, booking *models.Booking) error
}

// DefaultNotificationService records notifications as structured log events.
// Delivery to devices happens outside this service.
type DefaultNotificationService struct {
	Logger *zap.Logger
}

func NewDefaultNotificationService(logger *zap.Logger) *DefaultNotificationService {
	return &DefaultNotificationService{Logger: logger}
}

func (s *DefaultNotificationService) NotifyOccurrenceDue(ctx context.Context, ruleID string, occurrenceAt time.Time, booking *models.Booking) error {
	fields := []zap.Field{
		zap.String("ruleID", ruleID),
		zap.Time("occurrenceAt", occurrenceAt),
	}
	if booking != nil {
		fields = append(fields,
			zap.String("bookingID", booking.ID),
			zap.String("providerID", booking.ProviderID),
			zap.String("clientID", booking.RequesterID),
		)
	}
	s.Logger.Info("notify: occurrence due", fields...)
	return nil
}

func (s *DefaultNotificationService) NotifyOccurrenceConflict(ctx context.Context, ruleID string, occurrenceAt time.Time, reason models.RejectionReason) error {
	s.Logger.Warn("notify: occurrence could not be booked",
		zap.String("ruleID", ruleID),
		zap.Time("occurrenceAt", occurrenceAt),
		zap.String("reason", string(reason)),
	)
	return nil
}

func (s *DefaultNotificationService) NotifyBookingConfirmed(ctx context.Context, booking *models.Booking) error {
	s.Logger.Info("notify: booking confirmed",
		zap.String("bookingID", booking.ID),
		zap.String("providerID", booking.ProviderID),
		zap.String("requesterID", booking.RequesterID),
		zap.Time("startsAt", booking.StartsAt),
	)
	return nil
}
