package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	availabilityRepo "bloomify-scheduler/database/repository/availability"
	bookingRepo "bloomify-scheduler/database/repository/booking"
	"bloomify-scheduler/models"
	"bloomify-scheduler/utils"

	"go.uber.org/zap"
)

// DefaultSlotLimit caps a slot query when the caller does not ask for a limit.
const DefaultSlotLimit = 200

// AvailabilityService manages provider schedules and answers slot queries.
type AvailabilityService interface {
	SubmitAvailability(ctx context.Context, providerID string, req models.SubmitAvailabilityRequest) (*models.ProviderSchedule, error)
	GetSchedule(ctx context.Context, providerID string) (*models.ProviderSchedule, error)
	AddOverride(ctx context.Context, override models.Override) (*models.Override, error)
	RemoveOverride(ctx context.Context, providerID, date string) error
	QueryAvailableSlots(ctx context.Context, providerID string, dates models.DateRange, limit int) ([]models.Slot, error)
}

// DefaultAvailabilityService implements AvailabilityService.
type DefaultAvailabilityService struct {
	Repo     availabilityRepo.AvailabilityRepository
	Bookings bookingRepo.BookingRepository
	Clock    utils.Clock
	Logger   *zap.Logger
}

func (s *DefaultAvailabilityService) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock.Now()
}

func (s *DefaultAvailabilityService) logger() *zap.Logger {
	if s.Logger == nil {
		return utils.GetLogger()
	}
	return s.Logger
}

// SubmitAvailability validates and replaces the provider's template and settings.
// Existing overrides are kept.
func (s *DefaultAvailabilityService) SubmitAvailability(ctx context.Context, providerID string, req models.SubmitAvailabilityRequest) (*models.ProviderSchedule, error) {
	if providerID == "" {
		return nil, &InvalidSettingsError{Field: "providerID", Reason: "is required"}
	}
	if err := ValidateTemplate(req.Template); err != nil {
		return nil, err
	}
	now := s.now()
	if _, err := ValidateSettings(req.Settings, now); err != nil {
		return nil, err
	}

	schedule := &models.ProviderSchedule{
		ProviderID: providerID,
		Template:   req.Template,
		Settings:   req.Settings,
		UpdatedAt:  now,
	}
	if err := s.Repo.ReplaceSchedule(ctx, schedule); err != nil {
		return nil, fmt.Errorf("failed to store availability for provider %s: %w", providerID, err)
	}
	s.logger().Info("Availability submitted",
		zap.String("providerID", providerID),
		zap.Int("slotDurationMinutes", req.Settings.SlotDurationMinutes),
	)
	return schedule, nil
}

func (s *DefaultAvailabilityService) GetSchedule(ctx context.Context, providerID string) (*models.ProviderSchedule, error) {
	return s.Repo.GetSchedule(ctx, providerID)
}

// AddOverride stores a dated override, replacing any previous one for that date.
func (s *DefaultAvailabilityService) AddOverride(ctx context.Context, override models.Override) (*models.Override, error) {
	if err := ValidateOverride(override); err != nil {
		return nil, err
	}
	if !override.Available {
		override.TimeWindows = nil
	}
	override.CreatedAt = s.now()

	if err := s.Repo.UpsertOverride(ctx, &override); err != nil {
		return nil, fmt.Errorf("failed to store override %s for provider %s: %w", override.Date, override.ProviderID, err)
	}
	s.logger().Info("Override stored",
		zap.String("providerID", override.ProviderID),
		zap.String("date", override.Date),
		zap.Bool("available", override.Available),
	)
	return &override, nil
}

func (s *DefaultAvailabilityService) RemoveOverride(ctx context.Context, providerID, date string) error {
	if err := s.Repo.DeleteOverride(ctx, providerID, date); err != nil {
		return err
	}
	s.logger().Info("Override removed", zap.String("providerID", providerID), zap.String("date", date))
	return nil
}

// QueryAvailableSlots lists bookable slots between two calendar dates (inclusive)
// in the provider's timezone, stopping after limit slots.
func (s *DefaultAvailabilityService) QueryAvailableSlots(ctx context.Context, providerID string, dates models.DateRange, limit int) ([]models.Slot, error) {
	if limit <= 0 {
		limit = DefaultSlotLimit
	}
	schedule, err := s.Repo.GetSchedule(ctx, providerID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	loc, err := ValidateSettings(schedule.Settings, now)
	if err != nil {
		return nil, err
	}
	from, err := time.ParseInLocation(models.DateLayout, dates.From, loc)
	if err != nil {
		return nil, &InvalidTemplateError{Where: dates.From, Reason: "date must be YYYY-MM-DD"}
	}
	to, err := time.ParseInLocation(models.DateLayout, dates.To, loc)
	if err != nil {
		return nil, &InvalidTemplateError{Where: dates.To, Reason: "date must be YYYY-MM-DD"}
	}
	if to.Before(from) {
		return nil, &InvalidRangeError{Start: from, End: to}
	}

	existing, err := s.Bookings.FetchExistingBookings(ctx, providerID, from, to.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings for provider %s: %w", providerID, err)
	}

	seq, err := GenerateSlots(SlotQuery{
		Template:   schedule.Template,
		Overrides:  schedule.Overrides,
		Settings:   schedule.Settings,
		Existing:   existing,
		RangeStart: from,
		RangeEnd:   to,
		Now:        now,
	})
	if err != nil {
		return nil, err
	}

	slots := make([]models.Slot, 0)
	for slot := range seq {
		slots = append(slots, slot)
		if len(slots) >= limit {
			break
		}
	}
	s.logger().Debug("Slots computed",
		zap.String("providerID", providerID),
		zap.String("from", dates.From),
		zap.String("to", dates.To),
		zap.Int("count", len(slots)),
	)
	return slots, nil
}

// IsNotFound reports whether err means the provider has no schedule or override.
func IsNotFound(err error) bool {
	return errors.Is(err, availabilityRepo.ErrScheduleNotFound) || errors.Is(err, availabilityRepo.ErrOverrideNotFound)
}

// IsValidation reports whether err was caused by bad input.
func IsValidation(err error) bool {
	var rangeErr *InvalidRangeError
	var settingsErr *InvalidSettingsError
	var templateErr *InvalidTemplateError
	return errors.As(err, &rangeErr) || errors.As(err, &settingsErr) || errors.As(err, &templateErr) ||
		errors.Is(err, models.ErrDuplicateOverride)
}
