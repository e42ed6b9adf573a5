package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingRepo "bloomify-scheduler/database/repository/booking"
	"bloomify-scheduler/models"
	"bloomify-scheduler/services/availability"
	"bloomify-scheduler/services/notification"
	"bloomify-scheduler/services/recurrence"
	"bloomify-scheduler/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// occurrenceNamespace seeds the deterministic IDs of occurrence bookings, so a
// replayed commit for the same rule and instant writes the same document.
var occurrenceNamespace = uuid.MustParse("6f1c2a4e-9b0d-5e73-8a21-3c4d5e6f7a8b")

// OccurrenceBookingID returns the booking ID used for a rule's occurrence.
func OccurrenceBookingID(ruleID string, occurrenceAt time.Time) string {
	key := ruleID + "@" + occurrenceAt.UTC().Format(time.RFC3339)
	return uuid.NewSHA1(occurrenceNamespace, []byte(key)).String()
}

// DefaultBookingCoordinator implements BookingCoordinator. Commits for one
// provider run one at a time; different providers never wait on each other.
type DefaultBookingCoordinator struct {
	Schedules       ScheduleReader
	Store           BookingStore
	Clock           utils.Clock
	Logger          *zap.Logger
	NotificationSvc notification.NotificationService // optional

	locks providerLocks
}

func (c *DefaultBookingCoordinator) now() time.Time {
	if c.Clock == nil {
		return time.Now()
	}
	return c.Clock.Now()
}

func (c *DefaultBookingCoordinator) logger() *zap.Logger {
	if c.Logger == nil {
		return utils.GetLogger()
	}
	return c.Logger
}

// CommitSlot re-validates a slot against the current schedule and bookings and
// records the outcome.
func (c *DefaultBookingCoordinator) CommitSlot(ctx context.Context, providerID string, req models.SlotRequest) (*models.Booking, error) {
	if err := validateSlotRequest(providerID, req); err != nil {
		return nil, err
	}

	release, err := c.locks.acquire(ctx, providerID)
	if err != nil {
		return nil, err
	}
	defer release()

	schedule, loc, err := c.loadSchedule(ctx, providerID)
	if err != nil {
		return nil, err
	}
	day, err := time.ParseInLocation(models.DateLayout, req.Date, loc)
	if err != nil {
		return nil, newInvalidRequest("date", "must be YYYY-MM-DD")
	}

	now := c.now()
	b := &models.Booking{
		ID:          uuid.New().String(),
		ProviderID:  providerID,
		RequesterID: req.RequesterID,
		Kind:        models.BookingKindSlot,
		Date:        req.Date,
		Start:       req.Start,
		End:         req.End,
		StartsAt:    availability.AtMinute(day, req.Start),
		EndsAt:      availability.AtMinute(day, req.End),
		Emergency:   req.Emergency,
		CommittedAt: now,
	}

	settings := schedule.Settings
	switch {
	case req.Emergency && !settings.AllowEmergencyBookings:
		b.Reason = models.RejectionEmergencyNotAllowed
	case !withinNoticeWindow(settings, b.StartsAt, now, req.Emergency):
		b.Reason = models.RejectionOutsideNoticeWindow
	default:
		reason, err := c.checkCapacity(ctx, schedule, day, b, settings.SlotDurationMinutes)
		if err != nil {
			return nil, err
		}
		b.Reason = reason
	}

	if err := c.record(ctx, b); err != nil {
		return nil, err
	}
	if b.Confirmed() && c.NotificationSvc != nil {
		if err := c.NotificationSvc.NotifyBookingConfirmed(ctx, b); err != nil {
			c.logger().Warn("Booking confirmation notification failed", zap.String("bookingID", b.ID), zap.Error(err))
		}
	}
	return b, nil
}

// CommitOccurrence books one occurrence of a recurring rule. The booking ID is
// derived from the rule and instant, so repeated commits are idempotent.
// Minimum notice does not apply to occurrences.
func (c *DefaultBookingCoordinator) CommitOccurrence(ctx context.Context, rule models.RecurringServiceRule, occurrenceAt time.Time) (*models.Booking, error) {
	if rule.ID == "" || rule.ProviderID == "" {
		return nil, newInvalidRequest("rule", "must have an id and provider")
	}
	if occurrenceAt.IsZero() {
		return nil, newInvalidRequest("occurrenceAt", "is required")
	}

	release, err := c.locks.acquire(ctx, rule.ProviderID)
	if err != nil {
		return nil, err
	}
	defer release()

	id := OccurrenceBookingID(rule.ID, occurrenceAt)
	prior, err := c.Store.GetByID(ctx, id)
	switch {
	case err == nil && prior.Confirmed():
		c.logger().Debug("Occurrence already confirmed", zap.String("bookingID", id), zap.String("ruleID", rule.ID))
		return prior, nil
	case err != nil && !errors.Is(err, bookingRepo.ErrBookingNotFound):
		return nil, fmt.Errorf("failed to load booking %s: %w", id, err)
	}

	occ := occurrenceAt
	b := &models.Booking{
		ID:           id,
		ProviderID:   rule.ProviderID,
		RequesterID:  rule.ClientID,
		Kind:         models.BookingKindOccurrence,
		RuleID:       rule.ID,
		OccurrenceAt: &occ,
		StartsAt:     occurrenceAt,
		EndsAt:       occurrenceAt.Add(time.Duration(rule.DurationMinutes) * time.Minute),
		CommittedAt:  c.now(),
	}

	switch {
	case rule.State != models.RuleStateActive:
		b.Reason = models.RejectionRuleNotActive
	case !recurrence.IsOccurrence(rule, occurrenceAt):
		b.Reason = models.RejectionNotAnOccurrence
	default:
		schedule, loc, err := c.loadSchedule(ctx, rule.ProviderID)
		if err != nil {
			return nil, err
		}
		local := occurrenceAt.In(loc)
		day := availability.DayStart(local, loc)
		b.Date = day.Format(models.DateLayout)
		b.Start = local.Hour()*60 + local.Minute()
		b.End = b.Start + rule.DurationMinutes
		b.StartsAt = availability.AtMinute(day, b.Start)
		b.EndsAt = b.StartsAt.Add(time.Duration(rule.DurationMinutes) * time.Minute)

		if b.End > models.MinutesPerDay {
			b.Reason = models.RejectionProviderUnavailable
			break
		}
		reason, err := c.checkCapacity(ctx, schedule, day, b, 0)
		if err != nil {
			return nil, err
		}
		b.Reason = reason
	}

	if err := c.record(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (c *DefaultBookingCoordinator) loadSchedule(ctx context.Context, providerID string) (*models.ProviderSchedule, *time.Location, error) {
	schedule, err := c.Schedules.GetSchedule(ctx, providerID)
	if err != nil {
		return nil, nil, err
	}
	loc, err := availability.ValidateSettings(schedule.Settings, c.now())
	if err != nil {
		return nil, nil, fmt.Errorf("provider %s has unusable settings: %w", providerID, err)
	}
	return schedule, loc, nil
}

// checkCapacity finds the window holding b on day and counts the confirmed
// bookings already overlapping it, ignoring b itself. A positive step also
// requires b to be exactly one generated slot of that window.
func (c *DefaultBookingCoordinator) checkCapacity(ctx context.Context, schedule *models.ProviderSchedule, day time.Time, b *models.Booking, step int) (models.RejectionReason, error) {
	dayAvail := availability.ResolveDay(schedule.Template, schedule.Overrides, day)
	window, ok := availability.FindWindow(dayAvail, b.Start, b.End)
	if !ok {
		return models.RejectionProviderUnavailable, nil
	}
	if step > 0 && (b.End-b.Start != step || (b.Start-window.Start)%step != 0) {
		return models.RejectionProviderUnavailable, nil
	}

	existing, err := c.Store.FetchExistingBookings(ctx, b.ProviderID, b.StartsAt, b.EndsAt)
	if err != nil {
		return "", fmt.Errorf("failed to load bookings for provider %s: %w", b.ProviderID, err)
	}
	if availability.CountOverlapping(existing, b.StartsAt, b.EndsAt, b.ID) >= window.MaxBookings {
		return models.RejectionCapacityExceeded, nil
	}
	return "", nil
}

// record sets the final status and persists the booking.
func (c *DefaultBookingCoordinator) record(ctx context.Context, b *models.Booking) error {
	if b.Reason == "" {
		b.Status = models.BookingStatusConfirmed
	} else {
		b.Status = models.BookingStatusRejected
	}
	if err := c.Store.PersistBooking(ctx, b); err != nil {
		c.logger().Error("Failed to persist booking",
			zap.String("bookingID", b.ID),
			zap.String("providerID", b.ProviderID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to persist booking %s: %w", b.ID, err)
	}

	fields := []zap.Field{
		zap.String("bookingID", b.ID),
		zap.String("providerID", b.ProviderID),
		zap.String("kind", string(b.Kind)),
		zap.Time("startsAt", b.StartsAt),
	}
	if b.RuleID != "" {
		fields = append(fields, zap.String("ruleID", b.RuleID))
	}
	if b.Confirmed() {
		c.logger().Info("Booking confirmed", fields...)
	} else {
		c.logger().Info("Booking rejected", append(fields, zap.String("reason", string(b.Reason)))...)
	}
	return nil
}

func withinNoticeWindow(s models.BookingSettings, startsAt, now time.Time, emergency bool) bool {
	if startsAt.After(s.BookingHorizon(now)) {
		return false
	}
	if emergency {
		return !startsAt.Before(now)
	}
	return !startsAt.Before(now.Add(s.MinimumNotice()))
}

func validateSlotRequest(providerID string, req models.SlotRequest) error {
	switch {
	case providerID == "":
		return newInvalidRequest("providerID", "is required")
	case req.RequesterID == "":
		return newInvalidRequest("requesterId", "is required")
	case req.Start < 0 || req.End > models.MinutesPerDay:
		return newInvalidRequest("start/end", "must lie within the day")
	case req.Start >= req.End:
		return newInvalidRequest("start/end", "start must be before end")
	}
	if _, err := time.Parse(models.DateLayout, req.Date); err != nil {
		return newInvalidRequest("date", "must be YYYY-MM-DD")
	}
	return nil
}
