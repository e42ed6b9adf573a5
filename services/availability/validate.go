package availability

import (
	"fmt"
	"sort"
	"time"

	"bloomify-scheduler/models"
)

// ValidateTemplate checks every weekday of a template. Nothing is applied on failure.
func ValidateTemplate(t models.WeeklyTemplate) error {
	for wd, day := range t.Days {
		where := time.Weekday(wd).String()
		if !day.Available && len(day.TimeWindows) > 0 {
			return &InvalidTemplateError{Where: where, Reason: "unavailable day must not carry time windows"}
		}
		if err := validateWindows(day.TimeWindows, where); err != nil {
			return err
		}
	}
	return nil
}

// ValidateOverride checks a single dated override.
func ValidateOverride(o models.Override) error {
	if _, err := time.Parse(models.DateLayout, o.Date); err != nil {
		return &InvalidTemplateError{Where: o.Date, Reason: "date must be YYYY-MM-DD"}
	}
	if !o.Available {
		return nil
	}
	return validateWindows(o.TimeWindows, o.Date)
}

// ValidateSettings checks the invariants of booking settings and returns the
// location slots are computed in. An empty timezone falls back to now's location.
func ValidateSettings(s models.BookingSettings, now time.Time) (*time.Location, error) {
	if s.SlotDurationMinutes <= 0 {
		return nil, &InvalidSettingsError{Field: "slotDurationMinutes", Reason: "must be positive"}
	}
	if s.MinimumNoticeHours < 0 {
		return nil, &InvalidSettingsError{Field: "minimumNoticeHours", Reason: "must not be negative"}
	}
	if s.AdvanceBookingDays < 0 {
		return nil, &InvalidSettingsError{Field: "advanceBookingDays", Reason: "must not be negative"}
	}
	if s.Timezone == "" {
		return now.Location(), nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, &InvalidSettingsError{Field: "timezone", Reason: fmt.Sprintf("unknown zone %q", s.Timezone)}
	}
	return loc, nil
}

func validateWindows(windows []models.TimeWindow, where string) error {
	sorted := make([]models.TimeWindow, len(windows))
	copy(sorted, windows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	for i, w := range sorted {
		if w.Start < 0 || w.End > models.MinutesPerDay {
			return &InvalidTemplateError{Where: where, Reason: fmt.Sprintf("window %s must lie within the day", windowLabel(w))}
		}
		if w.Start >= w.End {
			return &InvalidTemplateError{Where: where, Reason: fmt.Sprintf("window %s must start before it ends", windowLabel(w))}
		}
		if w.MaxBookings < 1 {
			return &InvalidTemplateError{Where: where, Reason: fmt.Sprintf("window %s needs maxBookings >= 1", windowLabel(w))}
		}
		if i > 0 && w.Start < sorted[i-1].End {
			return &InvalidTemplateError{Where: where, Reason: fmt.Sprintf("window %s overlaps %s", windowLabel(w), windowLabel(sorted[i-1]))}
		}
	}
	return nil
}

func windowLabel(w models.TimeWindow) string {
	return models.FormatMinutes(w.Start) + "-" + models.FormatMinutes(w.End)
}
