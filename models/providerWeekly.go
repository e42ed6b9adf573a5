package models

import "time"

// DateLayout is the calendar-date format used for overrides, slots and bookings.
const DateLayout = "2006-01-02"

// MinutesPerDay bounds every minutes-from-midnight value.
const MinutesPerDay = 24 * 60

// TimeWindow is a contiguous bookable block within a day.
type TimeWindow struct {
	Start       int `bson:"start" json:"start"`             // minutes from midnight (e.g., 540 for 9:00 AM)
	End         int `bson:"end" json:"end"`                 // minutes from midnight (e.g., 1020 for 5:00 PM)
	MaxBookings int `bson:"maxBookings" json:"maxBookings"` // concurrent bookings allowed in any part of the window
}

// Contains reports whether [start, end) lies fully inside the window.
func (w TimeWindow) Contains(start, end int) bool {
	return start >= w.Start && end <= w.End && start < end
}

// DayAvailability is one weekday entry of a WeeklyTemplate.
type DayAvailability struct {
	Available   bool         `bson:"available" json:"available"`
	TimeWindows []TimeWindow `bson:"timeWindows" json:"timeWindows"`
}

// WeeklyTemplate holds a provider's recurring week, indexed by time.Weekday (Sunday = 0).
type WeeklyTemplate struct {
	Days [7]DayAvailability `bson:"days" json:"days"`
}

// Day returns the template entry for the given weekday.
func (t WeeklyTemplate) Day(wd time.Weekday) DayAvailability {
	return t.Days[wd]
}

// ProviderSchedule is everything the slot generator needs for one provider.
// Template and Settings live in one document; Overrides are stored per date.
type ProviderSchedule struct {
	ProviderID string          `bson:"providerId" json:"providerId"`
	Template   WeeklyTemplate  `bson:"template" json:"template"`
	Settings   BookingSettings `bson:"settings" json:"settings"`
	Overrides  OverrideSet     `bson:"-" json:"overrides"`
	UpdatedAt  time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// SubmitAvailabilityRequest replaces a provider's template and settings wholesale.
type SubmitAvailabilityRequest struct {
	Template WeeklyTemplate  `json:"template" binding:"required"`
	Settings BookingSettings `json:"settings" binding:"required"`
}
