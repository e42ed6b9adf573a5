package models

import "time"

// BookingSettings control how far ahead and how close to now slots may be booked.
type BookingSettings struct {
	AdvanceBookingDays     int    `bson:"advanceBookingDays" json:"advanceBookingDays"`
	MinimumNoticeHours     int    `bson:"minimumNoticeHours" json:"minimumNoticeHours"`
	SlotDurationMinutes    int    `bson:"slotDurationMinutes" json:"slotDurationMinutes"`
	AllowEmergencyBookings bool   `bson:"allowEmergencyBookings" json:"allowEmergencyBookings"`
	Timezone               string `bson:"timezone,omitempty" json:"timezone,omitempty"` // IANA name, e.g. "Africa/Nairobi"
}

// MinimumNotice is the notice period as a duration.
func (s BookingSettings) MinimumNotice() time.Duration {
	return time.Duration(s.MinimumNoticeHours) * time.Hour
}

// SlotDuration is the slot granularity as a duration.
func (s BookingSettings) SlotDuration() time.Duration {
	return time.Duration(s.SlotDurationMinutes) * time.Minute
}

// BookingHorizon returns the latest instant a slot may start at, relative to now.
func (s BookingSettings) BookingHorizon(now time.Time) time.Time {
	return now.AddDate(0, 0, s.AdvanceBookingDays)
}
