package models

import "time"

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusRejected  BookingStatus = "rejected"
)

type BookingKind string

const (
	BookingKindSlot       BookingKind = "slot"
	BookingKindOccurrence BookingKind = "occurrence"
)

// RejectionReason explains why a commit was not confirmed.
type RejectionReason string

const (
	RejectionCapacityExceeded    RejectionReason = "capacity_exceeded"
	RejectionOutsideNoticeWindow RejectionReason = "outside_notice_window"
	RejectionProviderUnavailable RejectionReason = "provider_unavailable"
	RejectionEmergencyNotAllowed RejectionReason = "emergency_not_allowed"
	RejectionRuleNotActive       RejectionReason = "rule_not_active"
	RejectionNotAnOccurrence     RejectionReason = "not_an_occurrence"
)

// Booking is the committed outcome of a slot or occurrence request.
type Booking struct {
	ID           string          `bson:"id" json:"id"`
	ProviderID   string          `bson:"provider_id" json:"provider_id"`
	RequesterID  string          `bson:"requester_id" json:"requester_id"`
	Kind         BookingKind     `bson:"kind" json:"kind"`
	Date         string          `bson:"date" json:"date"`   // "YYYY-MM-DD" in the provider's timezone
	Start        int             `bson:"start" json:"start"` // minutes from midnight
	End          int             `bson:"end" json:"end"`     // minutes from midnight
	StartsAt     time.Time       `bson:"starts_at" json:"starts_at"`
	EndsAt       time.Time       `bson:"ends_at" json:"ends_at"`
	RuleID       string          `bson:"rule_id,omitempty" json:"rule_id,omitempty"`
	OccurrenceAt *time.Time      `bson:"occurrence_at,omitempty" json:"occurrence_at,omitempty"`
	Emergency    bool            `bson:"emergency,omitempty" json:"emergency,omitempty"`
	Status       BookingStatus   `bson:"status" json:"status"`
	Reason       RejectionReason `bson:"reason,omitempty" json:"reason,omitempty"`
	CommittedAt  time.Time       `bson:"committed_at" json:"committed_at"`
}

// Confirmed reports whether the booking holds capacity.
func (b *Booking) Confirmed() bool {
	return b.Status == BookingStatusConfirmed
}

// BookingInterval is the part of a confirmed booking the slot generator cares about.
type BookingInterval struct {
	BookingID string    `bson:"id" json:"id"`
	Start     time.Time `bson:"starts_at" json:"start"`
	End       time.Time `bson:"ends_at" json:"end"`
}

// Overlaps reports whether the interval intersects [start, end).
func (i BookingInterval) Overlaps(start, end time.Time) bool {
	return i.Start.Before(end) && start.Before(i.End)
}

// SlotRequest asks to book one slot of a provider.
type SlotRequest struct {
	Date        string `json:"date" binding:"required"`
	Start       int    `json:"start"`
	End         int    `json:"end" binding:"required"`
	RequesterID string `json:"requesterId" binding:"required"`
	Emergency   bool   `json:"emergency"`
}
