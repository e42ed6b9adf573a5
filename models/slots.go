package models

import (
	"fmt"
	"time"
)

// Slot is a concrete bookable interval derived from a template or override window.
// It is never persisted.
type Slot struct {
	Date              string    `json:"date"`  // e.g., "2025-02-25"
	Start             int       `json:"start"` // minutes from midnight
	End               int       `json:"end"`   // minutes from midnight
	StartsAt          time.Time `json:"startsAt"`
	EndsAt            time.Time `json:"endsAt"`
	RemainingCapacity int       `json:"remainingCapacity"`
}

// Label renders the slot as "09:00-10:00".
func (s Slot) Label() string {
	return fmt.Sprintf("%s-%s", FormatMinutes(s.Start), FormatMinutes(s.End))
}

// FormatMinutes renders minutes from midnight as HH:MM.
func FormatMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// DateRange is an inclusive range of calendar dates in the provider's timezone.
type DateRange struct {
	From string `form:"from" json:"from" binding:"required"`
	To   string `form:"to" json:"to" binding:"required"`
}
