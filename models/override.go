package models

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrDuplicateOverride is returned when two overrides target the same date.
var ErrDuplicateOverride = errors.New("duplicate override for date")

// Override is a date-specific exception to the weekly template.
type Override struct {
	ProviderID  string       `bson:"providerId" json:"providerId"`
	Date        string       `bson:"date" json:"date" binding:"required"` // e.g., "2025-02-25"
	Available   bool         `bson:"available" json:"available"`
	Reason      string       `bson:"reason,omitempty" json:"reason,omitempty"` // e.g., "public holiday"
	TimeWindows []TimeWindow `bson:"timeWindows,omitempty" json:"timeWindows,omitempty"`
	CreatedAt   time.Time    `bson:"createdAt" json:"createdAt"`
}

// Day returns the availability this override imposes on its date.
// Windows only count when the override opens the day.
func (o Override) Day() DayAvailability {
	if !o.Available {
		return DayAvailability{}
	}
	return DayAvailability{Available: true, TimeWindows: o.TimeWindows}
}

// OverrideSet is ordered by date with at most one entry per date.
type OverrideSet []Override

// NewOverrideSet sorts the given overrides and rejects duplicate dates.
func NewOverrideSet(overrides []Override) (OverrideSet, error) {
	set := make(OverrideSet, len(overrides))
	copy(set, overrides)
	sort.SliceStable(set, func(i, j int) bool { return set[i].Date < set[j].Date })
	for i := 1; i < len(set); i++ {
		if set[i].Date == set[i-1].Date {
			return nil, fmt.Errorf("%w %s", ErrDuplicateOverride, set[i].Date)
		}
	}
	return set, nil
}

func (s OverrideSet) search(date string) int {
	return sort.Search(len(s), func(i int) bool { return s[i].Date >= date })
}

// ForDate returns the override for date, if any.
func (s OverrideSet) ForDate(date string) (Override, bool) {
	i := s.search(date)
	if i < len(s) && s[i].Date == date {
		return s[i], true
	}
	return Override{}, false
}

// Put returns a new set with o inserted, replacing any override on the same date.
func (s OverrideSet) Put(o Override) OverrideSet {
	i := s.search(o.Date)
	out := make(OverrideSet, 0, len(s)+1)
	out = append(out, s[:i]...)
	out = append(out, o)
	if i < len(s) && s[i].Date == o.Date {
		i++
	}
	return append(out, s[i:]...)
}

// Remove returns a new set without the override for date.
func (s OverrideSet) Remove(date string) OverrideSet {
	i := s.search(date)
	if i >= len(s) || s[i].Date != date {
		return s
	}
	out := make(OverrideSet, 0, len(s)-1)
	out = append(out, s[:i]...)
	return append(out, s[i+1:]...)
}
