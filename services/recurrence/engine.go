package recurrence

import (
	"iter"
	"time"

	"bloomify-scheduler/models"
	"bloomify-scheduler/services/availability"

	"github.com/teambition/rrule-go"
)

// lastOrdinal marks a monthly anchor in the fifth week, which repeats on the
// last matching weekday of each month.
const lastOrdinal = 5

// weekdays maps time.Weekday onto the recurrence library's weekday values.
var weekdays = [7]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// expansion is the precomputed shape of a rule's occurrence sequence.
type expansion struct {
	rule   models.RecurringServiceRule
	loc    *time.Location
	anchor time.Time // local midnight of the first occurrence date
	endsBy time.Time // occurrences must start before this instant
	rr     *rrule.RRule
}

// Location returns the timezone the rule is expanded in.
// An empty timezone means the location of CreatedAt.
func Location(rule models.RecurringServiceRule) (*time.Location, error) {
	if rule.Timezone == "" {
		return rule.CreatedAt.Location(), nil
	}
	loc, err := time.LoadLocation(rule.Timezone)
	if err != nil {
		return nil, &InvalidRuleError{Field: "timezone", Reason: "unknown zone " + rule.Timezone}
	}
	return loc, nil
}

// Anchor returns the first occurrence of a rule: its start time on the first
// date strictly after the creation date that falls on the rule's weekday.
func Anchor(rule models.RecurringServiceRule) (time.Time, error) {
	exp, err := expand(rule)
	if err != nil {
		return time.Time{}, err
	}
	return exp.at(exp.anchor), nil
}

func expand(rule models.RecurringServiceRule) (*expansion, error) {
	if !rule.Frequency.Valid() {
		return nil, &InvalidFrequencyError{Frequency: rule.Frequency}
	}
	if rule.DayOfWeek < time.Sunday || rule.DayOfWeek > time.Saturday {
		return nil, &InvalidRuleError{Field: "dayOfWeek", Reason: "must be 0-6"}
	}
	loc, err := Location(rule)
	if err != nil {
		return nil, err
	}
	created := availability.DayStart(rule.CreatedAt, loc).AddDate(0, 0, 1)
	delta := (int(rule.DayOfWeek) - int(created.Weekday()) + 7) % 7
	anchor := created.AddDate(0, 0, delta)

	e := &expansion{
		rule:   rule,
		loc:    loc,
		anchor: anchor,
		endsBy: availability.DayStart(rule.EndDate, loc).AddDate(0, 0, 1),
	}
	if e.rr, err = rrule.NewRRule(e.options()); err != nil {
		return nil, &InvalidRuleError{Field: "frequency", Reason: err.Error()}
	}
	return e, nil
}

// options translates the rule into a recurrence set starting at the anchor.
// Monthly rules repeat on the anchor's week of the month, or on the last
// matching weekday when the anchor falls in the fifth week.
func (e *expansion) options() rrule.ROption {
	wd := weekdays[e.rule.DayOfWeek]
	opt := rrule.ROption{
		Freq:      rrule.WEEKLY,
		Interval:  1,
		Dtstart:   e.at(e.anchor),
		Until:     e.endsBy.Add(-time.Second),
		Byweekday: []rrule.Weekday{wd},
	}
	switch e.rule.Frequency {
	case models.FrequencyBiweekly:
		opt.Interval = 2
	case models.FrequencyMonthly, models.FrequencyBimonthly:
		ordinal := (e.anchor.Day()-1)/7 + 1
		if ordinal >= lastOrdinal {
			ordinal = -1
		}
		opt.Freq = rrule.MONTHLY
		opt.Byweekday = []rrule.Weekday{wd.Nth(ordinal)}
		if e.rule.Frequency == models.FrequencyBimonthly {
			opt.Interval = 2
		}
	}
	return opt
}

func (e *expansion) at(day time.Time) time.Time {
	return availability.AtMinute(day, e.rule.StartTime)
}

// hidden reports whether an occurrence was suppressed by a pause or cancellation.
func (e *expansion) hidden(t time.Time) bool {
	if e.stopped(t) {
		return true
	}
	for _, p := range e.rule.Pauses {
		if t.Before(p.PausedAt) {
			continue
		}
		if p.ResumedAt == nil || t.Before(*p.ResumedAt) {
			return true
		}
	}
	return false
}

// stopped reports whether t and every later occurrence are suppressed, either
// by cancellation or by a pause that has not been resumed.
func (e *expansion) stopped(t time.Time) bool {
	if c := e.rule.CancelledAt; c != nil && !t.Before(*c) {
		return true
	}
	if n := len(e.rule.Pauses); n > 0 {
		last := e.rule.Pauses[n-1]
		return last.ResumedAt == nil && !t.Before(last.PausedAt)
	}
	return false
}

// consistent reports whether a non-active rule carries the timestamp of its state change.
// Without one there is no safe boundary and nothing is produced.
func (e *expansion) consistent() bool {
	switch e.rule.State {
	case models.RuleStateActive:
		return true
	case models.RuleStatePaused:
		n := len(e.rule.Pauses)
		return n > 0 && e.rule.Pauses[n-1].ResumedAt == nil
	case models.RuleStateCancelled:
		return e.rule.CancelledAt != nil
	}
	return false
}

// between yields visible occurrences in [from, to).
func (e *expansion) between(from, to time.Time) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		if !e.consistent() {
			return
		}
		next := e.rr.Iterator()
		for t, ok := next(); ok; t, ok = next() {
			if !t.Before(to) || !t.Before(e.endsBy) || e.stopped(t) {
				return
			}
			if t.Before(from) || e.hidden(t) {
				continue
			}
			if !yield(t) {
				return
			}
		}
	}
}

// OccurrencesBetween returns the rule's occurrences in [from, to) in ascending
// order. Occurrences that fell inside a pause or after cancellation are left out.
// The sequence is lazy and yields the same values every time it is ranged over.
// An invalid rule yields nothing.
func OccurrencesBetween(rule models.RecurringServiceRule, from, to time.Time) iter.Seq[time.Time] {
	exp, err := expand(rule)
	if err != nil {
		return func(func(time.Time) bool) {}
	}
	return exp.between(from, to)
}

// NextOccurrence returns the first occurrence at or after after. Rules that are
// not active have no next occurrence.
func NextOccurrence(rule models.RecurringServiceRule, after time.Time) (time.Time, bool) {
	if rule.State != models.RuleStateActive {
		return time.Time{}, false
	}
	exp, err := expand(rule)
	if err != nil {
		return time.Time{}, false
	}
	for t := range exp.between(after, exp.endsBy) {
		return t, true
	}
	return time.Time{}, false
}

// IsOccurrence reports whether at is exactly one of the rule's upcoming occurrences.
func IsOccurrence(rule models.RecurringServiceRule, at time.Time) bool {
	next, ok := NextOccurrence(rule, at)
	return ok && next.Equal(at)
}
