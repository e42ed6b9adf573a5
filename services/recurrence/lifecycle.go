package recurrence

import (
	"strings"
	"time"

	"bloomify-scheduler/models"
)

// NewRule validates req and builds an active rule created at now.
// An empty request timezone falls back to defaultTimezone.
func NewRule(req models.CreateRecurringRuleRequest, id string, now time.Time, defaultTimezone string) (*models.RecurringServiceRule, error) {
	if !req.Frequency.Valid() {
		return nil, &InvalidFrequencyError{Frequency: req.Frequency}
	}
	switch {
	case strings.TrimSpace(req.Title) == "":
		return nil, &InvalidRuleError{Field: "title", Reason: "is required"}
	case req.ProviderID == "":
		return nil, &InvalidRuleError{Field: "providerId", Reason: "is required"}
	case req.DayOfWeek < time.Sunday || req.DayOfWeek > time.Saturday:
		return nil, &InvalidRuleError{Field: "dayOfWeek", Reason: "must be between 0 (Sunday) and 6 (Saturday)"}
	case req.StartTime < 0 || req.StartTime >= models.MinutesPerDay:
		return nil, &InvalidRuleError{Field: "startTime", Reason: "must be minutes within the day"}
	case req.DurationMinutes <= 0:
		return nil, &InvalidRuleError{Field: "durationMinutes", Reason: "must be positive"}
	case req.StartTime+req.DurationMinutes > models.MinutesPerDay:
		return nil, &InvalidRuleError{Field: "durationMinutes", Reason: "must end by midnight"}
	}
	if !req.EndDate.After(now) {
		return nil, &PastEndDateError{EndDate: req.EndDate, CreatedAt: now}
	}

	tz := req.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	rule := &models.RecurringServiceRule{
		ID:              id,
		Title:           strings.TrimSpace(req.Title),
		ProviderID:      req.ProviderID,
		ClientID:        req.ClientID,
		Frequency:       req.Frequency,
		DayOfWeek:       req.DayOfWeek,
		StartTime:       req.StartTime,
		DurationMinutes: req.DurationMinutes,
		EndDate:         req.EndDate,
		Timezone:        tz,
		State:           models.RuleStateActive,
		CreatedAt:       now,
		Version:         1,
		UpdatedAt:       now,
	}
	if _, err := Location(*rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// Pause stops the rule producing occurrences from now on. Pausing a paused
// rule is a no-op and reports changed == false.
func Pause(rule models.RecurringServiceRule, now time.Time) (models.RecurringServiceRule, bool, error) {
	switch rule.State {
	case models.RuleStateCancelled:
		return rule, false, ErrRuleCancelled
	case models.RuleStatePaused:
		return rule, false, nil
	}
	next := clone(rule)
	next.State = models.RuleStatePaused
	next.Pauses = append(next.Pauses, models.PauseInterval{PausedAt: now})
	next.UpdatedAt = now
	return next, true, nil
}

// Resume reactivates a paused rule. Occurrences that fell inside the pause are
// skipped and the sequence continues with the next natural occurrence at or after now.
func Resume(rule models.RecurringServiceRule, now time.Time) (models.RecurringServiceRule, bool, error) {
	switch rule.State {
	case models.RuleStateCancelled:
		return rule, false, ErrRuleCancelled
	case models.RuleStateActive:
		return rule, false, nil
	}
	next := clone(rule)
	next.State = models.RuleStateActive
	if n := len(next.Pauses); n > 0 && next.Pauses[n-1].ResumedAt == nil {
		resumed := now
		next.Pauses[n-1].ResumedAt = &resumed
	}
	next.UpdatedAt = now
	return next, true, nil
}

// Cancel ends the rule permanently.
func Cancel(rule models.RecurringServiceRule, now time.Time) (models.RecurringServiceRule, bool, error) {
	if rule.State == models.RuleStateCancelled {
		return rule, false, nil
	}
	next := clone(rule)
	next.State = models.RuleStateCancelled
	cancelled := now
	next.CancelledAt = &cancelled
	next.UpdatedAt = now
	return next, true, nil
}

func clone(rule models.RecurringServiceRule) models.RecurringServiceRule {
	out := rule
	out.Pauses = make([]models.PauseInterval, len(rule.Pauses))
	copy(out.Pauses, rule.Pauses)
	return out
}
