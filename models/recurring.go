package models

import "time"

// Frequency is how often a recurring service repeats.
type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiweekly  Frequency = "biweekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyBimonthly Frequency = "bimonthly"
)

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly, FrequencyBimonthly:
		return true
	}
	return false
}

type RuleState string

const (
	RuleStateActive    RuleState = "active"
	RuleStatePaused    RuleState = "paused"
	RuleStateCancelled RuleState = "cancelled"
)

// PauseInterval records one paused stretch of a rule. ResumedAt is nil while paused.
type PauseInterval struct {
	PausedAt  time.Time  `bson:"pausedAt" json:"pausedAt"`
	ResumedAt *time.Time `bson:"resumedAt,omitempty" json:"resumedAt,omitempty"`
}

// RecurringServiceRule describes a client's repeating booking with one provider.
// Occurrences are derived from it on demand and never stored.
type RecurringServiceRule struct {
	ID              string          `bson:"id" json:"id"`
	Title           string          `bson:"title" json:"title"`
	ProviderID      string          `bson:"providerId" json:"providerId"`
	ClientID        string          `bson:"clientId" json:"clientId"`
	Frequency       Frequency       `bson:"frequency" json:"frequency"`
	DayOfWeek       time.Weekday    `bson:"dayOfWeek" json:"dayOfWeek"`
	StartTime       int             `bson:"startTime" json:"startTime"` // minutes from midnight
	DurationMinutes int             `bson:"durationMinutes" json:"durationMinutes"`
	EndDate         time.Time       `bson:"endDate" json:"endDate"`
	Timezone        string          `bson:"timezone,omitempty" json:"timezone,omitempty"`
	State           RuleState       `bson:"state" json:"state"`
	CreatedAt       time.Time       `bson:"createdAt" json:"createdAt"`
	Pauses          []PauseInterval `bson:"pauses,omitempty" json:"pauses,omitempty"`
	CancelledAt     *time.Time      `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
	Version         int             `bson:"version" json:"version"`
	UpdatedAt       time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// CreateRecurringRuleRequest is the client payload for a new rule.
type CreateRecurringRuleRequest struct {
	Title           string       `json:"title" binding:"required"`
	ProviderID      string       `json:"providerId" binding:"required"`
	ClientID        string       `json:"clientId" binding:"required"`
	Frequency       Frequency    `json:"frequency" binding:"required"`
	DayOfWeek       time.Weekday `json:"dayOfWeek"`
	StartTime       int          `json:"startTime"`
	DurationMinutes int          `json:"durationMinutes" binding:"required"`
	EndDate         time.Time    `json:"endDate" binding:"required"`
	Timezone        string       `json:"timezone,omitempty"`
}
