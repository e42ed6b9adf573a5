package models

import "time"

// OccurrencePayload is carried by the occurrence:due task.
type OccurrencePayload struct {
	RuleID     string    `json:"ruleId"`
	ProviderID string    `json:"providerId"`
	OccursAt   time.Time `json:"occursAt"`
}
