package recurrence

import (
	"errors"
	"fmt"
	"time"

	"bloomify-scheduler/models"
)

// ErrRuleCancelled is returned when a transition is attempted on a cancelled rule.
var ErrRuleCancelled = errors.New("recurring rule is cancelled")

// InvalidFrequencyError is returned for a frequency outside weekly, biweekly, monthly, bimonthly.
type InvalidFrequencyError struct {
	Frequency models.Frequency
}

func (e *InvalidFrequencyError) Error() string {
	return fmt.Sprintf("invalid frequency %q", e.Frequency)
}

// PastEndDateError is returned when a rule would end at or before its creation.
type PastEndDateError struct {
	EndDate   time.Time
	CreatedAt time.Time
}

func (e *PastEndDateError) Error() string {
	return fmt.Sprintf("end date %s must be after creation time %s",
		e.EndDate.Format(time.RFC3339), e.CreatedAt.Format(time.RFC3339))
}

// InvalidRuleError reports any other malformed rule field.
type InvalidRuleError struct {
	Field  string
	Reason string
}

func (e *InvalidRuleError) Error() string {
	return fmt.Sprintf("invalid recurring rule: %s %s", e.Field, e.Reason)
}

// IsValidation reports whether err was caused by a bad rule definition.
func IsValidation(err error) bool {
	var freqErr *InvalidFrequencyError
	var endErr *PastEndDateError
	var ruleErr *InvalidRuleError
	return errors.As(err, &freqErr) || errors.As(err, &endErr) || errors.As(err, &ruleErr)
}
