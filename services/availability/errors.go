package availability

import (
	"fmt"
	"time"
)

// InvalidRangeError is returned when a query range ends before it starts.
type InvalidRangeError struct {
	Start time.Time
	End   time.Time
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range: end %s is before start %s",
		e.End.Format(time.RFC3339), e.Start.Format(time.RFC3339))
}

// InvalidSettingsError reports a booking setting that cannot drive slot generation.
type InvalidSettingsError struct {
	Field  string
	Reason string
}

func (e *InvalidSettingsError) Error() string {
	return fmt.Sprintf("invalid booking settings: %s %s", e.Field, e.Reason)
}

// InvalidTemplateError reports a malformed template day or override.
type InvalidTemplateError struct {
	Where  string // e.g. "Monday" or "2025-02-25"
	Reason string
}

func (e *InvalidTemplateError) Error() string {
	return fmt.Sprintf("invalid availability for %s: %s", e.Where, e.Reason)
}
