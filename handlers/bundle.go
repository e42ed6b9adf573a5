// File: handlers/bundle.go
package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Availability endpoints
	SubmitAvailabilityHandler gin.HandlerFunc
	GetAvailabilityHandler    gin.HandlerFunc
	AddOverrideHandler        gin.HandlerFunc
	RemoveOverrideHandler     gin.HandlerFunc
	QuerySlotsHandler         gin.HandlerFunc

	// Booking endpoints
	CommitSlotHandler gin.HandlerFunc
	GetBookingHandler gin.HandlerFunc

	// Recurring endpoints
	CreateRuleHandler  gin.HandlerFunc
	GetRuleHandler     gin.HandlerFunc
	PauseRuleHandler   gin.HandlerFunc
	ResumeRuleHandler  gin.HandlerFunc
	CancelRuleHandler  gin.HandlerFunc
	OccurrencesHandler gin.HandlerFunc

	HealthHandler gin.HandlerFunc
}

// NewHandlerBundle assembles the bundle from the domain handlers.
func NewHandlerBundle(a *AvailabilityHandler, b *BookingHandler, r *RecurringHandler) *HandlerBundle {
	return &HandlerBundle{
		SubmitAvailabilityHandler: a.SubmitAvailabilityHandler,
		GetAvailabilityHandler:    a.GetAvailabilityHandler,
		AddOverrideHandler:        a.AddOverrideHandler,
		RemoveOverrideHandler:     a.RemoveOverrideHandler,
		QuerySlotsHandler:         a.QuerySlotsHandler,

		CommitSlotHandler: b.CommitSlotHandler,
		GetBookingHandler: b.GetBookingHandler,

		CreateRuleHandler:  r.CreateRuleHandler,
		GetRuleHandler:     r.GetRuleHandler,
		PauseRuleHandler:   r.PauseRuleHandler,
		ResumeRuleHandler:  r.ResumeRuleHandler,
		CancelRuleHandler:  r.CancelRuleHandler,
		OccurrencesHandler: r.OccurrencesHandler,

		HealthHandler: HealthHandler,
	}
}
