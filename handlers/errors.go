package handlers

import (
	"errors"
	"net/http"

	availabilityRepo "bloomify-scheduler/database/repository/availability"
	bookingRepo "bloomify-scheduler/database/repository/booking"
	recurringRepo "bloomify-scheduler/database/repository/recurring"
	"bloomify-scheduler/services/availability"
	"bloomify-scheduler/services/booking"
	"bloomify-scheduler/services/recurrence"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, availabilityRepo.ErrScheduleNotFound),
		errors.Is(err, availabilityRepo.ErrOverrideNotFound),
		errors.Is(err, recurringRepo.ErrRuleNotFound),
		errors.Is(err, bookingRepo.ErrBookingNotFound):
		return http.StatusNotFound
	case errors.Is(err, recurrence.ErrRuleCancelled),
		errors.Is(err, recurringRepo.ErrVersionConflict):
		return http.StatusConflict
	case availability.IsValidation(err), recurrence.IsValidation(err), booking.IsInvalidRequest(err):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error, message string) {
	status := statusFor(err)
	logger := getLogger(c)
	if status >= http.StatusInternalServerError {
		logger.Error(message, zap.Error(err), zap.String("path", c.FullPath()))
	} else {
		logger.Warn(message, zap.Error(err), zap.String("path", c.FullPath()))
	}
	c.JSON(status, gin.H{"error": message, "message": err.Error()})
}
