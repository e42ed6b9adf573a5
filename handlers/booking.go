package handlers

import (
	"net/http"

	bookingRepo "bloomify-scheduler/database/repository/booking"
	"bloomify-scheduler/models"
	"bloomify-scheduler/services/booking"
	"bloomify-scheduler/utils"

	"github.com/gin-gonic/gin"
)

// BookingHandler commits slot bookings and looks up committed ones.
type BookingHandler struct {
	Coordinator booking.BookingCoordinator
	Bookings    bookingRepo.BookingRepository
}

func NewBookingHandler(coordinator booking.BookingCoordinator, bookings bookingRepo.BookingRepository) *BookingHandler {
	return &BookingHandler{Coordinator: coordinator, Bookings: bookings}
}

// CommitSlotHandler answers 201 with the booking when confirmed and 409 with
// the rejected booking and its reason otherwise.
func (h *BookingHandler) CommitSlotHandler(c *gin.Context) {
	var req models.SlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	b, err := h.Coordinator.CommitSlot(c.Request.Context(), c.Param("providerID"), req)
	if err != nil {
		respondError(c, err, "Failed to commit booking")
		return
	}
	if !b.Confirmed() {
		c.JSON(http.StatusConflict, gin.H{"error": "Booking rejected", "reason": b.Reason, "booking": b})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Booking confirmed", "booking": b})
}

func (h *BookingHandler) GetBookingHandler(c *gin.Context) {
	b, err := h.Bookings.GetByID(c.Request.Context(), c.Param("bookingID"))
	if err != nil {
		respondError(c, err, "Failed to fetch booking")
		return
	}
	if b.ProviderID != c.Param("providerID") {
		respondError(c, bookingRepo.ErrBookingNotFound, "Failed to fetch booking")
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}
