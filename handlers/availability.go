package handlers

import (
	"net/http"
	"strconv"

	"bloomify-scheduler/models"
	"bloomify-scheduler/services/availability"
	"bloomify-scheduler/utils"

	"github.com/gin-gonic/gin"
)

// AvailabilityHandler serves provider schedules and slot queries.
type AvailabilityHandler struct {
	Service availability.AvailabilityService
}

func NewAvailabilityHandler(svc availability.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{Service: svc}
}

func (h *AvailabilityHandler) SubmitAvailabilityHandler(c *gin.Context) {
	providerID := c.Param("providerID")

	var req models.SubmitAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	schedule, err := h.Service.SubmitAvailability(c.Request.Context(), providerID, req)
	if err != nil {
		respondError(c, err, "Failed to submit availability")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Availability updated", "schedule": schedule})
}

func (h *AvailabilityHandler) GetAvailabilityHandler(c *gin.Context) {
	schedule, err := h.Service.GetSchedule(c.Request.Context(), c.Param("providerID"))
	if err != nil {
		respondError(c, err, "Failed to fetch availability")
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedule": schedule})
}

func (h *AvailabilityHandler) AddOverrideHandler(c *gin.Context) {
	var override models.Override
	if err := c.ShouldBindJSON(&override); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}
	override.ProviderID = c.Param("providerID")

	stored, err := h.Service.AddOverride(c.Request.Context(), override)
	if err != nil {
		respondError(c, err, "Failed to store override")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"override": stored})
}

func (h *AvailabilityHandler) RemoveOverrideHandler(c *gin.Context) {
	if err := h.Service.RemoveOverride(c.Request.Context(), c.Param("providerID"), c.Param("date")); err != nil {
		respondError(c, err, "Failed to remove override")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Override removed"})
}

func (h *AvailabilityHandler) QuerySlotsHandler(c *gin.Context) {
	var dates models.DateRange
	if err := c.ShouldBindQuery(&dates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameters from and to are required", "message": err.Error()})
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	slots, err := h.Service.QueryAvailableSlots(c.Request.Context(), c.Param("providerID"), dates, limit)
	if err != nil {
		respondError(c, err, "Failed to compute slots")
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots, "count": len(slots)})
}
