package handlers

import (
	"net/http"
	"strconv"
	"time"

	"bloomify-scheduler/models"
	"bloomify-scheduler/services/recurrence"
	"bloomify-scheduler/utils"

	"github.com/gin-gonic/gin"
)

// defaultOccurrenceWindow is how far ahead occurrences are listed when no "to" is given.
const defaultOccurrenceWindow = 90 * 24 * time.Hour

// RecurringHandler serves recurring rule endpoints.
type RecurringHandler struct {
	Service recurrence.RecurringService
	Clock   utils.Clock
}

func NewRecurringHandler(svc recurrence.RecurringService, clock utils.Clock) *RecurringHandler {
	return &RecurringHandler{Service: svc, Clock: clock}
}

func (h *RecurringHandler) now() time.Time {
	if h.Clock == nil {
		return time.Now()
	}
	return h.Clock.Now()
}

func (h *RecurringHandler) CreateRuleHandler(c *gin.Context) {
	var req models.CreateRecurringRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}
	rule, err := h.Service.CreateRule(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Failed to create recurring rule")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"rule": rule})
}

func (h *RecurringHandler) GetRuleHandler(c *gin.Context) {
	rule, err := h.Service.GetRule(c.Request.Context(), c.Param("ruleID"))
	if err != nil {
		respondError(c, err, "Failed to fetch recurring rule")
		return
	}
	c.JSON(http.StatusOK, gin.H{"rule": rule})
}

func (h *RecurringHandler) PauseRuleHandler(c *gin.Context) {
	rule, err := h.Service.PauseRule(c.Request.Context(), c.Param("ruleID"))
	if err != nil {
		respondError(c, err, "Failed to pause recurring rule")
		return
	}
	c.JSON(http.StatusOK, gin.H{"rule": rule})
}

func (h *RecurringHandler) ResumeRuleHandler(c *gin.Context) {
	rule, err := h.Service.ResumeRule(c.Request.Context(), c.Param("ruleID"))
	if err != nil {
		respondError(c, err, "Failed to resume recurring rule")
		return
	}
	c.JSON(http.StatusOK, gin.H{"rule": rule})
}

func (h *RecurringHandler) CancelRuleHandler(c *gin.Context) {
	rule, err := h.Service.CancelRule(c.Request.Context(), c.Param("ruleID"))
	if err != nil {
		respondError(c, err, "Failed to cancel recurring rule")
		return
	}
	c.JSON(http.StatusOK, gin.H{"rule": rule})
}

// OccurrencesHandler lists occurrences between RFC3339 "from" and "to" (default: now and 90 days later).
func (h *RecurringHandler) OccurrencesHandler(c *gin.Context) {
	from := h.now()
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be an RFC3339 timestamp"})
			return
		}
		from = t
	}
	to := from.Add(defaultOccurrenceWindow)
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be an RFC3339 timestamp"})
			return
		}
		to = t
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

	occurrences, err := h.Service.UpcomingOccurrences(c.Request.Context(), c.Param("ruleID"), from, to, limit)
	if err != nil {
		respondError(c, err, "Failed to list occurrences")
		return
	}
	c.JSON(http.StatusOK, gin.H{"occurrences": occurrences, "count": len(occurrences)})
}
