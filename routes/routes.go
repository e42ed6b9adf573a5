package routes

import (
	"strings"
	"time"

	"bloomify-scheduler/config"
	"bloomify-scheduler/handlers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.HealthHandler)
}

// RegisterProviderRoutes registers availability, slot and booking endpoints of a provider.
func RegisterProviderRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/providers/:providerID")
	{
		api.PUT("/availability", hb.SubmitAvailabilityHandler)
		api.GET("/availability", hb.GetAvailabilityHandler)
		api.POST("/overrides", hb.AddOverrideHandler)
		api.DELETE("/overrides/:date", hb.RemoveOverrideHandler)
		api.GET("/slots", hb.QuerySlotsHandler)
		api.POST("/bookings", hb.CommitSlotHandler)
		api.GET("/bookings/:bookingID", hb.GetBookingHandler)
	}
}

// RegisterRecurringRoutes registers recurring rule endpoints.
func RegisterRecurringRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/recurring")
	{
		api.POST("", hb.CreateRuleHandler)
		api.GET("/:ruleID", hb.GetRuleHandler)
		api.POST("/:ruleID/pause", hb.PauseRuleHandler)
		api.POST("/:ruleID/resume", hb.ResumeRuleHandler)
		api.POST("/:ruleID/cancel", hb.CancelRuleHandler)
		api.GET("/:ruleID/occurrences", hb.OccurrencesHandler)
	}
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if origins := allowedOrigins(); len(origins) == 0 || origins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
	}
	r.Use(cors.New(corsConfig))

	RegisterHealthRoute(r, hb)
	RegisterProviderRoutes(r, hb)
	RegisterRecurringRoutes(r, hb)
}

func allowedOrigins() []string {
	raw := config.AppConfig.CORSAllowOrigins
	if raw == "" {
		return []string{"*"}
	}
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
