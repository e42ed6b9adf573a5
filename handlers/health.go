package handlers

import (
	"net/http"

	"bloomify-scheduler/utils"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports the latest Mongo and Redis health snapshot.
func HealthHandler(c *gin.Context) {
	status := utils.GetHealthStatus()
	healthy := status.Mongo
	for _, ok := range status.Redis {
		healthy = healthy && ok
	}
	code := http.StatusOK
	label := "ok"
	if !healthy {
		code = http.StatusServiceUnavailable
		label = "degraded"
	}
	c.JSON(code, gin.H{"status": label, "checks": status})
}
