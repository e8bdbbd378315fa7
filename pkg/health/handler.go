package health

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Status is the payload served by the health endpoint.
type Status struct {
	Status         string `json:"status"`
	ModelLoaded    bool   `json:"model_loaded"`
	QueueConnected bool   `json:"queue_connected"`
	RedisConnected bool   `json:"redis_connected"`
	Version        string `json:"version"`
}

// Probes report the liveness of each dependency. A nil probe means the
// dependency is not configured and reports as disconnected.
type Probes struct {
	ModelLoaded    func() bool
	QueueConnected func() bool
	RedisHealthy   Checker
}

// Handler returns a gin handler that reports service health. The endpoint
// always answers 200; degraded dependencies are reflected in the body so
// the service keeps serving requests that don't need them.
func Handler(version string, probes Probes) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := Status{
			Status:  "healthy",
			Version: version,
		}

		if probes.ModelLoaded != nil {
			status.ModelLoaded = probes.ModelLoaded()
		}
		if probes.QueueConnected != nil {
			status.QueueConnected = probes.QueueConnected()
		}
		if probes.RedisHealthy != nil {
			status.RedisConnected = probes.RedisHealthy() == nil
		}

		if !status.RedisConnected || !status.QueueConnected {
			status.Status = "degraded"
		}

		c.JSON(http.StatusOK, status)
	}
}
