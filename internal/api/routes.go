package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tradeforge-io/signal-engine-go/internal/api/handlers"
)

// HealthChecker reports whether a dependency is reachable.
type HealthChecker func(ctx context.Context) error

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Services  Services  `json:"services"`
}

type Services struct {
	Database string `json:"database"`
	Redis    string `json:"redis"`
}

// SetupRoutes registers the HTTP surface. The redis checker may be nil
// when no cache layer is configured.
func SetupRoutes(router *gin.Engine, signals *handlers.SignalHandler, version string, db HealthChecker, redis HealthChecker) {
	router.GET("/health", healthCheck(version, db, redis))
	router.GET("/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/ready", healthCheck(version, db, redis))

	v1 := router.Group("/api/v1")
	{
		sig := v1.Group("/signals")
		{
			sig.GET("/:symbol/evaluate", signals.EvaluateSignal)
			sig.POST("/decide", signals.DecideSignal)
			sig.GET("/summary", signals.GetSummary)
		}
	}
}

func healthCheck(version string, db HealthChecker, redis HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := HealthResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC(),
			Version:   version,
			Services: Services{
				Database: "ok",
				Redis:    "disabled",
			},
		}

		if db != nil {
			if err := db(c.Request.Context()); err != nil {
				response.Services.Database = "error"
				response.Status = "degraded"
			}
		}
		if redis != nil {
			response.Services.Redis = "ok"
			if err := redis(c.Request.Context()); err != nil {
				response.Services.Redis = "error"
				response.Status = "degraded"
			}
		}

		statusCode := http.StatusOK
		if response.Status == "degraded" {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, response)
	}
}
