package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/PratikDhanave/analytics-bridge/internal/auth"
	"github.com/PratikDhanave/analytics-bridge/internal/handlers"
)

// Pinger is satisfied by the ledger store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewRouter wires public endpoints and authenticated APIs.
// Public: /health, /ready
// Authenticated: /events, /persons/:distinct_id, /metrics
// ready may be nil when no database is configured.
func NewRouter(apiKeys map[string]string, deps handlers.Deps, ready Pinger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())

	// Liveness: confirms the process is running.
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Readiness: confirms the DB dependency is reachable when there is one.
	r.GET("/ready", func(c *gin.Context) {
		if ready == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ready"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		if err := ready.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	// Auth group enforces tenant context via X-API-Key.
	authGroup := r.Group("/")
	authGroup.Use(auth.APIKeyMiddleware(apiKeys))

	handlers.RegisterEventRoutes(authGroup, deps)
	handlers.RegisterPersonRoutes(authGroup, deps)
	handlers.RegisterMetricRoutes(authGroup, deps)

	return r
}
