package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/PratikDhanave/analytics-bridge/internal/auth"
	"github.com/PratikDhanave/analytics-bridge/internal/store"
)

// RegisterMetricRoutes registers the ledger query endpoint.
//
// GET /metrics?kind=...&status=...&from=...&to=...
// - Requires X-API-Key (tenant context)
// - Returns count of recorded requests for the window [from,to)
// - 503 when the ledger is disabled
func RegisterMetricRoutes(r gin.IRoutes, d Deps) {
	r.GET("/metrics", func(c *gin.Context) {
		tenantID := auth.TenantID(c)
		if tenantID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if d.Ledger == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "request ledger not configured"})
			return
		}

		kind := c.Query("kind")
		status := c.Query("status")
		fromStr := c.Query("from")
		toStr := c.Query("to")

		// Required query params per contract.
		if kind == "" || fromStr == "" || toStr == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "kind, from, to are required"})
			return
		}
		if kind != store.KindCapture && kind != store.KindDelete {
			c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be capture or delete"})
			return
		}

		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be RFC3339"})
			return
		}
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be RFC3339"})
			return
		}

		from = from.UTC()
		to = to.UTC()

		// Validate window to avoid confusing results.
		if !from.Before(to) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be < to"})
			return
		}

		count, err := d.Ledger.CountRequests(c.Request.Context(), tenantID, kind, status, from, to)
		if err != nil {
			d.logger().ErrorContext(c.Request.Context(), "ledger count failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db query failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"kind":   kind,
			"status": status,
			"count":  count,
		})
	})
}
