package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/PratikDhanave/analytics-bridge/internal/auth"
	"github.com/PratikDhanave/analytics-bridge/internal/models"
	"github.com/PratikDhanave/analytics-bridge/internal/posthog"
	"github.com/PratikDhanave/analytics-bridge/internal/store"
)

// captureStatus names a Track outcome in API responses and the ledger.
func captureStatus(s posthog.Status) string {
	switch s {
	case posthog.StatusDone:
		return "captured"
	case posthog.StatusDisabled:
		return "disabled"
	default:
		return "failed"
	}
}

// RegisterEventRoutes registers the capture endpoint.
//
// POST /events
// - Requires X-API-Key (tenant context)
// - Forwards the event to PostHog through a short-lived capture handle
// - Idempotent when the ledger is enabled: the request id is claimed before
//   forwarding, so a replayed id is never forwarded again
func RegisterEventRoutes(r gin.IRoutes, d Deps) {
	r.POST("/events", func(c *gin.Context) {
		tenantID := auth.TenantID(c)
		if tenantID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req models.CaptureRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
			return
		}

		// Required fields per contract.
		if req.DistinctID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "distinct_id required"})
			return
		}
		if req.Event == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "event required"})
			return
		}

		ctx := c.Request.Context()
		id := requestID(c, req.RequestID)

		claimed := d.claim(ctx, store.Request{
			TenantID:   tenantID,
			RequestID:  id,
			Kind:       store.KindCapture,
			Subject:    req.DistinctID,
			Event:      req.Event,
			At:         time.Now().UTC(),
			Properties: req.Properties,
		})
		if !claimed {
			c.JSON(http.StatusOK, models.RequestResponse{RequestID: id, Status: "duplicate", Duplicate: true})
			return
		}

		res := d.Analytics.Track(ctx, posthog.Event{
			DistinctID:       req.DistinctID,
			Name:             req.Event,
			Properties:       req.Properties,
			SendFeatureFlags: req.SendFeatureFlags,
		})
		if res.Status == posthog.StatusFailed {
			d.logger().ErrorContext(ctx, "capture failed", "request_id", id, "event", req.Event, "error", res.Err)
		}

		status := captureStatus(res.Status)
		d.settle(ctx, tenantID, id, status)

		c.JSON(http.StatusAccepted, models.RequestResponse{RequestID: id, Status: status})
	})
}
