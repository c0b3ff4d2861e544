package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/PratikDhanave/analytics-bridge/internal/auth"
	"github.com/PratikDhanave/analytics-bridge/internal/models"
	"github.com/PratikDhanave/analytics-bridge/internal/posthog"
	"github.com/PratikDhanave/analytics-bridge/internal/store"
)

const statusIntegrityError = "integrity_error"

func deleteStatus(s posthog.Status) string {
	switch s {
	case posthog.StatusDone:
		return "deleted"
	case posthog.StatusNotFound:
		return "not_found"
	case posthog.StatusDisabled:
		return "disabled"
	default:
		return "failed"
	}
}

// RegisterPersonRoutes registers person lookup and erasure.
//
// GET    /persons/:distinct_id  resolve the PostHog person id
// DELETE /persons/:distinct_id  delete the person and its events
func RegisterPersonRoutes(r gin.IRoutes, d Deps) {
	r.GET("/persons/:distinct_id", func(c *gin.Context) {
		if auth.TenantID(c) == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		distinctID := c.Param("distinct_id")
		ctx := c.Request.Context()

		id, found, err := d.Analytics.ResolveUserID(ctx, distinctID)
		switch {
		case errors.Is(err, posthog.ErrNotConfigured):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "posthog admin API not configured"})
			return
		case posthog.IsIntegrity(err):
			d.logger().ErrorContext(ctx, "person lookup returned mismatched distinct ids", "error", err)
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		case err != nil:
			d.logger().ErrorContext(ctx, "person lookup failed", "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "posthog lookup failed"})
			return
		case !found:
			c.JSON(http.StatusNotFound, gin.H{"error": "person not found"})
			return
		}

		c.JSON(http.StatusOK, models.PersonResponse{DistinctID: distinctID, PersonID: id})
	})

	r.DELETE("/persons/:distinct_id", func(c *gin.Context) {
		tenantID := auth.TenantID(c)
		if tenantID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		distinctID := c.Param("distinct_id")
		ctx := c.Request.Context()
		id := requestID(c, "")

		claimed := d.claim(ctx, store.Request{
			TenantID:  tenantID,
			RequestID: id,
			Kind:      store.KindDelete,
			Subject:   distinctID,
			At:        time.Now().UTC(),
		})
		if !claimed {
			c.JSON(http.StatusOK, models.RequestResponse{RequestID: id, Status: "duplicate", Duplicate: true})
			return
		}

		res, err := d.Analytics.Erase(ctx, distinctID)
		if err != nil {
			d.logger().ErrorContext(ctx, "person erase aborted", "request_id", id, "error", err)
			d.settle(ctx, tenantID, id, statusIntegrityError)
			c.JSON(http.StatusConflict, gin.H{"request_id": id, "error": err.Error()})
			return
		}
		if res.Status == posthog.StatusFailed {
			d.logger().ErrorContext(ctx, "person erase failed", "request_id", id, "error", res.Err)
		}

		status := deleteStatus(res.Status)
		d.settle(ctx, tenantID, id, status)

		c.JSON(http.StatusAccepted, models.RequestResponse{RequestID: id, Status: status})
	})
}
