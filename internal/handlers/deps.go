package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/PratikDhanave/analytics-bridge/internal/posthog"
	"github.com/PratikDhanave/analytics-bridge/internal/store"
)

// Analytics is the part of the PostHog client the handlers call.
type Analytics interface {
	ResolveUserID(ctx context.Context, email string) (string, bool, error)
	Erase(ctx context.Context, email string) (posthog.Result, error)
	Track(ctx context.Context, e posthog.Event) posthog.Result
}

// Ledger records forwarded requests. Implemented by *store.PostgresStore.
type Ledger interface {
	RecordRequest(ctx context.Context, r store.Request) (bool, error)
	UpdateRequestStatus(ctx context.Context, tenantID, requestID, status string) error
	CountRequests(ctx context.Context, tenantID, kind, status string, from, to time.Time) (int64, error)
}

// Deps are shared by every route group. Ledger may be nil.
type Deps struct {
	Analytics Analytics
	Ledger    Ledger
	Logger    *slog.Logger
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

// requestID picks the idempotency key for a request.
// Precedence: Idempotency-Key header, payload value, generated UUID.
func requestID(c *gin.Context, fromPayload string) string {
	if id := c.GetHeader("Idempotency-Key"); id != "" {
		return id
	}
	if fromPayload != "" {
		return fromPayload
	}
	return uuid.New().String()
}

// claim records r as pending and reports whether this caller owns the
// request id. A replayed id is not claimed. Ledger errors are logged and the
// request is still forwarded.
func (d Deps) claim(ctx context.Context, r store.Request) bool {
	if d.Ledger == nil {
		return true
	}
	r.Status = store.StatusPending
	inserted, err := d.Ledger.RecordRequest(ctx, r)
	if err != nil {
		d.logger().ErrorContext(ctx, "ledger insert failed", "request_id", r.RequestID, "kind", r.Kind, "error", err)
		return true
	}
	return inserted
}

// settle stores the outcome of a claimed request.
func (d Deps) settle(ctx context.Context, tenantID, id, status string) {
	if d.Ledger == nil {
		return
	}
	if err := d.Ledger.UpdateRequestStatus(ctx, tenantID, id, status); err != nil {
		d.logger().ErrorContext(ctx, "ledger update failed", "request_id", id, "status", status, "error", err)
	}
}
