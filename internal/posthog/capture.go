package posthog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	sdk "github.com/posthog/posthog-go"
)

// Event is one analytics event for a subject.
type Event struct {
	DistinctID       string
	Name             string
	Properties       map[string]any
	SendFeatureFlags bool
}

// Capturer is the short-lived handle events are enqueued on. Close flushes
// pending messages and releases the handle.
type Capturer interface {
	Enqueue(sdk.Message) error
	Close() error
}

// CapturerFactory builds a Capturer bound to an ingestion key and host.
type CapturerFactory func(apiKey, endpoint string) (Capturer, error)

// NewSDKCapturer builds a handle backed by the PostHog Go SDK.
func NewSDKCapturer(apiKey, endpoint string) (Capturer, error) {
	return sdk.NewWithConfig(apiKey, sdk.Config{Endpoint: endpoint})
}

// Track sends e through a fresh capture handle and closes the handle before
// returning, whatever the enqueue outcome was.
func (c *Client) Track(ctx context.Context, e Event) (res Result) {
	if !c.settings.CaptureEnabled() {
		return Result{Status: StatusDisabled}
	}

	capturer, err := c.newCapturer(c.settings.PublicKey, c.settings.IngestHost)
	if err != nil {
		return Result{Status: StatusFailed, Err: &OperationalError{Op: "capture", Err: err}}
	}
	defer func() {
		if cerr := capturer.Close(); cerr != nil && res.Status != StatusFailed {
			res = Result{Status: StatusFailed, Err: &OperationalError{Op: "flush", Err: cerr}}
		}
	}()

	msg := sdk.Capture{
		Uuid:             uuid.NewString(),
		DistinctId:       e.DistinctID,
		Event:            e.Name,
		Properties:       sdk.Properties(e.Properties),
		SendFeatureFlags: e.SendFeatureFlags,
	}
	if err := capturer.Enqueue(msg); err != nil {
		return Result{Status: StatusFailed, Err: &OperationalError{Op: "capture", Err: err}}
	}

	c.logger.DebugContext(ctx, "Enqueued PostHog event", "event", e.Name, "uuid", msg.Uuid)
	return Result{Status: StatusDone}
}

// CaptureEvent is the best-effort form of Track. It never fails; problems
// are logged.
func (c *Client) CaptureEvent(ctx context.Context, e Event) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.ErrorContext(ctx, "Error capturing PostHog event", "event", e.Name, "error", panicError(r))
		}
	}()

	res := c.Track(ctx, e)
	switch res.Status {
	case StatusDisabled:
		c.logger.WarnContext(ctx, "PostHog ingestion key not set")
	case StatusFailed:
		c.logger.ErrorContext(ctx, "Error capturing PostHog event", "event", e.Name, "error", res.Err)
	}
}

func panicError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return errors.New(fmt.Sprint(r))
}
