package posthog

import (
	"context"
	"errors"
	"testing"

	sdk "github.com/posthog/posthog-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCapturer struct {
	enqueueErr   error
	closeErr     error
	enqueuePanic any

	messages []sdk.Message
	closed   int
}

func (f *fakeCapturer) Enqueue(m sdk.Message) error {
	if f.enqueuePanic != nil {
		panic(f.enqueuePanic)
	}
	f.messages = append(f.messages, m)
	return f.enqueueErr
}

func (f *fakeCapturer) Close() error {
	f.closed++
	return f.closeErr
}

// factoryFor returns a factory handing out fc and counting constructions.
func factoryFor(fc *fakeCapturer, built *int, gotKey, gotEndpoint *string) CapturerFactory {
	return func(apiKey, endpoint string) (Capturer, error) {
		*built++
		if gotKey != nil {
			*gotKey = apiKey
		}
		if gotEndpoint != nil {
			*gotEndpoint = endpoint
		}
		return fc, nil
	}
}

func TestCaptureEvent_MissingKeyBuildsNoHandle(t *testing.T) {
	fc := &fakeCapturer{}
	built := 0
	sink, logger := newLogSink()

	c := New(Settings{}, logger, WithCapturerFactory(factoryFor(fc, &built, nil, nil)))
	c.CaptureEvent(context.Background(), Event{DistinctID: "ada@example.com", Name: "signed_up"})

	assert.Zero(t, built)
	assert.Zero(t, fc.closed)
	assert.Equal(t, 1, sink.count("WARN"))
}

func TestTrack_EnqueuesAndCloses(t *testing.T) {
	fc := &fakeCapturer{}
	built := 0
	var key, endpoint string

	c := New(Settings{PublicKey: "phc_pub", IngestHost: "https://eu.posthog.com/"}, nil,
		WithCapturerFactory(factoryFor(fc, &built, &key, &endpoint)))

	res := c.Track(context.Background(), Event{
		DistinctID:       "ada@example.com",
		Name:             "upgraded",
		Properties:       map[string]any{"plan": "pro"},
		SendFeatureFlags: true,
	})

	assert.Equal(t, StatusDone, res.Status)
	assert.NoError(t, res.Err)
	assert.Equal(t, 1, built)
	assert.Equal(t, 1, fc.closed)
	assert.Equal(t, "phc_pub", key)
	assert.Equal(t, "https://eu.posthog.com", endpoint)

	require.Len(t, fc.messages, 1)
	msg, ok := fc.messages[0].(sdk.Capture)
	require.True(t, ok)
	assert.Equal(t, "ada@example.com", msg.DistinctId)
	assert.Equal(t, "upgraded", msg.Event)
	assert.Equal(t, "pro", msg.Properties["plan"])
	assert.True(t, msg.SendFeatureFlags)
	assert.NotEmpty(t, msg.Uuid)
}

func TestTrack_ClosesHandleWhenEnqueueFails(t *testing.T) {
	fc := &fakeCapturer{enqueueErr: errors.New("queue full")}
	built := 0

	c := New(Settings{PublicKey: "phc_pub"}, nil, WithCapturerFactory(factoryFor(fc, &built, nil, nil)))
	res := c.Track(context.Background(), Event{DistinctID: "ada@example.com", Name: "x"})

	assert.Equal(t, StatusFailed, res.Status)
	var oe *OperationalError
	require.True(t, errors.As(res.Err, &oe))
	assert.Equal(t, "capture", oe.Op)
	assert.Equal(t, 1, fc.closed)
}

func TestTrack_CloseFailureIsReported(t *testing.T) {
	fc := &fakeCapturer{closeErr: errors.New("flush timeout")}
	built := 0

	c := New(Settings{PublicKey: "phc_pub"}, nil, WithCapturerFactory(factoryFor(fc, &built, nil, nil)))
	res := c.Track(context.Background(), Event{DistinctID: "ada@example.com", Name: "x"})

	assert.Equal(t, StatusFailed, res.Status)
	var oe *OperationalError
	require.True(t, errors.As(res.Err, &oe))
	assert.Equal(t, "flush", oe.Op)
}

func TestCaptureEvent_FailuresAreSwallowed(t *testing.T) {
	t.Run("enqueue error", func(t *testing.T) {
		fc := &fakeCapturer{enqueueErr: errors.New("boom")}
		built := 0
		sink, logger := newLogSink()

		c := New(Settings{PublicKey: "phc_pub"}, logger, WithCapturerFactory(factoryFor(fc, &built, nil, nil)))
		c.CaptureEvent(context.Background(), Event{DistinctID: "ada@example.com", Name: "x"})

		assert.Equal(t, 1, fc.closed)
		assert.Equal(t, 1, sink.count("ERROR"))
	})

	t.Run("factory error", func(t *testing.T) {
		sink, logger := newLogSink()
		failing := func(string, string) (Capturer, error) { return nil, errors.New("bad endpoint") }

		c := New(Settings{PublicKey: "phc_pub"}, logger, WithCapturerFactory(failing))
		c.CaptureEvent(context.Background(), Event{DistinctID: "ada@example.com", Name: "x"})

		assert.Equal(t, 1, sink.count("ERROR"))
	})

	t.Run("panic during enqueue", func(t *testing.T) {
		fc := &fakeCapturer{enqueuePanic: "nil map"}
		built := 0
		sink, logger := newLogSink()

		c := New(Settings{PublicKey: "phc_pub"}, logger, WithCapturerFactory(factoryFor(fc, &built, nil, nil)))
		assert.NotPanics(t, func() {
			c.CaptureEvent(context.Background(), Event{DistinctID: "ada@example.com", Name: "x"})
		})

		assert.Equal(t, 1, fc.closed)
		assert.Equal(t, 1, sink.count("ERROR"))
	})
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "disabled", StatusDisabled.String())
	assert.Equal(t, "not_found", StatusNotFound.String())
	assert.Equal(t, "done", StatusDone.String())
	assert.Equal(t, "failed", StatusFailed.String())
}
