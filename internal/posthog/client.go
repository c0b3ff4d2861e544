// Package posthog is a thin client for the PostHog person and capture APIs.
//
// Every operation is a single attempt. Missing credentials disable an
// operation instead of failing it, and the best-effort entry points
// (DeleteUser, CaptureEvent) log operational failures rather than return them.
package posthog

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PratikDhanave/analytics-bridge/internal/logging"
)

// DefaultHost is used for both the REST API and ingestion when none is set.
const DefaultHost = "https://app.posthog.com"

// Settings holds the PostHog credentials. Every field is optional.
type Settings struct {
	APISecret  string // personal API key used as bearer token
	ProjectID  string
	PublicKey  string // project ingestion key
	APIHost    string
	IngestHost string
	Timeout    time.Duration
}

// AdminEnabled reports whether person lookup and deletion can run.
func (s Settings) AdminEnabled() bool {
	return s.APISecret != "" && s.ProjectID != ""
}

// CaptureEnabled reports whether events can be sent.
func (s Settings) CaptureEnabled() bool {
	return s.PublicKey != ""
}

// Client talks to one PostHog project. It holds no per-call state and is
// safe for concurrent use.
type Client struct {
	settings    Settings
	httpClient  *http.Client
	logger      *slog.Logger
	newCapturer CapturerFactory
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for the REST API.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithCapturerFactory replaces how capture handles are built.
func WithCapturerFactory(f CapturerFactory) Option {
	return func(c *Client) { c.newCapturer = f }
}

// New builds a Client. A nil logger falls back to slog.Default().
func New(settings Settings, logger *slog.Logger, opts ...Option) *Client {
	if settings.APIHost == "" {
		settings.APIHost = DefaultHost
	}
	if settings.IngestHost == "" {
		settings.IngestHost = DefaultHost
	}
	settings.APIHost = strings.TrimRight(settings.APIHost, "/")
	settings.IngestHost = strings.TrimRight(settings.IngestHost, "/")
	if settings.Timeout <= 0 {
		settings.Timeout = 10 * time.Second
	}

	c := &Client{
		settings:    settings,
		httpClient:  &http.Client{Timeout: settings.Timeout},
		logger:      logging.Scoped(logger, "posthog"),
		newCapturer: NewSDKCapturer,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Settings returns the normalised settings the client runs with.
func (c *Client) Settings() Settings {
	return c.settings
}

func (c *Client) personsEndpoint() string {
	return c.settings.APIHost + "/api/projects/" + c.settings.ProjectID + "/persons/"
}
