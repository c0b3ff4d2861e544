package posthog

// Status is the outcome of one Erase or Track call.
type Status int

const (
	// StatusDisabled means the credentials were absent and nothing was sent.
	StatusDisabled Status = iota
	// StatusNotFound means no person matched the distinct id.
	StatusNotFound
	// StatusDone means the request was accepted by PostHog.
	StatusDone
	// StatusFailed means an operational or integrity error stopped the request.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusDisabled:
		return "disabled"
	case StatusNotFound:
		return "not_found"
	case StatusDone:
		return "done"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result describes what an inner operation did. Err is set only for
// StatusFailed and is an *OperationalError or an *IntegrityError.
type Result struct {
	Status   Status
	PersonID string
	Err      error
}

// Ran reports whether the operation got past its configuration gate.
func (r Result) Ran() bool {
	return r.Status != StatusDisabled
}
