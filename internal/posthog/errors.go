package posthog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotConfigured is returned when the credentials an operation needs are absent.
var ErrNotConfigured = errors.New("posthog: not configured")

// IntegrityError means PostHog answered a lookup with a person whose
// distinct ids do not include the queried identifier. It is never swallowed.
type IntegrityError struct {
	Queried     string
	DistinctIDs []string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("posthog: distinct ids [%s] do not include %s",
		strings.Join(e.DistinctIDs, ", "), e.Queried)
}

// OperationalError wraps transport and protocol failures. Boundary
// functions log and discard it.
type OperationalError struct {
	Op  string
	Err error
}

func (e *OperationalError) Error() string {
	return fmt.Sprintf("posthog %s: %v", e.Op, e.Err)
}

func (e *OperationalError) Unwrap() error { return e.Err }

// IsIntegrity reports whether err carries an *IntegrityError.
func IsIntegrity(err error) bool {
	var ie *IntegrityError
	return errors.As(err, &ie)
}
