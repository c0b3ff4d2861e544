package models

// CaptureRequest is the POST /events payload.
// request_id is optional; best practice is to pass Idempotency-Key header for retries.
type CaptureRequest struct {
	RequestID        string         `json:"request_id,omitempty"`
	DistinctID       string         `json:"distinct_id"`
	Event            string         `json:"event"`
	Properties       map[string]any `json:"properties,omitempty"`
	SendFeatureFlags bool           `json:"send_feature_flags,omitempty"`
}

// RequestResponse is returned by POST /events and DELETE /persons/:distinct_id.
// Duplicate indicates the request id was seen before and nothing was forwarded.
type RequestResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// PersonResponse is returned by GET /persons/:distinct_id.
type PersonResponse struct {
	DistinctID string `json:"distinct_id"`
	PersonID   string `json:"person_id"`
}
