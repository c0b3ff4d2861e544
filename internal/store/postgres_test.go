package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Validation runs before the pool is touched, so a zero store is enough.
func TestRecordRequest_Validation(t *testing.T) {
	s := &PostgresStore{}
	valid := Request{
		TenantID:  "tenant1",
		RequestID: "r-1",
		Kind:      KindCapture,
		Subject:   "ada@example.com",
		Status:    "done",
	}

	cases := map[string]func(Request) Request{
		"missing tenant":  func(r Request) Request { r.TenantID = ""; return r },
		"missing request": func(r Request) Request { r.RequestID = ""; return r },
		"missing subject": func(r Request) Request { r.Subject = ""; return r },
		"unknown kind":    func(r Request) Request { r.Kind = "identify"; return r },
		"missing status":  func(r Request) Request { r.Status = ""; return r },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			inserted, err := s.RecordRequest(context.Background(), mutate(valid))
			assert.Error(t, err)
			assert.False(t, inserted)
		})
	}
}

func TestSchemaIsEmbedded(t *testing.T) {
	assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS analytics_requests")
}

func TestUpdateRequestStatus_Validation(t *testing.T) {
	s := &PostgresStore{}
	assert.Error(t, s.UpdateRequestStatus(context.Background(), "", "r-1", "captured"))
	assert.Error(t, s.UpdateRequestStatus(context.Background(), "tenant1", "", "captured"))
	assert.Error(t, s.UpdateRequestStatus(context.Background(), "tenant1", "r-1", ""))
}
