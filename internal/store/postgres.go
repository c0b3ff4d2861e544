package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaSQL is embedded so the service can self-bootstrap its database schema.
//
//go:embed schema.sql
var schemaSQL string

// ErrRequestNotFound is returned when updating a request that was never recorded.
var ErrRequestNotFound = errors.New("request not recorded")

// StatusPending marks a request id claimed before it is forwarded.
const StatusPending = "pending"

// Request kinds recorded in the ledger.
const (
	KindCapture = "capture"
	KindDelete  = "delete"
)

// Request is one capture or deletion forwarded to PostHog.
type Request struct {
	TenantID   string
	RequestID  string
	Kind       string
	Subject    string // distinct id the request was about
	Event      string // empty for deletions
	Status     string
	At         time.Time
	Properties map[string]any
}

// PostgresStore is the request ledger.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a connection pool and fails fast if DB is unreachable.
func NewPostgresStore(dbURL string) (*PostgresStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// EnsureSchema applies schema.sql. Safe to run multiple times.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, schemaSQL)
	return err
}

// Ping is used by readiness endpoint to validate DB connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close shuts down the connection pool.
func (p *PostgresStore) Close() {
	p.pool.Close()
}

func validate(r Request) error {
	if r.TenantID == "" || r.RequestID == "" || r.Subject == "" {
		return errors.New("tenantID/requestID/subject required")
	}
	if r.Kind != KindCapture && r.Kind != KindDelete {
		return errors.New("kind must be capture or delete")
	}
	if r.Status == "" {
		return errors.New("status required")
	}
	return nil
}

// RecordRequest persists r and returns inserted=false when the request id
// was already recorded for the tenant. The insert is the claim on the id:
// only the caller that inserted may forward the request.
func (p *PostgresStore) RecordRequest(ctx context.Context, r Request) (bool, error) {
	if err := validate(r); err != nil {
		return false, err
	}

	if r.Properties == nil {
		r.Properties = map[string]any{}
	}
	if r.At.IsZero() {
		r.At = time.Now()
	}

	propsJSON, err := json.Marshal(r.Properties)
	if err != nil {
		return false, err
	}

	// RETURNING 1 only when inserted; duplicates return no rows.
	var one int
	err = p.pool.QueryRow(ctx, `
		INSERT INTO analytics_requests(tenant_id, request_id, kind, subject, event, status, ts, properties)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (tenant_id, request_id) DO NOTHING
		RETURNING 1
	`, r.TenantID, r.RequestID, r.Kind, r.Subject, r.Event, r.Status, r.At.UTC(), propsJSON).Scan(&one)

	if err == nil {
		return true, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return false, err
}

// UpdateRequestStatus sets the outcome of a request claimed by RecordRequest.
func (p *PostgresStore) UpdateRequestStatus(ctx context.Context, tenantID, requestID, status string) error {
	if tenantID == "" || requestID == "" || status == "" {
		return errors.New("tenantID/requestID/status required")
	}

	tag, err := p.pool.Exec(ctx, `
		UPDATE analytics_requests SET status=$3
		WHERE tenant_id=$1 AND request_id=$2
	`, tenantID, requestID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRequestNotFound
	}
	return nil
}

// CountRequests returns the number of requests of kind in [from,to).
// An empty status counts every outcome.
func (p *PostgresStore) CountRequests(
	ctx context.Context,
	tenantID string,
	kind string,
	status string,
	from time.Time,
	to time.Time,
) (int64, error) {

	var count int64
	err := p.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM analytics_requests
		WHERE tenant_id=$1
		  AND kind=$2
		  AND ($3 = '' OR status=$3)
		  AND ts >= $4
		  AND ts <  $5
	`, tenantID, kind, status, from, to).Scan(&count)

	return count, err
}
