package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// AuditEntry is one append-only governance record. Result carries the
// serialized verb outcome so idempotent replays can return it verbatim.
type AuditEntry struct {
	EventCode      string          `json:"event_code"`
	IdempotencyKey string          `json:"idempotency_key"`
	CompanyID      string          `json:"company_id"`
	ActorID        string          `json:"actor_id"`
	TraceID        string          `json:"trace_id"`
	Before         json.RawMessage `json:"before,omitempty"`
	After          json.RawMessage `json:"after,omitempty"`
	Result         json.RawMessage `json:"result,omitempty"`
	RecordedAt     time.Time       `json:"recorded_at"`
}

// AuditStore is append-only with two reads: by idempotency key within a
// window, and by event code over a time range.
type AuditStore interface {
	Append(ctx context.Context, entry AuditEntry) error
	FindByKey(ctx context.Context, companyID string, eventCode string, key string, since time.Time) (AuditEntry, bool, error)
	Range(ctx context.Context, companyID string, eventCode string, from time.Time, to time.Time) ([]AuditEntry, error)
}

type memoryAuditStore struct {
	mu      sync.RWMutex
	entries []AuditEntry
}

func newMemoryAuditStore() *memoryAuditStore {
	return &memoryAuditStore{}
}

func (s *memoryAuditStore) Append(_ context.Context, entry AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *memoryAuditStore) FindByKey(_ context.Context, companyID string, eventCode string, key string, since time.Time) (AuditEntry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.entries) - 1; i >= 0; i-- {
		entry := s.entries[i]
		if entry.CompanyID != companyID || entry.EventCode != eventCode || entry.IdempotencyKey != key {
			continue
		}
		if entry.RecordedAt.Before(since) {
			continue
		}
		return entry, true, nil
	}
	return AuditEntry{}, false, nil
}

func (s *memoryAuditStore) Range(_ context.Context, companyID string, eventCode string, from time.Time, to time.Time) ([]AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]AuditEntry, 0)
	for _, entry := range s.entries {
		if entry.CompanyID != companyID || entry.EventCode != eventCode {
			continue
		}
		if entry.RecordedAt.Before(from) || entry.RecordedAt.After(to) {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

type pgAuditStore struct {
	pool *pgxpool.Pool
}

func newPGAuditStore(pool *pgxpool.Pool) *pgAuditStore {
	return &pgAuditStore{pool: pool}
}

func (s *pgAuditStore) Append(ctx context.Context, entry AuditEntry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO scene_audit_log
		   (event_code, idempotency_key, company_id, actor_id, trace_id, before, after, result, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.EventCode, entry.IdempotencyKey, entry.CompanyID, entry.ActorID, entry.TraceID,
		entry.Before, entry.After, entry.Result, entry.RecordedAt,
	)
	return err
}

func (s *pgAuditStore) FindByKey(ctx context.Context, companyID string, eventCode string, key string, since time.Time) (AuditEntry, bool, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT event_code, idempotency_key, company_id, actor_id, trace_id, before, after, result, recorded_at
		   FROM scene_audit_log
		  WHERE company_id = $1 AND event_code = $2 AND idempotency_key = $3 AND recorded_at >= $4
		  ORDER BY recorded_at DESC
		  LIMIT 1`,
		companyID, eventCode, key, since,
	)
	if err != nil {
		return AuditEntry{}, false, err
	}
	defer rows.Close()
	if !rows.Next() {
		return AuditEntry{}, false, rows.Err()
	}
	entry, err := scanAuditEntry(rows)
	if err != nil {
		return AuditEntry{}, false, err
	}
	return entry, true, nil
}

func (s *pgAuditStore) Range(ctx context.Context, companyID string, eventCode string, from time.Time, to time.Time) ([]AuditEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT event_code, idempotency_key, company_id, actor_id, trace_id, before, after, result, recorded_at
		   FROM scene_audit_log
		  WHERE company_id = $1 AND event_code = $2 AND recorded_at BETWEEN $3 AND $4
		  ORDER BY recorded_at ASC`,
		companyID, eventCode, from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]AuditEntry, 0)
	for rows.Next() {
		entry, err := scanAuditEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

type auditRowScanner interface {
	Scan(dest ...any) error
}

func scanAuditEntry(row auditRowScanner) (AuditEntry, error) {
	var entry AuditEntry
	err := row.Scan(
		&entry.EventCode, &entry.IdempotencyKey, &entry.CompanyID, &entry.ActorID, &entry.TraceID,
		&entry.Before, &entry.After, &entry.Result, &entry.RecordedAt,
	)
	return entry, err
}

// auditRecorder wraps the configured store with a degraded path: when the
// append fails the verb still succeeds, but the entry lands in an in-process
// journal and the failure is logged. Never a silent success.
type auditRecorder struct {
	store  AuditStore
	logger *zap.Logger

	mu       sync.Mutex
	degraded []AuditEntry
}

func newAuditRecorder(store AuditStore, logger *zap.Logger) *auditRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &auditRecorder{store: store, logger: logger}
}

func (r *auditRecorder) record(ctx context.Context, entry AuditEntry) {
	if err := r.store.Append(ctx, entry); err != nil {
		r.logger.Warn("audit append degraded",
			zap.String("event_code", entry.EventCode),
			zap.String("company_id", entry.CompanyID),
			zap.String("trace_id", entry.TraceID),
			zap.Error(err),
		)
		r.mu.Lock()
		r.degraded = append(r.degraded, entry)
		r.mu.Unlock()
	}
}

func (r *auditRecorder) degradedEntries() []AuditEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]AuditEntry(nil), r.degraded...)
}
