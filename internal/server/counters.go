package server

import (
	"context"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func counterKeyContract(mode string) string {
	return "counter.contract." + strings.TrimSpace(mode)
}

// CounterStore tracks usage counters per company. The memory store bumps with
// read-current/compute-new/write under its own lock; the pg store exposes the
// database's atomic increment for callers that need accuracy across replicas.
type CounterStore interface {
	Increment(ctx context.Context, companyID string, key string, delta int64) (int64, error)
	Get(ctx context.Context, companyID string, key string) (int64, error)
}

type memoryCounterStore struct {
	mu     sync.Mutex
	values map[string]int64
}

func newMemoryCounterStore() *memoryCounterStore {
	return &memoryCounterStore{values: make(map[string]int64)}
}

func (s *memoryCounterStore) Increment(_ context.Context, companyID string, key string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := companyID + "\x1f" + key
	current := s.values[k]
	next := current + delta
	s.values[k] = next
	return next, nil
}

func (s *memoryCounterStore) Get(_ context.Context, companyID string, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[companyID+"\x1f"+key], nil
}

type pgCounterStore struct {
	pool *pgxpool.Pool
}

func newPGCounterStore(pool *pgxpool.Pool) *pgCounterStore {
	return &pgCounterStore{pool: pool}
}

func (s *pgCounterStore) Increment(ctx context.Context, companyID string, key string, delta int64) (int64, error) {
	var value int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO scene_counters (company_id, key, value)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (company_id, key) DO UPDATE SET value = scene_counters.value + EXCLUDED.value
		 RETURNING value`,
		strings.TrimSpace(companyID), strings.TrimSpace(key), delta,
	).Scan(&value)
	return value, err
}

func (s *pgCounterStore) Get(ctx context.Context, companyID string, key string) (int64, error) {
	var value int64
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM scene_counters WHERE company_id = $1 AND key = $2`,
		strings.TrimSpace(companyID), strings.TrimSpace(key),
	).Scan(&value)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	return value, err
}
