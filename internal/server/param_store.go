package server

import (
	"context"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	paramKeyChannelDefault = "channel.default"
	paramKeyChannelPin     = "channel.pin.stable"
)

func paramKeyChannelUser(actorID string) string {
	return "channel.user." + strings.TrimSpace(actorID)
}

func paramKeyChannelCompany(companyID string) string {
	return "channel.company." + strings.TrimSpace(companyID)
}

// ParamStore holds per-company governance parameters: channel selectors,
// feature switches, and the pinned stable snapshot blob.
type ParamStore interface {
	Get(ctx context.Context, companyID string, key string) (string, bool, error)
	Set(ctx context.Context, companyID string, key string, value string) error
	Delete(ctx context.Context, companyID string, key string) error
}

type memoryParamStore struct {
	mu    sync.RWMutex
	byKey map[string]map[string]string
}

func newMemoryParamStore() *memoryParamStore {
	return &memoryParamStore{byKey: make(map[string]map[string]string)}
}

func (s *memoryParamStore) Get(_ context.Context, companyID string, key string) (string, bool, error) {
	companyID = strings.TrimSpace(companyID)
	key = strings.TrimSpace(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	params, ok := s.byKey[companyID]
	if !ok {
		return "", false, nil
	}
	value, ok := params[key]
	return value, ok, nil
}

func (s *memoryParamStore) Set(_ context.Context, companyID string, key string, value string) error {
	companyID = strings.TrimSpace(companyID)
	key = strings.TrimSpace(key)
	if companyID == "" || key == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	params, ok := s.byKey[companyID]
	if !ok {
		params = make(map[string]string)
		s.byKey[companyID] = params
	}
	params[key] = value
	return nil
}

func (s *memoryParamStore) Delete(_ context.Context, companyID string, key string) error {
	companyID = strings.TrimSpace(companyID)
	key = strings.TrimSpace(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	params, ok := s.byKey[companyID]
	if !ok {
		return nil
	}
	delete(params, key)
	if len(params) == 0 {
		delete(s.byKey, companyID)
	}
	return nil
}

type pgParamStore struct {
	pool *pgxpool.Pool
}

func newPGParamStore(pool *pgxpool.Pool) *pgParamStore {
	return &pgParamStore{pool: pool}
}

func (s *pgParamStore) Get(ctx context.Context, companyID string, key string) (string, bool, error) {
	var value string
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM scene_params WHERE company_id = $1 AND key = $2`,
		strings.TrimSpace(companyID), strings.TrimSpace(key),
	).Scan(&value)
	if err == pgx.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *pgParamStore) Set(ctx context.Context, companyID string, key string, value string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO scene_params (company_id, key, value, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (company_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		strings.TrimSpace(companyID), strings.TrimSpace(key), value,
	)
	return err
}

func (s *pgParamStore) Delete(ctx context.Context, companyID string, key string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM scene_params WHERE company_id = $1 AND key = $2`,
		strings.TrimSpace(companyID), strings.TrimSpace(key),
	)
	return err
}
