package server

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryAuditStoreFindByKey(t *testing.T) {
	store := newMemoryAuditStore()
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	entries := []AuditEntry{
		{EventCode: "scene.channel.switch", IdempotencyKey: "k1", CompanyID: "acme", RecordedAt: base},
		{EventCode: "scene.channel.switch", IdempotencyKey: "k1", CompanyID: "acme", RecordedAt: base.Add(time.Hour), TraceID: "latest"},
		{EventCode: "scene.channel.switch", IdempotencyKey: "k1", CompanyID: "other", RecordedAt: base.Add(time.Hour)},
	}
	for _, e := range entries {
		if err := store.Append(context.Background(), e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, found, err := store.FindByKey(context.Background(), "acme", "scene.channel.switch", "k1", base.Add(30*time.Minute))
	if err != nil || !found {
		t.Fatalf("found=%v err=%v", found, err)
	}
	if got.TraceID != "latest" {
		t.Fatalf("got=%+v", got)
	}

	_, found, err = store.FindByKey(context.Background(), "acme", "scene.channel.switch", "k1", base.Add(2*time.Hour))
	if err != nil || found {
		t.Fatalf("stale entry must miss; found=%v err=%v", found, err)
	}
}

func TestMemoryAuditStoreRange(t *testing.T) {
	store := newMemoryAuditStore()
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		err := store.Append(context.Background(), AuditEntry{
			EventCode:  "scene.contract.export",
			CompanyID:  "acme",
			RecordedAt: base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := store.Range(context.Background(), "acme", "scene.contract.export", base, base.Add(90*time.Minute))
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len=%d", len(got))
	}
}

type failingAuditStore struct{}

func (failingAuditStore) Append(context.Context, AuditEntry) error { return errors.New("db down") }
func (failingAuditStore) FindByKey(context.Context, string, string, string, time.Time) (AuditEntry, bool, error) {
	return AuditEntry{}, false, nil
}
func (failingAuditStore) Range(context.Context, string, string, time.Time, time.Time) ([]AuditEntry, error) {
	return nil, nil
}

func TestAuditRecorderDegradedPath(t *testing.T) {
	recorder := newAuditRecorder(failingAuditStore{}, nil)
	recorder.record(context.Background(), AuditEntry{EventCode: "scene.channel.pin", CompanyID: "acme"})

	degraded := recorder.degradedEntries()
	if len(degraded) != 1 || degraded[0].EventCode != "scene.channel.pin" {
		t.Fatalf("degraded=%+v", degraded)
	}
}

func TestGovernanceVerbSucceedsWhenAuditDegrades(t *testing.T) {
	registry, err := parseRegistryYAML([]byte(testRegistryYAML))
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	recorder := newAuditRecorder(failingAuditStore{}, nil)
	governor := newChannelGovernor(newMemoryParamStore(), registry, recorder, nil)

	result, err := governor.switchChannel(context.Background(), Company{ID: "acme"}, "u1", "beta", "beta rollout wave 1", "t")
	if err != nil {
		t.Fatalf("switch: %v", err)
	}
	if result.ToChannel != "beta" {
		t.Fatalf("result=%+v", result)
	}
	if len(recorder.degradedEntries()) != 1 {
		t.Fatalf("degraded journal must record the entry")
	}
}
