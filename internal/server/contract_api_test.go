package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/hardhat-labs/scenecontract/modules/scene/domain/types"
	"github.com/hardhat-labs/scenecontract/modules/scene/services"
)

func testAPI(t *testing.T) *API {
	t.Helper()
	registry, err := parseRegistryYAML([]byte(testRegistryYAML))
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	params := newMemoryParamStore()
	audit := newMemoryAuditStore()
	recorder := newAuditRecorder(audit, nil)
	evaluator := services.NewAccessEvaluator(registry.lifecycleMatrix())
	return &API{
		logger:    zap.NewNop(),
		params:    params,
		counters:  newMemoryCounterStore(),
		registry:  registry,
		governor:  newChannelGovernor(params, registry, recorder, nil),
		idem:      newIdempotencyGovernor(audit, recorder),
		resolver:  newChannelResolver(params),
		evaluator: evaluator,
		assembler: services.NewSceneAssembler(evaluator),
		cache:     newContractCache(),
	}
}

func financeActorForContract() types.Actor {
	return types.Actor{
		ID:        "u1",
		CompanyID: "acme",
		Groups:    []string{"finance"},
		Flags:     map[string]bool{"pay_enabled": true},
	}
}

func contractRequest(actor types.Actor) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/ui/contract", nil)
	ctx := withCompany(r.Context(), Company{ID: "acme"})
	ctx = withActor(ctx, actor)
	return r.WithContext(ctx)
}

func TestContractCacheHitShortCircuits(t *testing.T) {
	api := testAPI(t)
	actor := financeActorForContract()

	snapshot, ok := api.registry.snapshot(types.ChannelStable)
	if !ok {
		t.Fatalf("stable snapshot missing")
	}
	actorFP, err := actorStateFingerprint(actor)
	if err != nil {
		t.Fatalf("actor fingerprint: %v", err)
	}
	key := contractCacheKey(subjectFingerprint("acme", snapshot), contractModeUser, actorFP)

	// Seed the cache with a fingerprint that deliberately differs from what a
	// fresh assembly would produce. A not-modified answer then proves the
	// decision came from the cache, not from recomputation.
	api.cache.remember(key, "cached-fp")

	r := contractRequest(actor)
	r.Header.Set(contractFingerprintHeader, "cached-fp")
	rec := httptest.NewRecorder()
	api.handleContractAPI(rec, r)

	if rec.Code != http.StatusNotModified {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get(contractFingerprintHeader); got != "cached-fp" {
		t.Fatalf("header=%q", got)
	}
	count, err := api.counters.Get(context.Background(), "acme", counterKeyContract(contractModeUser))
	if err != nil || count != 0 {
		t.Fatalf("count=%d err=%v", count, err)
	}
}

func TestContractServePopulatesCache(t *testing.T) {
	api := testAPI(t)
	actor := financeActorForContract()

	rec := httptest.NewRecorder()
	api.handleContractAPI(rec, contractRequest(actor))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	fp := rec.Header().Get(contractFingerprintHeader)
	if fp == "" {
		t.Fatalf("missing fingerprint header")
	}

	snapshot, _ := api.registry.snapshot(types.ChannelStable)
	actorFP, err := actorStateFingerprint(actor)
	if err != nil {
		t.Fatalf("actor fingerprint: %v", err)
	}
	key := contractCacheKey(subjectFingerprint("acme", snapshot), contractModeUser, actorFP)
	last, ok := api.cache.lastServed(key)
	if !ok || last != fp {
		t.Fatalf("last=%q ok=%v want %q", last, ok, fp)
	}

	// Second request with the served fingerprint answers from the cache.
	r := contractRequest(actor)
	r.Header.Set(contractFingerprintHeader, fp)
	rec = httptest.NewRecorder()
	api.handleContractAPI(rec, r)
	if rec.Code != http.StatusNotModified {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}
