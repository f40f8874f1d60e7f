package server

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/hardhat-labs/scenecontract/modules/scene/domain/types"
	"github.com/hardhat-labs/scenecontract/modules/scene/services"
	"github.com/hardhat-labs/scenecontract/pkg/reason"
)

const contractFingerprintHeader = "X-Contract-Fingerprint"

// API carries the engine collaborators behind the HTTP surface.
type API struct {
	logger    *zap.Logger
	params    ParamStore
	counters  CounterStore
	registry  *snapshotRegistry
	governor  *channelGovernor
	idem      *idempotencyGovernor
	resolver  *channelResolver
	evaluator *services.AccessEvaluator
	assembler *services.SceneAssembler
	cache     *contractCache
}

// handleContractAPI serves GET /api/ui/contract: resolve the channel, fetch
// the effective snapshot (pin-aware), assemble for the actor, shape by mode,
// and cache-validate by fingerprint.
func (api *API) handleContractAPI(w http.ResponseWriter, r *http.Request) {
	traceID := traceIDFor(r)
	company, ok := currentCompany(r.Context())
	if !ok {
		writeAPIError(w, http.StatusInternalServerError, reason.CodeInternalError, "company missing", traceID)
		return
	}
	actor, _ := currentActor(r.Context())

	mode, err := parseContractMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeVerbError(w, err, traceID)
		return
	}

	resolution, err := api.resolver.resolve(r.Context(), r, company.ID, actor.ID)
	if err != nil {
		api.logger.Error("channel resolution failed", zap.String("trace_id", traceID), zap.Error(err))
		writeAPIError(w, http.StatusInternalServerError, reason.CodeInternalError, "channel resolution failed", traceID)
		return
	}

	snapshot, found, err := api.governor.effectiveSnapshot(r.Context(), company.ID, resolution.Channel)
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, reason.CodeInternalError, "snapshot fetch failed", traceID)
		return
	}
	if !found {
		writeAPIError(w, http.StatusNotFound, channelUnknownCode, governanceErrorMessage(channelUnknownCode), traceID)
		return
	}
	pinned := resolution.Channel == types.ChannelStable && api.governor.stableIsPinned(r.Context(), company.ID)

	// Cache hit: when the caller already holds the fingerprint last served for
	// this (subject, mode, actor state), answer not-modified without assembling.
	cacheKey := ""
	if actorFP, err := actorStateFingerprint(actor); err == nil {
		cacheKey = contractCacheKey(subjectFingerprint(company.ID, snapshot), mode, actorFP)
	}
	inbound := r.Header.Get(contractFingerprintHeader)
	if cacheKey != "" && inbound != "" {
		if last, ok := api.cache.lastServed(cacheKey); ok && last == inbound {
			w.Header().Set(contractFingerprintHeader, inbound)
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	assembly := api.assembler.Assemble(snapshot, actor)
	payload := buildContractPayload(mode, assembly, snapshot, resolution, pinned)

	fp, err := payloadFingerprint(mode, payload)
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, reason.CodeInternalError, "fingerprint failed", traceID)
		return
	}
	if cacheKey != "" {
		api.cache.remember(cacheKey, fp)
	}

	w.Header().Set(contractFingerprintHeader, fp)
	if inbound == fp {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	if _, err := api.counters.Increment(r.Context(), company.ID, counterKeyContract(mode), 1); err != nil {
		api.logger.Warn("contract counter bump failed", zap.String("company_id", company.ID), zap.Error(err))
	}

	meta := &responseMeta{ContractMode: mode, Fingerprint: fp, TraceID: traceID}
	if mode == contractModeHUD {
		prov := buildContractProvenance(snapshot, resolution, pinned)
		meta.HUD = map[string]any{
			"scene_source":       prov.SceneSource,
			"scene_contract_ref": prov.SceneContractRef,
			"channel_selector":   prov.ChannelSelector,
			"channel_source_ref": prov.ChannelSourceRef,
			"pinned":             pinned,
			"governance":         assembly.Effect,
		}
	}
	writeEnvelope(w, http.StatusOK, payload, meta)
}
