package server

import (
	"net/http"
	"strings"

	"github.com/hardhat-labs/scenecontract/pkg/reason"
)

// handleCapabilityAPI serves GET /api/ui/capability?key=...: a single-key
// access evaluation. Unknown keys come back as a hidden NOT_FOUND context in
// the 200 body, never as a transport error.
func (api *API) handleCapabilityAPI(w http.ResponseWriter, r *http.Request) {
	traceID := traceIDFor(r)
	company, ok := currentCompany(r.Context())
	if !ok {
		writeAPIError(w, http.StatusInternalServerError, reason.CodeInternalError, "company missing", traceID)
		return
	}
	actor, _ := currentActor(r.Context())

	key := strings.TrimSpace(r.URL.Query().Get("key"))
	if key == "" {
		writeAPIError(w, http.StatusBadRequest, reason.CodeMissingParams, "key required", traceID)
		return
	}

	resolution, err := api.resolver.resolve(r.Context(), r, company.ID, actor.ID)
	if err != nil {
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

	access := api.evaluator.EvaluateKey(snapshot, key, actor)
	writeEnvelope(w, http.StatusOK, map[string]any{
		"key":    key,
		"access": access,
	}, &responseMeta{TraceID: traceID})
}
