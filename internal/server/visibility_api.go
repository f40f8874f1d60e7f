package server

import (
	"net/http"
	"strconv"

	"github.com/hardhat-labs/scenecontract/pkg/reason"
)

// handleVisibilityAPI serves GET /internal/scene/visibility: the per-actor
// breakdown of capability states with sampled keys per bucket.
func (api *API) handleVisibilityAPI(w http.ResponseWriter, r *http.Request) {
	traceID := traceIDFor(r)
	company, ok := currentCompany(r.Context())
	if !ok {
		writeAPIError(w, http.StatusInternalServerError, reason.CodeInternalError, "company missing", traceID)
		return
	}
	actor, _ := currentActor(r.Context())

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

	limit, _ := strconv.Atoi(r.URL.Query().Get("sample_limit"))
	report := api.evaluator.BuildVisibilityReport(snapshot, actor, limit)
	writeEnvelope(w, http.StatusOK, report, &responseMeta{TraceID: traceID})
}
