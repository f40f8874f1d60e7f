package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/hardhat-labs/scenecontract/modules/viewarch"
	"github.com/hardhat-labs/scenecontract/pkg/reason"
)

type viewNormalizeRequest struct {
	Kind string          `json:"kind"`
	Arch json.RawMessage `json:"arch"`
}

// handleViewNormalizeAPI serves POST /api/ui/view/normalize. Malformed
// documents still yield a fully-defaulted view; degradation surfaces as
// warnings in the body and a warn log, never as an HTTP error.
func (api *API) handleViewNormalizeAPI(w http.ResponseWriter, r *http.Request) {
	traceID := traceIDFor(r)

	var req viewNormalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeVerbError(w, newBadRequestError("BAD_JSON"), traceID)
		return
	}
	if len(req.Arch) == 0 {
		writeAPIError(w, http.StatusBadRequest, reason.CodeMissingParams, "arch required", traceID)
		return
	}

	result := viewarch.Parse(req.Kind, req.Arch)
	if result.Degraded() {
		api.logger.Warn("view architecture degraded",
			zap.String("kind", req.Kind),
			zap.Int("warnings", len(result.Warnings)),
			zap.String("trace_id", traceID),
		)
	}
	writeEnvelope(w, http.StatusOK, result, &responseMeta{TraceID: traceID})
}
