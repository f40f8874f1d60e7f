package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/hardhat-labs/scenecontract/modules/scene/domain/types"
	"github.com/hardhat-labs/scenecontract/pkg/reason"
)

type governanceRequest struct {
	Action   string                  `json:"action"`
	Channel  string                  `json:"channel,omitempty"`
	Reason   string                  `json:"reason"`
	Snapshot *types.ContractSnapshot `json:"snapshot,omitempty"`
}

// handleChannelGovernanceAPI serves POST /internal/governance/channel. One
// endpoint, five verbs; every verb demands a reason and lands in the audit
// log.
func (api *API) handleChannelGovernanceAPI(w http.ResponseWriter, r *http.Request) {
	traceID := traceIDFor(r)
	company, ok := currentCompany(r.Context())
	if !ok {
		writeAPIError(w, http.StatusInternalServerError, reason.CodeInternalError, "company missing", traceID)
		return
	}
	actor, _ := currentActor(r.Context())

	var req governanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeVerbError(w, newBadRequestError("BAD_JSON"), traceID)
		return
	}

	switch strings.TrimSpace(strings.ToLower(req.Action)) {
	case governanceActionSwitch:
		result, err := api.governor.switchChannel(r.Context(), company, actor.ID, req.Channel, req.Reason, traceID)
		if err != nil {
			writeVerbError(w, err, traceID)
			return
		}
		writeEnvelope(w, http.StatusOK, result, &responseMeta{TraceID: traceID})

	case governanceActionPin:
		result, err := api.governor.pinStable(r.Context(), company, actor.ID, req.Reason, traceID)
		if err != nil {
			writeVerbError(w, err, traceID)
			return
		}
		writeEnvelope(w, http.StatusOK, result, &responseMeta{TraceID: traceID})

	case governanceActionRollback:
		result, err := api.governor.rollbackStable(r.Context(), company, actor.ID, req.Reason, traceID)
		if err != nil {
			writeVerbError(w, err, traceID)
			return
		}
		writeEnvelope(w, http.StatusOK, result, &responseMeta{TraceID: traceID})

	case governanceActionExport:
		snapshot, result, err := api.governor.exportContract(r.Context(), company, actor.ID, req.Channel, req.Reason, traceID)
		if err != nil {
			writeVerbError(w, err, traceID)
			return
		}
		writeEnvelope(w, http.StatusOK, map[string]any{
			"export":   snapshot,
			"envelope": result,
		}, &responseMeta{TraceID: traceID})

	case governanceActionUpdate:
		if req.Snapshot == nil {
			writeAPIError(w, http.StatusBadRequest, reason.CodeMissingParams, "snapshot required", traceID)
			return
		}
		result, err := api.governor.updateSnapshot(r.Context(), company, actor.ID, *req.Snapshot, req.Reason, traceID)
		if err != nil {
			writeVerbError(w, err, traceID)
			return
		}
		writeEnvelope(w, http.StatusOK, result, &responseMeta{TraceID: traceID})

	default:
		writeAPIError(w, http.StatusBadRequest, reason.CodeMissingParams, "unknown governance action", traceID)
	}
}
