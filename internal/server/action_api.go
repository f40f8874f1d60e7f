package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hardhat-labs/scenecontract/modules/action"
	"github.com/hardhat-labs/scenecontract/modules/scene/domain/types"
	"github.com/hardhat-labs/scenecontract/pkg/reason"
)

const defaultActionWindowSeconds = 300

type actionResolveRequest struct {
	ActionID  int64  `json:"action_id,omitempty"`
	ActionRef string `json:"action_ref,omitempty"`
	MenuID    int64  `json:"menu_id,omitempty"`

	WindowSeconds  *int   `json:"window_seconds,omitempty"`
	WaiverReason   string `json:"waiver_reason,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
	Identifiers    []any  `json:"identifiers,omitempty"`
}

// handleActionResolveAPI serves POST /api/ui/action/resolve. Server actions
// execute through the idempotency governor: a repeated request inside the
// window replays the recorded result instead of re-running the side effect.
func (api *API) handleActionResolveAPI(w http.ResponseWriter, r *http.Request) {
	traceID := traceIDFor(r)
	company, ok := currentCompany(r.Context())
	if !ok {
		writeAPIError(w, http.StatusInternalServerError, reason.CodeInternalError, "company missing", traceID)
		return
	}
	actor, _ := currentActor(r.Context())

	var req actionResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeVerbError(w, newBadRequestError("BAD_JSON"), traceID)
		return
	}

	resolution, err := api.resolver.resolve(r.Context(), r, company.ID, actor.ID)
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, reason.CodeInternalError, "channel resolution failed", traceID)
		return
	}
	registry, found := api.registry.actionRegistry(resolution.Channel)
	if !found {
		writeAPIError(w, http.StatusNotFound, channelUnknownCode, governanceErrorMessage(channelUnknownCode), traceID)
		return
	}

	windowSeconds := defaultActionWindowSeconds
	if req.WindowSeconds != nil {
		windowSeconds = *req.WindowSeconds
	}

	resolver := action.NewResolver(registry, api.serverActionExecutor(company, actor, traceID, windowSeconds, req))
	descriptor := resolver.Resolve(r.Context(), action.Ref{
		ActionID:  req.ActionID,
		ActionRef: req.ActionRef,
		MenuID:    req.MenuID,
	})
	writeEnvelope(w, http.StatusOK, descriptor, &responseMeta{TraceID: traceID})
}

// serverActionExecutor bumps the per-action usage counter as the canonical
// side effect and records the invocation for replay.
func (api *API) serverActionExecutor(company Company, actor types.Actor, traceID string, windowSeconds int, req actionResolveRequest) action.Executor {
	return action.ExecutorFunc(func(ctx context.Context, def action.Definition) (action.Materialized, error) {
		intent := sideEffectIntent{
			EventCode:      "scene.action." + def.Name,
			WindowSeconds:  windowSeconds,
			WaiverReason:   req.WaiverReason,
			IdempotencyKey: req.IdempotencyKey,
			Identifiers:    req.Identifiers,
		}
		outcome, err := api.idem.execute(ctx, company, actor.ID, traceID, intent, func(ctx context.Context) (map[string]any, error) {
			invocations, err := api.counters.Increment(ctx, company.ID, "counter.action."+def.Name, 1)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"action":      def.Name,
				"invocations": invocations,
			}, nil
		})
		if err != nil {
			return action.Materialized{}, err
		}
		result := outcome.Result
		if result == nil {
			result = map[string]any{}
		}
		result["replayed"] = outcome.Replayed
		result["idempotency_key"] = outcome.Key
		return action.Materialized{Value: result}, nil
	})
}
