package server

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/hardhat-labs/scenecontract/pkg/fingerprint"
)

const idempotencyWindowRequiredCode = "IDEMPOTENCY_WINDOW_REQUIRED"

// sideEffectIntent declares how a side-effecting operation is deduplicated:
// either a replay window in seconds, or a validated waiver reason that opts
// the call out of deduplication entirely. A caller-supplied key separates
// logically distinct operations over the same identifier list.
type sideEffectIntent struct {
	EventCode      string `json:"event_code"`
	WindowSeconds  int    `json:"window_seconds"`
	WaiverReason   string `json:"waiver_reason,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
	Identifiers    []any  `json:"identifiers"`
}

type idempotencyOutcome struct {
	Result   map[string]any `json:"result"`
	Replayed bool           `json:"replayed"`
	Key      string         `json:"idempotency_key"`
}

type idempotencyGovernor struct {
	audit    AuditStore
	recorder *auditRecorder
	now      func() time.Time
}

func newIdempotencyGovernor(audit AuditStore, recorder *auditRecorder) *idempotencyGovernor {
	return &idempotencyGovernor{audit: audit, recorder: recorder, now: time.Now}
}

// execute runs fn at most once per (event code, canonical identifier key)
// within the declared window. A prior entry inside the window replays its
// recorded result without re-execution.
func (g *idempotencyGovernor) execute(
	ctx context.Context,
	company Company,
	actorID string,
	traceID string,
	intent sideEffectIntent,
	fn func(ctx context.Context) (map[string]any, error),
) (idempotencyOutcome, error) {
	key := fingerprint.HashIDs(intent.Identifiers)
	if caller := strings.TrimSpace(intent.IdempotencyKey); caller != "" {
		key = fingerprint.HashFields(caller, key)
	}

	if intent.WindowSeconds <= 0 {
		if err := validateGovernanceReason(intent.WaiverReason); err != nil {
			return idempotencyOutcome{}, errors.New(idempotencyWindowRequiredCode)
		}
	} else {
		since := g.now().UTC().Add(-time.Duration(intent.WindowSeconds) * time.Second)
		prior, found, err := g.audit.FindByKey(ctx, company.ID, intent.EventCode, key, since)
		if err != nil {
			return idempotencyOutcome{}, err
		}
		if found {
			result := make(map[string]any)
			if len(prior.Result) > 0 {
				if err := json.Unmarshal(prior.Result, &result); err != nil {
					return idempotencyOutcome{}, err
				}
			}
			return idempotencyOutcome{Result: result, Replayed: true, Key: key}, nil
		}
	}

	result, err := fn(ctx)
	if err != nil {
		return idempotencyOutcome{}, err
	}

	entry := AuditEntry{
		EventCode:      intent.EventCode,
		IdempotencyKey: key,
		CompanyID:      company.ID,
		ActorID:        actorID,
		TraceID:        traceID,
		RecordedAt:     g.now().UTC(),
	}
	entry.After, _ = json.Marshal(map[string]any{
		"identifiers":    fingerprint.CanonicalizeIDs(intent.Identifiers),
		"window_seconds": intent.WindowSeconds,
		"waiver_reason":  intent.WaiverReason,
	})
	entry.Result, _ = json.Marshal(result)
	g.recorder.record(ctx, entry)

	return idempotencyOutcome{Result: result, Replayed: false, Key: key}, nil
}
