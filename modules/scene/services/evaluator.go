package services

import (
	"strings"

	"github.com/hardhat-labs/scenecontract/modules/scene/domain/types"
	"github.com/hardhat-labs/scenecontract/pkg/reason"
)

const previewGroup = "preview"
const previewOptInTag = "preview_opt_in"

// AccessEvaluator classifies one capability for one actor. The lifecycle
// matrix is optional; a nil matrix means no lifecycle restrictions.
type AccessEvaluator struct {
	matrix *LifecycleMatrix
}

func NewAccessEvaluator(matrix *LifecycleMatrix) *AccessEvaluator {
	return &AccessEvaluator{matrix: matrix}
}

// Evaluate never returns an error: every expected condition maps to an
// AccessContext with a taxonomy reason code.
func (e *AccessEvaluator) Evaluate(capability types.Capability, actor types.Actor) types.AccessContext {
	if !groupsIntersect(capability.RequiredGroups, actor) {
		return accessContext(false, false, types.AccessHidden, reason.CodePermissionDenied)
	}

	if flag := strings.TrimSpace(capability.RequiredFlag); flag != "" && !actor.FlagEnabled(flag) {
		return accessContext(true, false, types.AccessLocked, reason.CodeFeatureDisabled)
	}

	if e.matrix != nil {
		switch e.matrix.Mode(capability.Lifecycle, capability.Key) {
		case LifecycleModeDeny:
			return accessContext(true, false, types.AccessLocked, reason.CodeBusinessRuleFailed)
		case LifecycleModeReadonly:
			return accessContext(true, true, types.AccessPreview, reason.CodeOK)
		}
	}

	if capability.Lifecycle != types.LifecycleGA && previewPredicate(capability, actor) {
		return accessContext(true, true, types.AccessPreview, reason.CodeOK)
	}

	return accessContext(true, true, types.AccessReady, reason.CodeOK)
}

// EvaluateKey resolves key against the snapshot first; an unknown key yields
// a hidden NOT_FOUND context rather than an error.
func (e *AccessEvaluator) EvaluateKey(snapshot types.ContractSnapshot, key string, actor types.Actor) types.AccessContext {
	capability, ok := snapshot.CapabilityByKey()[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return accessContext(false, false, types.AccessHidden, reason.CodeNotFound)
	}
	return e.Evaluate(capability, actor)
}

func previewPredicate(capability types.Capability, actor types.Actor) bool {
	if actor.InGroup(previewGroup) {
		return true
	}
	if capability.HasTag(previewOptInTag) {
		return actor.FlagEnabled("preview." + strings.ToLower(strings.TrimSpace(capability.Key)))
	}
	return false
}

func groupsIntersect(required []string, actor types.Actor) bool {
	if len(required) == 0 {
		return true
	}
	for _, group := range required {
		if actor.InGroup(group) {
			return true
		}
	}
	return false
}

func accessContext(visible bool, allowed bool, state types.AccessState, code string) types.AccessContext {
	entry := reason.Lookup(code)
	return types.AccessContext{
		Visible:         visible,
		Allowed:         allowed,
		State:           state,
		ReasonCode:      entry.Code,
		Reason:          entry.Message,
		SuggestedAction: entry.SuggestedAction,
	}
}
