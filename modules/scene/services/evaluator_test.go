package services

import (
	"testing"

	"github.com/hardhat-labs/scenecontract/modules/scene/domain/types"
	"github.com/hardhat-labs/scenecontract/pkg/reason"
)

func financeActor(flags map[string]bool) types.Actor {
	return types.Actor{
		ID:        "u-1",
		CompanyID: "co-x",
		Groups:    []string{"finance"},
		Flags:     flags,
	}
}

func TestEvaluateHiddenWhenGroupsDisjoint(t *testing.T) {
	evaluator := NewAccessEvaluator(nil)
	capability := types.Capability{
		Key:            "pay.submit",
		RequiredGroups: []string{"payroll-admin"},
		Lifecycle:      types.LifecycleGA,
	}
	access := evaluator.Evaluate(capability, financeActor(nil))
	if access.Visible {
		t.Fatalf("expected hidden, got %+v", access)
	}
	if access.Allowed {
		t.Fatalf("hidden must imply not allowed: %+v", access)
	}
	if access.State != types.AccessHidden {
		t.Fatalf("state=%s", access.State)
	}
}

func TestEvaluateLockedWhenFlagDisabled(t *testing.T) {
	evaluator := NewAccessEvaluator(nil)
	capability := types.Capability{
		Key:            "pay.submit",
		RequiredGroups: []string{"finance"},
		RequiredFlag:   "pay_enabled",
		Lifecycle:      types.LifecycleGA,
	}
	access := evaluator.Evaluate(capability, financeActor(map[string]bool{"pay_enabled": false}))
	if !access.Visible || access.Allowed {
		t.Fatalf("access=%+v", access)
	}
	if access.State != types.AccessLocked || access.ReasonCode != reason.CodeFeatureDisabled {
		t.Fatalf("access=%+v", access)
	}
	if access.SuggestedAction != reason.Lookup(reason.CodeFeatureDisabled).SuggestedAction {
		t.Fatalf("suggested_action=%q", access.SuggestedAction)
	}
}

func TestEvaluateReadyWhenFlagEnabled(t *testing.T) {
	evaluator := NewAccessEvaluator(nil)
	capability := types.Capability{
		Key:            "pay.submit",
		RequiredGroups: []string{"finance"},
		RequiredFlag:   "pay_enabled",
		Lifecycle:      types.LifecycleGA,
	}
	access := evaluator.Evaluate(capability, financeActor(map[string]bool{"pay_enabled": true}))
	if !access.Visible || !access.Allowed || access.State != types.AccessReady {
		t.Fatalf("access=%+v", access)
	}
	if access.ReasonCode != reason.CodeOK {
		t.Fatalf("reason_code=%q", access.ReasonCode)
	}
}

func TestEvaluatePreviewForBetaWithPreviewGroup(t *testing.T) {
	evaluator := NewAccessEvaluator(nil)
	capability := types.Capability{
		Key:            "budget.forecast",
		RequiredGroups: []string{"finance"},
		Lifecycle:      types.LifecycleBeta,
	}
	actor := types.Actor{ID: "u-2", CompanyID: "co-x", Groups: []string{"finance", "preview"}}
	access := evaluator.Evaluate(capability, actor)
	if access.State != types.AccessPreview || !access.Allowed {
		t.Fatalf("access=%+v", access)
	}
}

func TestEvaluatePreviewViaOptInFlag(t *testing.T) {
	evaluator := NewAccessEvaluator(nil)
	capability := types.Capability{
		Key:            "budget.forecast",
		RequiredGroups: []string{"finance"},
		Tags:           []string{"preview_opt_in"},
		Lifecycle:      types.LifecycleAlpha,
	}
	access := evaluator.Evaluate(capability, financeActor(map[string]bool{"preview.budget.forecast": true}))
	if access.State != types.AccessPreview {
		t.Fatalf("access=%+v", access)
	}
	access = evaluator.Evaluate(capability, financeActor(nil))
	if access.State != types.AccessReady {
		t.Fatalf("without opt-in access=%+v", access)
	}
}

func TestEvaluateLifecycleMatrixDeny(t *testing.T) {
	matrix := NewLifecycleMatrix(func() map[types.Lifecycle]map[string]LifecycleMode {
		return map[types.Lifecycle]map[string]LifecycleMode{
			types.LifecycleAlpha: {"settle.close": LifecycleModeDeny},
			types.LifecycleBeta:  {"settle.close": LifecycleModeReadonly},
		}
	})
	evaluator := NewAccessEvaluator(matrix)

	capability := types.Capability{Key: "settle.close", Lifecycle: types.LifecycleAlpha}
	access := evaluator.Evaluate(capability, financeActor(nil))
	if access.Allowed || access.State != types.AccessLocked {
		t.Fatalf("deny access=%+v", access)
	}

	capability.Lifecycle = types.LifecycleBeta
	access = evaluator.Evaluate(capability, financeActor(nil))
	if !access.Allowed || access.State != types.AccessPreview {
		t.Fatalf("readonly access=%+v", access)
	}
}

func TestEvaluateKeyUnknownCapability(t *testing.T) {
	evaluator := NewAccessEvaluator(nil)
	access := evaluator.EvaluateKey(types.ContractSnapshot{}, "nope.missing", financeActor(nil))
	if access.Visible || access.State != types.AccessHidden || access.ReasonCode != reason.CodeNotFound {
		t.Fatalf("access=%+v", access)
	}
}

func TestSuggestedActionPureFunctionOfReasonCode(t *testing.T) {
	evaluator := NewAccessEvaluator(nil)
	capability := types.Capability{
		Key:            "pay.submit",
		RequiredGroups: []string{"finance"},
		RequiredFlag:   "pay_enabled",
		Lifecycle:      types.LifecycleGA,
	}
	first := evaluator.Evaluate(capability, financeActor(nil))
	second := evaluator.Evaluate(capability, types.Actor{ID: "other", CompanyID: "co-y", Groups: []string{"finance"}})
	if first.ReasonCode != second.ReasonCode || first.SuggestedAction != second.SuggestedAction {
		t.Fatalf("first=%+v second=%+v", first, second)
	}
}
