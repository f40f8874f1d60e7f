package action

import (
	"context"
	"errors"
	"testing"

	"github.com/hardhat-labs/scenecontract/pkg/reason"
)

func testRegistry() *MapRegistry {
	return NewMapRegistry([]Definition{
		{ID: 1, Name: "contract_review", Label: "Review", Kind: KindWindow, BoundModel: "contract", ViewMode: "list,form"},
		{ID: 2, Name: "broken_window", Label: "Broken", Kind: KindWindow},
		{ID: 3, Name: "open_help", Label: "Help", Kind: KindURL, TargetURL: "https://help.example.com"},
		{ID: 4, Name: "print_settlement", Label: "Print", Kind: KindReport, Template: "settlement_report"},
		{ID: 5, Name: "refresh_budget", Label: "Refresh", Kind: KindServer},
		{ID: 6, Name: "legacy_widget", Label: "Legacy", Kind: Kind("wizardly")},
		{ID: 7, Name: "client_toast", Label: "Toast", Kind: KindClient, MenuID: 70},
	})
}

func TestResolveWindow(t *testing.T) {
	resolver := NewResolver(testRegistry(), nil)
	descriptor := resolver.Resolve(context.Background(), Ref{ActionID: 1})
	if descriptor.Kind != KindWindow || descriptor.BoundModel != "contract" {
		t.Fatalf("descriptor=%+v", descriptor)
	}
}

func TestResolveWindowWithoutModelIsDiagnostic(t *testing.T) {
	resolver := NewResolver(testRegistry(), nil)
	descriptor := resolver.Resolve(context.Background(), Ref{ActionID: 2})
	if !descriptor.IsDiagnostic() {
		t.Fatalf("descriptor=%+v", descriptor)
	}
	if descriptor.Diagnostic.Message != "window action must declare a bound model" {
		t.Fatalf("message=%q", descriptor.Diagnostic.Message)
	}
}

func TestResolveBySymbolicRefAndMenuID(t *testing.T) {
	resolver := NewResolver(testRegistry(), nil)
	byRef := resolver.Resolve(context.Background(), Ref{ActionRef: " Open_Help "})
	if byRef.Kind != KindURL || byRef.TargetURL != "https://help.example.com" {
		t.Fatalf("byRef=%+v", byRef)
	}
	byMenu := resolver.Resolve(context.Background(), Ref{MenuID: 70})
	if byMenu.Kind != KindClient || byMenu.ActionID != 7 {
		t.Fatalf("byMenu=%+v", byMenu)
	}
}

func TestResolveUnknownIsNotFoundDiagnostic(t *testing.T) {
	resolver := NewResolver(testRegistry(), nil)
	descriptor := resolver.Resolve(context.Background(), Ref{ActionID: 404})
	if !descriptor.IsDiagnostic() || descriptor.Diagnostic.ReasonCode != reason.CodeNotFound {
		t.Fatalf("descriptor=%+v", descriptor)
	}
}

func TestResolveEmptyRef(t *testing.T) {
	resolver := NewResolver(testRegistry(), nil)
	descriptor := resolver.Resolve(context.Background(), Ref{})
	if !descriptor.IsDiagnostic() || descriptor.Diagnostic.ReasonCode != reason.CodeMissingParams {
		t.Fatalf("descriptor=%+v", descriptor)
	}
}

func TestResolveUnsupportedVariant(t *testing.T) {
	resolver := NewResolver(testRegistry(), nil)
	descriptor := resolver.Resolve(context.Background(), Ref{ActionID: 6})
	if !descriptor.IsDiagnostic() || descriptor.Diagnostic.ReasonCode != reason.CodeUnsupportedButtonType {
		t.Fatalf("descriptor=%+v", descriptor)
	}
	if descriptor.Diagnostic.ActionType != "wizardly" {
		t.Fatalf("action_type=%q", descriptor.Diagnostic.ActionType)
	}
}

func TestServerActionExecutesAndRedispatchesOnce(t *testing.T) {
	calls := 0
	executor := ExecutorFunc(func(_ context.Context, def Definition) (Materialized, error) {
		calls++
		return Materialized{Next: &Definition{
			ID: 100, Name: "followup", Kind: KindWindow, BoundModel: "budget",
		}}, nil
	})
	resolver := NewResolver(testRegistry(), executor)
	descriptor := resolver.Resolve(context.Background(), Ref{ActionID: 5})
	if calls != 1 {
		t.Fatalf("calls=%d", calls)
	}
	if descriptor.Kind != KindWindow || descriptor.BoundModel != "budget" {
		t.Fatalf("descriptor=%+v", descriptor)
	}
}

func TestServerActionReturningServerActionIsDiagnostic(t *testing.T) {
	calls := 0
	executor := ExecutorFunc(func(_ context.Context, def Definition) (Materialized, error) {
		calls++
		return Materialized{Next: &Definition{ID: 200, Name: "again", Kind: KindServer}}, nil
	})
	resolver := NewResolver(testRegistry(), executor)
	descriptor := resolver.Resolve(context.Background(), Ref{ActionID: 5})
	if calls != 1 {
		t.Fatalf("second server action must not execute; calls=%d", calls)
	}
	if !descriptor.IsDiagnostic() || descriptor.Diagnostic.ReasonCode != reason.CodeBusinessRuleFailed {
		t.Fatalf("descriptor=%+v", descriptor)
	}
}

func TestServerActionTerminalValue(t *testing.T) {
	executor := ExecutorFunc(func(_ context.Context, def Definition) (Materialized, error) {
		return Materialized{Value: map[string]any{"refreshed": true}}, nil
	})
	resolver := NewResolver(testRegistry(), executor)
	descriptor := resolver.Resolve(context.Background(), Ref{ActionID: 5})
	if descriptor.Kind != KindServer {
		t.Fatalf("descriptor=%+v", descriptor)
	}
	if descriptor.Context["refreshed"] != true {
		t.Fatalf("context=%v", descriptor.Context)
	}
}

func TestServerActionExecutorFailure(t *testing.T) {
	executor := ExecutorFunc(func(_ context.Context, def Definition) (Materialized, error) {
		return Materialized{}, errors.New("boom")
	})
	resolver := NewResolver(testRegistry(), executor)
	descriptor := resolver.Resolve(context.Background(), Ref{ActionID: 5})
	if !descriptor.IsDiagnostic() || descriptor.Diagnostic.ReasonCode != reason.CodeInternalError {
		t.Fatalf("descriptor=%+v", descriptor)
	}
}
