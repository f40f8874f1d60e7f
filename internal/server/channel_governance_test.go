package server

import (
	"context"
	"testing"

	"github.com/hardhat-labs/scenecontract/modules/scene/domain/types"
)

func testGovernor(t *testing.T) (*channelGovernor, *memoryAuditStore) {
	t.Helper()
	registry, err := parseRegistryYAML([]byte(testRegistryYAML))
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	audit := newMemoryAuditStore()
	return newChannelGovernor(newMemoryParamStore(), registry, newAuditRecorder(audit, nil), nil), audit
}

func TestValidateGovernanceReason(t *testing.T) {
	cases := []struct {
		reason string
		wantOK bool
	}{
		{"", false},
		{"   ", false},
		{"-", false},
		{"n/a", false},
		{"N/A", false},
		{"test", false},
		{"abc", false},
		{"rollout of 2026-08 contract", true},
		{"ops!", true},
	}
	for _, tc := range cases {
		err := validateGovernanceReason(tc.reason)
		if tc.wantOK && err != nil {
			t.Fatalf("reason %q: unexpected error %v", tc.reason, err)
		}
		if !tc.wantOK {
			if err == nil || err.Error() != channelReasonRequiredCode {
				t.Fatalf("reason %q: err=%v", tc.reason, err)
			}
		}
	}
}

func TestSwitchChannel(t *testing.T) {
	governor, audit := testGovernor(t)
	company := Company{ID: "acme"}

	result, err := governor.switchChannel(context.Background(), company, "u1", "beta", "beta rollout wave 1", "trace-1")
	if err != nil {
		t.Fatalf("switch: %v", err)
	}
	if result.Action != governanceActionSwitch || result.FromChannel != "stable" || result.ToChannel != "beta" {
		t.Fatalf("result=%+v", result)
	}
	if result.TraceID != "trace-1" {
		t.Fatalf("trace_id=%q", result.TraceID)
	}

	value, ok, err := governor.params.Get(context.Background(), "acme", paramKeyChannelCompany("acme"))
	if err != nil || !ok || value != "beta" {
		t.Fatalf("param=%q ok=%v err=%v", value, ok, err)
	}
	if len(audit.entries) != 1 || audit.entries[0].EventCode != eventChannelSwitch {
		t.Fatalf("audit=%+v", audit.entries)
	}
}

func TestSwitchChannelRejectsPlaceholderReason(t *testing.T) {
	governor, audit := testGovernor(t)
	_, err := governor.switchChannel(context.Background(), Company{ID: "acme"}, "u1", "beta", "n/a", "trace-1")
	if err == nil || err.Error() != channelReasonRequiredCode {
		t.Fatalf("err=%v", err)
	}
	if len(audit.entries) != 0 {
		t.Fatalf("rejected verb must not audit: %+v", audit.entries)
	}
}

func TestSwitchChannelUnknownTarget(t *testing.T) {
	governor, _ := testGovernor(t)
	if _, err := governor.switchChannel(context.Background(), Company{ID: "acme"}, "u1", "nightly", "valid reason here", "t"); err == nil || err.Error() != channelInvalidCode {
		t.Fatalf("err=%v", err)
	}
	if _, err := governor.switchChannel(context.Background(), Company{ID: "acme"}, "u1", "dev", "valid reason here", "t"); err == nil || err.Error() != channelUnknownCode {
		t.Fatalf("err=%v", err)
	}
}

func TestPinStableServesFrozenSnapshotUntilRollback(t *testing.T) {
	governor, audit := testGovernor(t)
	ctx := context.Background()
	company := Company{ID: "acme"}

	if _, err := governor.pinStable(ctx, company, "u1", "freeze before audit window", "t1"); err != nil {
		t.Fatalf("pin: %v", err)
	}

	// Publish a newer stable; the pin must keep serving the frozen copy.
	newer, _ := governor.registry.snapshot(types.ChannelStable)
	newer.Version = newer.Version + 1
	newer.Ref = "stable-2026-09"
	if _, err := governor.registry.replace(newer); err != nil {
		t.Fatalf("replace: %v", err)
	}

	snapshot, ok, err := governor.effectiveSnapshot(ctx, "acme", types.ChannelStable)
	if err != nil || !ok {
		t.Fatalf("effective: ok=%v err=%v", ok, err)
	}
	if snapshot.Ref != "stable-2026-08" {
		t.Fatalf("pinned ref=%q", snapshot.Ref)
	}

	if _, err := governor.rollbackStable(ctx, company, "u1", "pin no longer needed", "t2"); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	snapshot, ok, err = governor.effectiveSnapshot(ctx, "acme", types.ChannelStable)
	if err != nil || !ok {
		t.Fatalf("effective: ok=%v err=%v", ok, err)
	}
	if snapshot.Ref != "stable-2026-09" {
		t.Fatalf("ref after rollback=%q", snapshot.Ref)
	}

	if len(audit.entries) != 2 {
		t.Fatalf("audit count=%d", len(audit.entries))
	}
	if audit.entries[0].EventCode != eventChannelPin || audit.entries[1].EventCode != eventChannelRollback {
		t.Fatalf("audit=%+v", audit.entries)
	}
}

func TestRollbackWithoutPin(t *testing.T) {
	governor, _ := testGovernor(t)
	_, err := governor.rollbackStable(context.Background(), Company{ID: "acme"}, "u1", "undo the pin", "t")
	if err == nil || err.Error() != channelPinMissingCode {
		t.Fatalf("err=%v", err)
	}
}

func TestExportContract(t *testing.T) {
	governor, audit := testGovernor(t)
	snapshot, result, err := governor.exportContract(context.Background(), Company{ID: "acme"}, "u1", "stable", "quarterly compliance export", "t")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if snapshot.Ref != "stable-2026-08" || result.Action != governanceActionExport {
		t.Fatalf("snapshot=%+v result=%+v", snapshot, result)
	}
	if len(audit.entries) != 1 || audit.entries[0].EventCode != eventContractExport {
		t.Fatalf("audit=%+v", audit.entries)
	}
}

func TestUpdateSnapshotVersionMustMoveForward(t *testing.T) {
	governor, audit := testGovernor(t)
	company := Company{ID: "acme"}

	current, _ := governor.registry.snapshot(types.ChannelStable)
	stale := current
	stale.Version = current.Version
	if _, err := governor.updateSnapshot(context.Background(), company, "u1", stale, "republish same version", "t"); err == nil || err.Error() != snapshotVersionStaleCode {
		t.Fatalf("err=%v", err)
	}

	next := current
	next.Version = current.Version + 1
	next.Ref = "stable-2026-09"
	result, err := governor.updateSnapshot(context.Background(), company, "u1", next, "september contract publish", "t")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if result.Action != governanceActionUpdate {
		t.Fatalf("result=%+v", result)
	}
	got, _ := governor.registry.snapshot(types.ChannelStable)
	if got.Ref != "stable-2026-09" {
		t.Fatalf("ref=%q", got.Ref)
	}
	if len(audit.entries) != 1 || audit.entries[0].EventCode != eventSnapshotUpdate {
		t.Fatalf("audit=%+v", audit.entries)
	}
}
