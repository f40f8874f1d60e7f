package services

import (
	"reflect"
	"testing"

	"github.com/hardhat-labs/scenecontract/modules/scene/domain/types"
	"github.com/hardhat-labs/scenecontract/pkg/reason"
)

func TestBuildVisibilityReportBucketsAndSamples(t *testing.T) {
	snapshot := types.ContractSnapshot{
		Capabilities: []types.Capability{
			{Key: "a.one", Lifecycle: types.LifecycleGA},
			{Key: "b.two", Lifecycle: types.LifecycleGA},
			{Key: "c.three", RequiredGroups: []string{"admin"}, Lifecycle: types.LifecycleGA},
			{Key: "d.four", RequiredFlag: "flag_x", Lifecycle: types.LifecycleGA},
		},
	}
	evaluator := NewAccessEvaluator(nil)
	actor := types.Actor{ID: "u-1", CompanyID: "co-x", Groups: []string{"finance"}}

	report := evaluator.BuildVisibilityReport(snapshot, actor, 1)
	if report.Total != 4 {
		t.Fatalf("total=%d", report.Total)
	}
	if len(report.Buckets) != 3 {
		t.Fatalf("buckets=%+v", report.Buckets)
	}

	byState := make(map[types.AccessState]VisibilityBucket)
	for _, b := range report.Buckets {
		byState[b.State] = b
	}
	ready := byState[types.AccessReady]
	if ready.Count != 2 || !reflect.DeepEqual(ready.SampleKeys, []string{"a.one"}) {
		t.Fatalf("ready=%+v", ready)
	}
	hidden := byState[types.AccessHidden]
	if hidden.Count != 1 || hidden.ReasonCode != reason.CodePermissionDenied {
		t.Fatalf("hidden=%+v", hidden)
	}
	locked := byState[types.AccessLocked]
	if locked.Count != 1 || locked.ReasonCode != reason.CodeFeatureDisabled {
		t.Fatalf("locked=%+v", locked)
	}
}

func TestBuildVisibilityReportDeterministic(t *testing.T) {
	snapshot := types.ContractSnapshot{
		Capabilities: []types.Capability{
			{Key: "z.last", Lifecycle: types.LifecycleGA},
			{Key: "a.first", Lifecycle: types.LifecycleGA},
		},
	}
	evaluator := NewAccessEvaluator(nil)
	actor := types.Actor{ID: "u-1", Groups: []string{"finance"}}

	first := evaluator.BuildVisibilityReport(snapshot, actor, 10)
	second := evaluator.BuildVisibilityReport(snapshot, actor, 10)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("report not deterministic")
	}
	if !reflect.DeepEqual(first.Buckets[0].SampleKeys, []string{"a.first", "z.last"}) {
		t.Fatalf("samples=%v", first.Buckets[0].SampleKeys)
	}
}
