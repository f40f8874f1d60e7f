package services

import (
	"sort"
	"strings"

	"github.com/hardhat-labs/scenecontract/modules/scene/domain/types"
)

const defaultVisibilitySampleLimit = 5

type VisibilityBucket struct {
	State       types.AccessState `json:"state"`
	ReasonCode  string            `json:"reason_code"`
	Count       int               `json:"count"`
	SampleKeys  []string          `json:"sample_keys"`
}

type VisibilityReport struct {
	ActorID     string             `json:"actor_id"`
	CompanyID   string             `json:"company_id"`
	Total       int                `json:"total"`
	Buckets     []VisibilityBucket `json:"buckets"`
	SampleLimit int                `json:"sample_limit"`
}

// BuildVisibilityReport counts capabilities by (state, reason code) for one
// actor, sampling up to limit example keys per bucket. Bucket and sample
// ordering is deterministic.
func (e *AccessEvaluator) BuildVisibilityReport(snapshot types.ContractSnapshot, actor types.Actor, limit int) VisibilityReport {
	if limit <= 0 {
		limit = defaultVisibilitySampleLimit
	}

	capabilities := append([]types.Capability(nil), snapshot.Capabilities...)
	sort.SliceStable(capabilities, func(i, j int) bool {
		return strings.ToLower(capabilities[i].Key) < strings.ToLower(capabilities[j].Key)
	})

	byBucket := make(map[string]*VisibilityBucket)
	order := make([]string, 0)
	for _, capability := range capabilities {
		access := e.Evaluate(capability, actor)
		key := string(access.State) + "|" + access.ReasonCode
		bucket, ok := byBucket[key]
		if !ok {
			bucket = &VisibilityBucket{State: access.State, ReasonCode: access.ReasonCode, SampleKeys: []string{}}
			byBucket[key] = bucket
			order = append(order, key)
		}
		bucket.Count++
		if len(bucket.SampleKeys) < limit {
			bucket.SampleKeys = append(bucket.SampleKeys, capability.Key)
		}
	}

	sort.Strings(order)
	buckets := make([]VisibilityBucket, 0, len(order))
	for _, key := range order {
		buckets = append(buckets, *byBucket[key])
	}

	return VisibilityReport{
		ActorID:     actor.ID,
		CompanyID:   actor.CompanyID,
		Total:       len(capabilities),
		Buckets:     buckets,
		SampleLimit: limit,
	}
}
