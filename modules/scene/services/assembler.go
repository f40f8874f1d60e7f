package services

import (
	"sort"
	"strings"

	"github.com/hardhat-labs/scenecontract/modules/scene/domain/types"
)

const (
	symbolicActionPrefix = "ref:action:"
	symbolicMenuPrefix   = "ref:menu:"
)

// AssembledTile is one retained tile with its merged payload and the access
// context that justified keeping it.
type AssembledTile struct {
	ID            int64               `json:"id"`
	CapabilityKey string              `json:"capability_key"`
	Label         string              `json:"label"`
	Hint          string              `json:"hint,omitempty"`
	TargetIntent  string              `json:"target_intent,omitempty"`
	Payload       map[string]any      `json:"payload,omitempty"`
	Sequence      int                 `json:"sequence"`
	Lifecycle     types.Lifecycle     `json:"lifecycle"`
	Tags          []string            `json:"tags,omitempty"`
	Access        types.AccessContext `json:"access"`
}

type AssembledScene struct {
	ID         int64           `json:"id"`
	Code       string          `json:"code"`
	LayoutKind string          `json:"layout_kind"`
	Default    bool            `json:"default"`
	Sequence   int             `json:"sequence"`
	Version    int             `json:"version"`
	Tiles      []AssembledTile `json:"tiles"`
}

// AssemblyEffect summarizes what filtering did, for hud-mode provenance.
type AssemblyEffect struct {
	Before   int `json:"before"`
	After    int `json:"after"`
	Filtered int `json:"filtered"`
}

type Assembly struct {
	Scenes []AssembledScene `json:"scenes"`
	Effect AssemblyEffect   `json:"effect"`
}

type SceneAssembler struct {
	evaluator *AccessEvaluator
}

func NewSceneAssembler(evaluator *AccessEvaluator) *SceneAssembler {
	return &SceneAssembler{evaluator: evaluator}
}

// Assemble filters the snapshot scenes for the actor and merges tile
// payloads. Output ordering is stable by (sequence, id) at both levels; the
// serialized contract is fingerprinted, so the bytes must not depend on map
// iteration or input order.
func (a *SceneAssembler) Assemble(snapshot types.ContractSnapshot, actor types.Actor) Assembly {
	capabilities := snapshot.CapabilityByKey()

	tilesBefore := 0
	for _, scene := range snapshot.Scenes {
		tilesBefore += len(scene.Tiles)
	}

	scenes := make([]AssembledScene, 0, len(snapshot.Scenes))
	tilesAfter := 0
	for _, scene := range snapshot.Scenes {
		if !groupsIntersect(scene.TargetGroups, actor) {
			continue
		}
		assembled := AssembledScene{
			ID:         scene.ID,
			Code:       scene.Code,
			LayoutKind: scene.LayoutKind,
			Default:    scene.Default,
			Sequence:   scene.Sequence,
			Version:    scene.Version,
			Tiles:      make([]AssembledTile, 0, len(scene.Tiles)),
		}
		for _, tile := range scene.Tiles {
			if !tile.Visible {
				continue
			}
			capability, ok := capabilities[strings.ToLower(strings.TrimSpace(tile.CapabilityKey))]
			if !ok {
				continue
			}
			access := a.evaluator.Evaluate(capability, actor)
			if !access.Visible {
				continue
			}
			assembled.Tiles = append(assembled.Tiles, AssembledTile{
				ID:            tile.ID,
				CapabilityKey: capability.Key,
				Label:         capability.Label,
				Hint:          capability.Hint,
				TargetIntent:  capability.TargetIntent,
				Payload:       mergeTilePayload(capability.DefaultPayload, tile.PayloadOverride, snapshot),
				Sequence:      tile.Sequence,
				Lifecycle:     capability.Lifecycle,
				Tags:          append([]string(nil), capability.Tags...),
				Access:        access,
			})
		}
		sort.SliceStable(assembled.Tiles, func(i, j int) bool {
			if assembled.Tiles[i].Sequence != assembled.Tiles[j].Sequence {
				return assembled.Tiles[i].Sequence < assembled.Tiles[j].Sequence
			}
			return assembled.Tiles[i].ID < assembled.Tiles[j].ID
		})
		tilesAfter += len(assembled.Tiles)
		scenes = append(scenes, assembled)
	}

	sort.SliceStable(scenes, func(i, j int) bool {
		if scenes[i].Sequence != scenes[j].Sequence {
			return scenes[i].Sequence < scenes[j].Sequence
		}
		return scenes[i].ID < scenes[j].ID
	})

	return Assembly{
		Scenes: scenes,
		Effect: AssemblyEffect{
			Before:   tilesBefore,
			After:    tilesAfter,
			Filtered: tilesBefore - tilesAfter,
		},
	}
}

// mergeTilePayload is a one-level shallow merge: override wins key-by-key,
// nested maps are replaced wholesale, never merged. Symbolic action/menu
// references resolve to numeric ids; unresolved references drop the key.
func mergeTilePayload(defaults map[string]any, override map[string]any, snapshot types.ContractSnapshot) map[string]any {
	if len(defaults) == 0 && len(override) == 0 {
		return nil
	}
	merged := make(map[string]any, len(defaults)+len(override))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	for k, v := range merged {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		resolved, ok, symbolic := resolveSymbolicRef(raw, snapshot)
		if !symbolic {
			continue
		}
		if !ok {
			delete(merged, k)
			continue
		}
		merged[k] = resolved
	}
	if len(merged) == 0 {
		return nil
	}
	return merged
}

func resolveSymbolicRef(raw string, snapshot types.ContractSnapshot) (id int64, ok bool, symbolic bool) {
	switch {
	case strings.HasPrefix(raw, symbolicActionPrefix):
		name := strings.TrimPrefix(raw, symbolicActionPrefix)
		id, ok := snapshot.ActionRefs[name]
		return id, ok, true
	case strings.HasPrefix(raw, symbolicMenuPrefix):
		name := strings.TrimPrefix(raw, symbolicMenuPrefix)
		id, ok := snapshot.MenuRefs[name]
		return id, ok, true
	default:
		return 0, false, false
	}
}
