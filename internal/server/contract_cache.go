package server

import (
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/hardhat-labs/scenecontract/modules/scene/domain/types"
	"github.com/hardhat-labs/scenecontract/modules/scene/services"
	"github.com/hardhat-labs/scenecontract/pkg/fingerprint"
)

const (
	contractModeUser = "user"
	contractModeHUD  = "hud"

	contractModeInvalidCode = "CONTRACT_MODE_INVALID"
)

// Tiles carrying these tags never reach user-mode contracts.
var userModeStrippedTags = []string{"smoke", "internal"}

func parseContractMode(raw string) (string, error) {
	mode := strings.TrimSpace(strings.ToLower(raw))
	switch mode {
	case "":
		return contractModeUser, nil
	case contractModeUser, contractModeHUD:
		return mode, nil
	default:
		return "", errors.New(contractModeInvalidCode)
	}
}

type userTilePayload struct {
	CapabilityKey   string            `json:"capability_key"`
	Label           string            `json:"label"`
	Hint            string            `json:"hint,omitempty"`
	TargetIntent    string            `json:"target_intent,omitempty"`
	Payload         map[string]any    `json:"payload,omitempty"`
	State           types.AccessState `json:"state"`
	ReasonCode      string            `json:"reason_code"`
	Reason          string            `json:"reason"`
	SuggestedAction string            `json:"suggested_action"`
}

type userScenePayload struct {
	Code       string            `json:"code"`
	LayoutKind string            `json:"layout_kind"`
	Default    bool              `json:"default"`
	Tiles      []userTilePayload `json:"tiles"`
}

type contractProvenance struct {
	SceneSource      string `json:"scene_source"`
	SceneContractRef string `json:"scene_contract_ref"`
	ChannelSelector  string `json:"channel_selector"`
	ChannelSourceRef string `json:"channel_source_ref"`
}

func buildContractProvenance(snapshot types.ContractSnapshot, resolution channelResolution, pinned bool) contractProvenance {
	sceneSource := "registry"
	if pinned {
		sceneSource = "pin"
	}
	return contractProvenance{
		SceneSource:      sceneSource,
		SceneContractRef: snapshot.Ref + "@" + strconv.Itoa(snapshot.Version),
		ChannelSelector:  string(resolution.Channel),
		ChannelSourceRef: resolution.SourceRef,
	}
}

type hudContractPayload struct {
	Scenes     []services.AssembledScene `json:"scenes"`
	Provenance contractProvenance        `json:"provenance"`
	Governance services.AssemblyEffect   `json:"governance"`
}

// buildContractPayload shapes one assembly for its serving mode. User mode
// strips smoke/internal tiles and the technical identifiers (row ids, scene
// versions, tags); hud mode carries the full assembly plus provenance and the
// governance effect summary.
func buildContractPayload(
	mode string,
	assembly services.Assembly,
	snapshot types.ContractSnapshot,
	resolution channelResolution,
	pinned bool,
) any {
	if mode == contractModeHUD {
		return hudContractPayload{
			Scenes:     assembly.Scenes,
			Provenance: buildContractProvenance(snapshot, resolution, pinned),
			Governance: assembly.Effect,
		}
	}

	scenes := make([]userScenePayload, 0, len(assembly.Scenes))
	for _, scene := range assembly.Scenes {
		shaped := userScenePayload{
			Code:       scene.Code,
			LayoutKind: scene.LayoutKind,
			Default:    scene.Default,
			Tiles:      make([]userTilePayload, 0, len(scene.Tiles)),
		}
		for _, tile := range scene.Tiles {
			if tileHasStrippedTag(tile.Tags) {
				continue
			}
			shaped.Tiles = append(shaped.Tiles, userTilePayload{
				CapabilityKey:   tile.CapabilityKey,
				Label:           tile.Label,
				Hint:            tile.Hint,
				TargetIntent:    tile.TargetIntent,
				Payload:         tile.Payload,
				State:           tile.Access.State,
				ReasonCode:      tile.Access.ReasonCode,
				Reason:          tile.Access.Reason,
				SuggestedAction: tile.Access.SuggestedAction,
			})
		}
		scenes = append(scenes, shaped)
	}
	return map[string]any{"scenes": scenes}
}

func tileHasStrippedTag(tags []string) bool {
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		for _, stripped := range userModeStrippedTags {
			if tag == stripped {
				return true
			}
		}
	}
	return false
}

// contractCache remembers the last served fingerprint per
// (subject, mode, actor state) triple so unchanged contracts short-circuit.
type contractCache struct {
	mu           sync.RWMutex
	fingerprints map[string]string
}

func newContractCache() *contractCache {
	return &contractCache{fingerprints: make(map[string]string)}
}

func contractCacheKey(subjectFP string, mode string, actorFP string) string {
	return fingerprint.HashFields(subjectFP, mode, actorFP)
}

func subjectFingerprint(companyID string, snapshot types.ContractSnapshot) string {
	return fingerprint.HashFields(companyID, string(snapshot.Channel), snapshot.Ref, strconv.Itoa(snapshot.Version))
}

func actorStateFingerprint(actor types.Actor) (string, error) {
	return fingerprint.Hash(actor)
}

// payloadFingerprint folds the mode into the hash so user and hud contracts
// over the same state never share a fingerprint.
func payloadFingerprint(mode string, payload any) (string, error) {
	return fingerprint.Hash(map[string]any{"mode": mode, "payload": payload})
}

func (c *contractCache) remember(cacheKey string, fp string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fingerprints[cacheKey] = fp
}

func (c *contractCache) lastServed(cacheKey string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fp, ok := c.fingerprints[cacheKey]
	return fp, ok
}
