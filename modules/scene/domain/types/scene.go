package types

import "strings"

type Lifecycle string

const (
	LifecycleAlpha Lifecycle = "alpha"
	LifecycleBeta  Lifecycle = "beta"
	LifecycleGA    Lifecycle = "ga"
)

func (l Lifecycle) Valid() bool {
	switch l {
	case LifecycleAlpha, LifecycleBeta, LifecycleGA:
		return true
	default:
		return false
	}
}

// Capability is a named, independently governable unit of UI functionality.
// Immutable per request; only an administrative writer mutates the registry.
type Capability struct {
	Key            string         `json:"key" yaml:"key"`
	Label          string         `json:"label" yaml:"label"`
	Hint           string         `json:"hint,omitempty" yaml:"hint,omitempty"`
	TargetIntent   string         `json:"target_intent,omitempty" yaml:"target_intent,omitempty"`
	DefaultPayload map[string]any `json:"default_payload,omitempty" yaml:"default_payload,omitempty"`
	RequiredGroups []string       `json:"required_groups,omitempty" yaml:"required_groups,omitempty"`
	RequiredFlag   string         `json:"required_flag,omitempty" yaml:"required_flag,omitempty"`
	Tags           []string       `json:"tags,omitempty" yaml:"tags,omitempty"`
	Lifecycle      Lifecycle      `json:"lifecycle" yaml:"lifecycle"`
	Version        int            `json:"version" yaml:"version"`
}

func (c Capability) HasTag(tag string) bool {
	tag = strings.ToLower(strings.TrimSpace(tag))
	for _, t := range c.Tags {
		if strings.ToLower(strings.TrimSpace(t)) == tag {
			return true
		}
	}
	return false
}

// Tile is a scene-scoped presentation of one capability. PayloadOverride is
// shallow-merged over the capability default payload, override wins.
type Tile struct {
	ID              int64          `json:"id" yaml:"id"`
	CapabilityKey   string         `json:"capability_key" yaml:"capability_key"`
	PayloadOverride map[string]any `json:"payload_override,omitempty" yaml:"payload_override,omitempty"`
	Visible         bool           `json:"visible" yaml:"visible"`
	Sequence        int            `json:"sequence" yaml:"sequence"`
}

// Scene is a named collection of tiles, itself subject to group visibility.
type Scene struct {
	ID           int64    `json:"id" yaml:"id"`
	Code         string   `json:"code" yaml:"code"`
	LayoutKind   string   `json:"layout_kind" yaml:"layout_kind"`
	TargetGroups []string `json:"target_groups,omitempty" yaml:"target_groups,omitempty"`
	Default      bool     `json:"default" yaml:"default"`
	Tiles        []Tile   `json:"tiles" yaml:"tiles"`
	Sequence     int      `json:"sequence" yaml:"sequence"`
	Version      int      `json:"version" yaml:"version"`
}

// Actor is the authenticated caller as seen by the evaluator: group
// memberships plus the feature-flag map already resolved for its company.
type Actor struct {
	ID        string          `json:"id"`
	CompanyID string          `json:"company_id"`
	Groups    []string        `json:"groups"`
	Flags     map[string]bool `json:"flags"`
}

func (a Actor) InGroup(group string) bool {
	group = strings.ToLower(strings.TrimSpace(group))
	for _, g := range a.Groups {
		if strings.ToLower(strings.TrimSpace(g)) == group {
			return true
		}
	}
	return false
}

func (a Actor) FlagEnabled(flag string) bool {
	flag = strings.TrimSpace(flag)
	if flag == "" {
		return false
	}
	return a.Flags[flag]
}

type AccessState string

const (
	AccessReady   AccessState = "READY"
	AccessPreview AccessState = "PREVIEW"
	AccessLocked  AccessState = "LOCKED"
	AccessHidden  AccessState = "HIDDEN"
)

// AccessContext is the per-request evaluation result for one capability.
// It is ephemeral and never persisted.
type AccessContext struct {
	Visible         bool        `json:"visible"`
	Allowed         bool        `json:"allowed"`
	State           AccessState `json:"state"`
	ReasonCode      string      `json:"reason_code"`
	Reason          string      `json:"reason"`
	SuggestedAction string      `json:"suggested_action"`
}

type Channel string

const (
	ChannelStable Channel = "stable"
	ChannelBeta   Channel = "beta"
	ChannelDev    Channel = "dev"
)

func ParseChannel(raw string) (Channel, bool) {
	switch Channel(strings.ToLower(strings.TrimSpace(raw))) {
	case ChannelStable:
		return ChannelStable, true
	case ChannelBeta:
		return ChannelBeta, true
	case ChannelDev:
		return ChannelDev, true
	default:
		return "", false
	}
}

// ContractSnapshot is an exported, versioned bundle of scenes and
// capabilities for one channel. A pinned snapshot is a frozen copy that
// ignores further stable publishes until rollback.
type ContractSnapshot struct {
	Channel      Channel          `json:"channel" yaml:"channel"`
	Version      int              `json:"version" yaml:"version"`
	Ref          string           `json:"ref" yaml:"ref"`
	Capabilities []Capability     `json:"capabilities" yaml:"capabilities"`
	Scenes       []Scene          `json:"scenes" yaml:"scenes"`
	ActionRefs   map[string]int64 `json:"action_refs,omitempty" yaml:"action_refs,omitempty"`
	MenuRefs     map[string]int64 `json:"menu_refs,omitempty" yaml:"menu_refs,omitempty"`
}

// CapabilityByKey indexes the snapshot capabilities by normalized key.
func (s ContractSnapshot) CapabilityByKey() map[string]Capability {
	out := make(map[string]Capability, len(s.Capabilities))
	for _, c := range s.Capabilities {
		out[strings.ToLower(strings.TrimSpace(c.Key))] = c
	}
	return out
}
