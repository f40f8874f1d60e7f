// Package action resolves action references into renderable descriptors.
// Resolution is total: every input yields either a concrete descriptor or a
// diagnostic descriptor; callers never see an unhandled fault.
package action

import "strings"

type Kind string

const (
	KindWindow     Kind = "window"
	KindClient     Kind = "client"
	KindServer     Kind = "server"
	KindURL        Kind = "url"
	KindReport     Kind = "report"
	KindDiagnostic Kind = "diagnostic"
)

// Definition is one registered action, as declared in the channel snapshot.
type Definition struct {
	ID         int64          `json:"id" yaml:"id"`
	Name       string         `json:"name" yaml:"name"`
	Label      string         `json:"label" yaml:"label"`
	Kind       Kind           `json:"kind" yaml:"kind"`
	BoundModel string         `json:"bound_model,omitempty" yaml:"bound_model,omitempty"`
	ViewMode   string         `json:"view_mode,omitempty" yaml:"view_mode,omitempty"`
	Groups     []string       `json:"groups,omitempty" yaml:"groups,omitempty"`
	TargetURL  string         `json:"target_url,omitempty" yaml:"target_url,omitempty"`
	Template   string         `json:"template,omitempty" yaml:"template,omitempty"`
	MenuID     int64          `json:"menu_id,omitempty" yaml:"menu_id,omitempty"`
	Context    map[string]any `json:"context,omitempty" yaml:"context,omitempty"`
}

// Descriptor is the renderable result of resolution. Exactly one variant
// shape is populated according to Kind; diagnostics carry a reason code from
// the taxonomy plus a human message.
type Descriptor struct {
	Kind     Kind   `json:"kind"`
	ActionID int64  `json:"action_id,omitempty"`
	Name     string `json:"name,omitempty"`
	Label    string `json:"label,omitempty"`

	BoundModel string         `json:"bound_model,omitempty"`
	ViewMode   string         `json:"view_mode,omitempty"`
	Groups     []string       `json:"groups,omitempty"`
	TargetURL  string         `json:"target_url,omitempty"`
	Template   string         `json:"template,omitempty"`
	Context    map[string]any `json:"context,omitempty"`

	Diagnostic *Diagnostic `json:"diagnostic,omitempty"`
}

type Diagnostic struct {
	ReasonCode      string `json:"reason_code"`
	Message         string `json:"message"`
	SuggestedAction string `json:"suggested_action,omitempty"`
	ActionType      string `json:"action_type,omitempty"`
}

func (d Descriptor) IsDiagnostic() bool { return d.Kind == KindDiagnostic }

// Ref identifies the action to resolve; exactly one field should be set.
type Ref struct {
	ActionID  int64  `json:"action_id,omitempty"`
	ActionRef string `json:"action_ref,omitempty"`
	MenuID    int64  `json:"menu_id,omitempty"`
}

func (r Ref) Empty() bool {
	return r.ActionID == 0 && strings.TrimSpace(r.ActionRef) == "" && r.MenuID == 0
}
