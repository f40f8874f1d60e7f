package action

import (
	"context"
	"fmt"
	"strings"

	"github.com/hardhat-labs/scenecontract/pkg/reason"
)

// Registry looks actions up by id, symbolic name, or parent navigation id.
// Implementations return (zero, false) for unknown keys.
type Registry interface {
	ByID(id int64) (Definition, bool)
	ByName(name string) (Definition, bool)
	ByMenuID(menuID int64) (Definition, bool)
}

// Materialized is what executing a server action produced: either a
// follow-up action to re-dispatch or a terminal value for the client.
type Materialized struct {
	Next  *Definition    `json:"next,omitempty"`
	Value map[string]any `json:"value,omitempty"`
}

// Executor runs a server action's side effect.
type Executor interface {
	Execute(ctx context.Context, def Definition) (Materialized, error)
}

type ExecutorFunc func(ctx context.Context, def Definition) (Materialized, error)

func (f ExecutorFunc) Execute(ctx context.Context, def Definition) (Materialized, error) {
	return f(ctx, def)
}

// Server actions re-dispatch their result exactly once.
const maxServerDispatchDepth = 1

type Resolver struct {
	registry Registry
	executor Executor
}

func NewResolver(registry Registry, executor Executor) *Resolver {
	return &Resolver{registry: registry, executor: executor}
}

// Resolve turns a reference into a renderable descriptor. Missing actions,
// malformed variants, and executor faults all come back as diagnostic
// descriptors.
func (r *Resolver) Resolve(ctx context.Context, ref Ref) Descriptor {
	if ref.Empty() {
		return diagnostic(reason.CodeMissingParams, "action reference is empty", "")
	}

	def, ok := r.lookup(ref)
	if !ok {
		return diagnostic(reason.CodeNotFound, fmt.Sprintf("action %s not found", refLabel(ref)), "")
	}
	return r.dispatch(ctx, def, 0)
}

func (r *Resolver) lookup(ref Ref) (Definition, bool) {
	switch {
	case ref.ActionID != 0:
		return r.registry.ByID(ref.ActionID)
	case strings.TrimSpace(ref.ActionRef) != "":
		return r.registry.ByName(strings.TrimSpace(ref.ActionRef))
	case ref.MenuID != 0:
		return r.registry.ByMenuID(ref.MenuID)
	default:
		return Definition{}, false
	}
}

func (r *Resolver) dispatch(ctx context.Context, def Definition, depth int) Descriptor {
	switch def.Kind {
	case KindWindow:
		if strings.TrimSpace(def.BoundModel) == "" {
			return diagnostic(reason.CodeBusinessRuleFailed, "window action must declare a bound model", string(KindWindow))
		}
		return renderable(def)

	case KindClient, KindURL, KindReport:
		return renderable(def)

	case KindServer:
		if depth >= maxServerDispatchDepth {
			return diagnostic(reason.CodeBusinessRuleFailed, "server action returned another server action", string(KindServer))
		}
		if r.executor == nil {
			return diagnostic(reason.CodeInternalError, "no executor configured for server actions", string(KindServer))
		}
		materialized, err := r.executor.Execute(ctx, def)
		if err != nil {
			return diagnostic(reason.CodeInternalError, "server action execution failed", string(KindServer))
		}
		if materialized.Next == nil {
			// Terminal server action: the client receives the value payload.
			descriptor := renderable(def)
			descriptor.Context = materialized.Value
			return descriptor
		}
		next := *materialized.Next
		if next.Kind == KindServer {
			return diagnostic(reason.CodeBusinessRuleFailed, "server action returned another server action", string(KindServer))
		}
		return r.dispatch(ctx, next, depth+1)

	default:
		return diagnostic(
			reason.CodeUnsupportedButtonType,
			fmt.Sprintf("unsupported action type %q", string(def.Kind)),
			string(def.Kind),
		)
	}
}

func renderable(def Definition) Descriptor {
	return Descriptor{
		Kind:       def.Kind,
		ActionID:   def.ID,
		Name:       def.Name,
		Label:      def.Label,
		BoundModel: def.BoundModel,
		ViewMode:   def.ViewMode,
		Groups:     append([]string(nil), def.Groups...),
		TargetURL:  def.TargetURL,
		Template:   def.Template,
		Context:    def.Context,
	}
}

func diagnostic(code string, message string, actionType string) Descriptor {
	entry := reason.Lookup(code)
	return Descriptor{
		Kind: KindDiagnostic,
		Diagnostic: &Diagnostic{
			ReasonCode:      entry.Code,
			Message:         message,
			SuggestedAction: entry.SuggestedAction,
			ActionType:      actionType,
		},
	}
}

func refLabel(ref Ref) string {
	switch {
	case ref.ActionID != 0:
		return fmt.Sprintf("id=%d", ref.ActionID)
	case strings.TrimSpace(ref.ActionRef) != "":
		return "ref=" + strings.TrimSpace(ref.ActionRef)
	case ref.MenuID != 0:
		return fmt.Sprintf("menu_id=%d", ref.MenuID)
	default:
		return "empty"
	}
}

// MapRegistry is a static Registry over a definition list, used for snapshot
// action tables and tests.
type MapRegistry struct {
	byID   map[int64]Definition
	byName map[string]Definition
	byMenu map[int64]Definition
}

func NewMapRegistry(defs []Definition) *MapRegistry {
	registry := &MapRegistry{
		byID:   make(map[int64]Definition, len(defs)),
		byName: make(map[string]Definition, len(defs)),
		byMenu: make(map[int64]Definition, len(defs)),
	}
	for _, def := range defs {
		if def.ID != 0 {
			registry.byID[def.ID] = def
		}
		if name := strings.TrimSpace(def.Name); name != "" {
			registry.byName[strings.ToLower(name)] = def
		}
		if def.MenuID != 0 {
			registry.byMenu[def.MenuID] = def
		}
	}
	return registry
}

func (r *MapRegistry) ByID(id int64) (Definition, bool) {
	def, ok := r.byID[id]
	return def, ok
}

func (r *MapRegistry) ByName(name string) (Definition, bool) {
	def, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	return def, ok
}

func (r *MapRegistry) ByMenuID(menuID int64) (Definition, bool) {
	def, ok := r.byMenu[menuID]
	return def, ok
}
