package services

import (
	"strings"
	"sync"

	"github.com/hardhat-labs/scenecontract/modules/scene/domain/types"
)

type LifecycleMode string

const (
	LifecycleModeAllow    LifecycleMode = "allow"
	LifecycleModeDeny     LifecycleMode = "deny"
	LifecycleModeReadonly LifecycleMode = "readonly"
)

// LifecycleMatrix maps lifecycle state -> capability key -> mode. The source
// mapping is owned externally; it is loaded at most once per process and
// never mutated here.
type LifecycleMatrix struct {
	load func() map[types.Lifecycle]map[string]LifecycleMode

	once    sync.Once
	byState map[types.Lifecycle]map[string]LifecycleMode
}

func NewLifecycleMatrix(load func() map[types.Lifecycle]map[string]LifecycleMode) *LifecycleMatrix {
	return &LifecycleMatrix{load: load}
}

// Mode returns the mode for (lifecycle, capability key); absent entries
// default to allow.
func (m *LifecycleMatrix) Mode(lifecycle types.Lifecycle, capabilityKey string) LifecycleMode {
	if m == nil {
		return LifecycleModeAllow
	}
	m.once.Do(func() {
		if m.load != nil {
			m.byState = m.load()
		}
	})
	byKey, ok := m.byState[lifecycle]
	if !ok {
		return LifecycleModeAllow
	}
	mode, ok := byKey[strings.ToLower(strings.TrimSpace(capabilityKey))]
	if !ok {
		return LifecycleModeAllow
	}
	switch mode {
	case LifecycleModeDeny, LifecycleModeReadonly:
		return mode
	default:
		return LifecycleModeAllow
	}
}
