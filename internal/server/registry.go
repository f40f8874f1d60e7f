package server

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/hardhat-labs/scenecontract/modules/action"
	"github.com/hardhat-labs/scenecontract/modules/scene/domain/types"
	"github.com/hardhat-labs/scenecontract/modules/scene/services"
)

const snapshotVersionStaleCode = "SNAPSHOT_VERSION_STALE"

// registryDocument is the on-disk shape of the channel registry.
type registryDocument struct {
	Version         int                               `yaml:"version"`
	Channels        map[string]types.ContractSnapshot `yaml:"channels"`
	Actions         map[string][]action.Definition    `yaml:"actions"`
	LifecycleMatrix map[string]map[string]string      `yaml:"lifecycle_matrix"`
}

// snapshotRegistry holds the published contract snapshot and action table per
// channel. update_snapshot replaces a channel in place; reads see either the
// old or the new snapshot, never a mix.
type snapshotRegistry struct {
	mu        sync.RWMutex
	byChannel map[types.Channel]types.ContractSnapshot
	actions   map[types.Channel]*action.MapRegistry
	lifecycle map[types.Lifecycle]map[string]services.LifecycleMode
}

func newSnapshotRegistry() *snapshotRegistry {
	return &snapshotRegistry{
		byChannel: make(map[types.Channel]types.ContractSnapshot),
		actions:   make(map[types.Channel]*action.MapRegistry),
	}
}

func parseRegistryYAML(b []byte) (*snapshotRegistry, error) {
	var doc registryDocument
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	if doc.Version != 1 {
		return nil, errors.New("registry: unsupported version")
	}
	if len(doc.Channels) == 0 {
		return nil, errors.New("registry: no channels")
	}

	registry := newSnapshotRegistry()
	for raw, snapshot := range doc.Channels {
		channel, ok := types.ParseChannel(raw)
		if !ok {
			return nil, errors.New("registry: unknown channel " + raw)
		}
		snapshot.Channel = channel
		if snapshot.Version <= 0 {
			return nil, errors.New("registry: channel " + raw + " missing version")
		}
		registry.byChannel[channel] = snapshot
		registry.actions[channel] = action.NewMapRegistry(doc.Actions[raw])
	}
	if len(doc.LifecycleMatrix) > 0 {
		registry.lifecycle = make(map[types.Lifecycle]map[string]services.LifecycleMode, len(doc.LifecycleMatrix))
		for rawState, byKey := range doc.LifecycleMatrix {
			state := types.Lifecycle(strings.ToLower(strings.TrimSpace(rawState)))
			if !state.Valid() {
				return nil, errors.New("registry: unknown lifecycle state " + rawState)
			}
			modes := make(map[string]services.LifecycleMode, len(byKey))
			for key, mode := range byKey {
				modes[strings.ToLower(strings.TrimSpace(key))] = services.LifecycleMode(strings.ToLower(strings.TrimSpace(mode)))
			}
			registry.lifecycle[state] = modes
		}
	}
	return registry, nil
}

// lifecycleMatrix feeds the evaluator's lazy one-shot load.
func (r *snapshotRegistry) lifecycleMatrix() *services.LifecycleMatrix {
	return services.NewLifecycleMatrix(func() map[types.Lifecycle]map[string]services.LifecycleMode {
		return r.lifecycle
	})
}

func loadSnapshotRegistry(path string) (*snapshotRegistry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseRegistryYAML(b)
}

func defaultRegistryPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv("REGISTRY_PATH")); p != "" {
		return p, nil
	}
	path := "config/registry.yaml"
	for i := 0; i < 8; i++ {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		path = filepath.Join("..", path)
	}
	return "", errors.New("server: registry not found")
}

func (r *snapshotRegistry) snapshot(channel types.Channel) (types.ContractSnapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snapshot, ok := r.byChannel[channel]
	return snapshot, ok
}

func (r *snapshotRegistry) actionRegistry(channel types.Channel) (*action.MapRegistry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	registry, ok := r.actions[channel]
	return registry, ok
}

// replace publishes a new snapshot for its channel. Versions only move
// forward; a stale version is rejected so concurrent publishers cannot
// clobber a newer contract.
func (r *snapshotRegistry) replace(snapshot types.ContractSnapshot) (previous types.ContractSnapshot, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	previous, ok := r.byChannel[snapshot.Channel]
	if ok && snapshot.Version <= previous.Version {
		return types.ContractSnapshot{}, errors.New(snapshotVersionStaleCode)
	}
	r.byChannel[snapshot.Channel] = snapshot
	return previous, nil
}
