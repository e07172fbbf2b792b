package multiworld

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"tileworld.ai/internal/protocol"
	"tileworld.ai/internal/sim/tuning"
	"tileworld.ai/internal/sim/world"
)

type Runtime struct {
	Spec  WorldSpec
	World *world.World
}

// Manager owns every world served by one process. The set of worlds is fixed
// at construction.
type Manager struct {
	mu sync.RWMutex

	runtimes  map[string]*Runtime
	manifest  []protocol.WorldRef
	defaultID string
}

// BuildRuntimes constructs one world per WorldSpec.
func BuildRuntimes(cfg Config, t tuning.Tuning) (map[string]*Runtime, error) {
	out := make(map[string]*Runtime, len(cfg.Worlds))
	for _, spec := range cfg.Worlds {
		wc, err := spec.WorldConfig(t)
		if err != nil {
			return nil, fmt.Errorf("world %s: %w", spec.ID, err)
		}
		w, err := world.New(wc)
		if err != nil {
			return nil, fmt.Errorf("world %s: %w", spec.ID, err)
		}
		out[spec.ID] = &Runtime{Spec: spec, World: w}
	}
	return out, nil
}

func NewManager(cfg Config, t tuning.Tuning) (*Manager, error) {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	runtimes, err := BuildRuntimes(cfg, t)
	if err != nil {
		return nil, err
	}
	manifest, err := cfg.Manifest(t)
	if err != nil {
		return nil, err
	}
	return &Manager{
		runtimes:  runtimes,
		manifest:  manifest,
		defaultID: cfg.DefaultWorldID,
	}, nil
}

func (m *Manager) WorldIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.runtimes))
	for id := range m.runtimes {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (m *Manager) Runtime(id string) *Runtime {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.runtimes[id]
}

// World resolves id; an empty id selects the default world.
func (m *Manager) World(id string) (*world.World, bool) {
	if id == "" {
		id = m.defaultID
	}
	rt := m.Runtime(id)
	if rt == nil {
		return nil, false
	}
	return rt.World, true
}

func (m *Manager) DefaultWorldID() string { return m.defaultID }

func (m *Manager) Manifest() []protocol.WorldRef {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]protocol.WorldRef(nil), m.manifest...)
}

// Observe attaches sink to every world.
func (m *Manager) Observe(sink world.GenerationSink) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, rt := range m.runtimes {
		rt.World.Observe(sink)
	}
}

func (m *Manager) OnSinkError(fn func(worldID string, err error)) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for id, rt := range m.runtimes {
		rt.World.OnSinkError(func(err error) { fn(id, err) })
	}
}

// Warm prefetches the same world-space rect in every world concurrently.
func (m *Manager) Warm(ctx context.Context, x, y, width, height float64, workers int) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, id := range m.WorldIDs() {
		rt := m.Runtime(id)
		g.Go(func() error {
			if err := rt.World.Prefetch(ctx, x, y, width, height, workers); err != nil {
				return fmt.Errorf("warm %s: %w", rt.Spec.ID, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (m *Manager) Stats() map[string]world.Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]world.Stats, len(m.runtimes))
	for id, rt := range m.runtimes {
		out[id] = rt.World.Stats()
	}
	return out
}
