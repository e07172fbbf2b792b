package multiworld

import (
	"context"
	"sync"
	"testing"

	"tileworld.ai/internal/sim/tuning"
	"tileworld.ai/internal/sim/world"
)

type countingSink struct {
	mu      sync.Mutex
	byWorld map[string]int
}

func (s *countingSink) WriteGeneration(e world.GenerationEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.byWorld == nil {
		s.byWorld = map[string]int{}
	}
	s.byWorld[e.WorldID]++
	return nil
}

func testManager(t *testing.T) *Manager {
	t.Helper()
	cfg := Config{
		DefaultWorldID: "A",
		Worlds: []WorldSpec{
			{ID: "A"},
			{ID: "B", SeedOffset: 1},
		},
	}
	m, err := NewManager(cfg, tuning.Defaults())
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestManager_WorldLookup(t *testing.T) {
	m := testManager(t)
	if ids := m.WorldIDs(); len(ids) != 2 || ids[0] != "A" || ids[1] != "B" {
		t.Fatalf("ids: %v", ids)
	}
	w, ok := m.World("")
	if !ok || w.ID() != "A" {
		t.Fatalf("default world: ok=%v", ok)
	}
	if _, ok := m.World("missing"); ok {
		t.Fatalf("expected missing world lookup to fail")
	}
	a, _ := m.World("A")
	b, _ := m.World("B")
	if a.Seed() == b.Seed() {
		t.Fatalf("worlds share seed %q", a.Seed())
	}
	man := m.Manifest()
	if len(man) != 2 || man[0].WorldID != "A" || man[1].Seed != b.Seed() {
		t.Fatalf("manifest: %+v", man)
	}
}

func TestManager_WarmObservesEveryWorld(t *testing.T) {
	m := testManager(t)
	sink := &countingSink{}
	m.Observe(sink)
	if err := m.Warm(context.Background(), 0, 0, 64, 64, 2); err != nil {
		t.Fatalf("warm: %v", err)
	}
	for _, id := range []string{"A", "B"} {
		if got := sink.byWorld[id]; got != 4 {
			t.Fatalf("world %s generated %d chunks, want 4", id, got)
		}
	}
	stats := m.Stats()
	if stats["A"].Chunks != 4 || stats["B"].Tiles != 4*world.ChunkSize*world.ChunkSize {
		t.Fatalf("stats: %+v", stats)
	}
}

func TestNewManager_RejectsInvalid(t *testing.T) {
	if _, err := NewManager(Config{}, tuning.Defaults()); err == nil {
		t.Fatalf("expected error for empty config")
	}
	tu := tuning.Defaults()
	tu.NoiseBackend = "value"
	if _, err := NewManager(defaults(), tu); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
