package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	persistlog "tileworld.ai/internal/persistence/log"
	"tileworld.ai/internal/sim/world"
)

func logChunks(t *testing.T, dir string, seed string, keys ...[2]int) []world.GenerationEntry {
	t.Helper()
	w, err := world.New(world.DefaultConfig("OVERWORLD", seed))
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	gl := persistlog.NewGenLogger(dir)
	w.Observe(gl)
	for _, k := range keys {
		w.Chunk(k[0], k[1])
	}
	if err := gl.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	entries, err := persistlog.ReadGenerations(dir)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(entries) != len(keys) {
		t.Fatalf("logged %d entries, want %d", len(entries), len(keys))
	}
	return entries
}

func TestVerify_FreshWorldReproducesLog(t *testing.T) {
	entries := logChunks(t, t.TempDir(), "replay-seed", [2]int{0, 0}, [2]int{-3, 7}, [2]int{12, -1})

	w, err := world.New(world.DefaultConfig("OVERWORLD", "replay-seed"))
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	n, err := verify(w, entries)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if n != 3 {
		t.Fatalf("checked=%d want 3", n)
	}
}

func TestVerify_DetectsDivergence(t *testing.T) {
	entries := logChunks(t, t.TempDir(), "replay-seed", [2]int{1, 1})

	other, err := world.New(world.DefaultConfig("OVERWORLD", "different-seed"))
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	if _, err := verify(other, entries); err == nil || !strings.Contains(err.Error(), "digest mismatch") {
		t.Fatalf("expected digest mismatch, got %v", err)
	}

	wrongID, err := world.New(world.DefaultConfig("ELSEWHERE", "replay-seed"))
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	if _, err := verify(wrongID, entries); err == nil {
		t.Fatalf("expected world id mismatch")
	}
}

func TestLoadWorld_FromConfigDir(t *testing.T) {
	dir := t.TempDir()
	worlds := "default_world_id: ISLES\nworlds:\n  - id: ISLES\n    seed: isles\n    noise_backend: perlin\n"
	if err := os.WriteFile(filepath.Join(dir, "worlds.yaml"), []byte(worlds), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	w, err := loadWorld(dir, "", "", "")
	if err != nil {
		t.Fatalf("loadWorld: %v", err)
	}
	if w.ID() != "ISLES" || w.Seed() != "isles" || string(w.Config().Noise) != "perlin" {
		t.Fatalf("unexpected world %s seed=%q noise=%s", w.ID(), w.Seed(), w.Config().Noise)
	}

	if _, err := loadWorld(dir, "", "", "MISSING"); err == nil {
		t.Fatalf("expected unknown world error")
	}
}
