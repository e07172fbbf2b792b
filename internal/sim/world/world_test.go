package world

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
)

func newTestWorld(t *testing.T, seed string) *World {
	t.Helper()
	w, err := New(DefaultConfig("test", seed))
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	return w
}

func TestChunksInRect_SingleChunk(t *testing.T) {
	w := newTestWorld(t, "rect")
	chunks, err := w.ChunksInRect(0, 0, 32, 32)
	if err != nil {
		t.Fatalf("ChunksInRect: %v", err)
	}
	if len(chunks) != 1 || chunks[0].CX != 0 || chunks[0].CY != 0 {
		t.Fatalf("expected only chunk (0,0), got %d chunks", len(chunks))
	}
}

func TestChunkRange_Edges(t *testing.T) {
	w := newTestWorld(t, "rect")
	cases := []struct {
		x, y, width, height float64
		want                ChunkRect
	}{
		{0, 0, 32, 32, ChunkRect{0, 0, 0, 0}},
		{0, 0, 33, 32, ChunkRect{0, 0, 1, 0}},
		{0.5, 0, 32, 1, ChunkRect{0, 0, 1, 0}},
		{-1, -1, 2, 2, ChunkRect{-1, -1, 0, 0}},
		{-64, 10, 0, 0, ChunkRect{-2, 0, -2, 0}},
		{100, 100, 320, 180, ChunkRect{3, 3, 13, 8}},
	}
	for _, c := range cases {
		got, err := w.ChunkRange(c.x, c.y, c.width, c.height)
		if err != nil {
			t.Fatalf("ChunkRange(%v,%v,%v,%v): %v", c.x, c.y, c.width, c.height, err)
		}
		if got != c.want {
			t.Fatalf("ChunkRange(%v,%v,%v,%v): got %+v want %+v", c.x, c.y, c.width, c.height, got, c.want)
		}
	}
}

func TestChunksInRect_SpansOrigin(t *testing.T) {
	w := newTestWorld(t, "rect")
	chunks, err := w.ChunksInRect(-1, -1, 2, 2)
	if err != nil {
		t.Fatalf("ChunksInRect: %v", err)
	}
	want := []ChunkKey{{CX: -1, CY: -1}, {CX: 0, CY: -1}, {CX: -1, CY: 0}, {CX: 0, CY: 0}}
	if len(chunks) != len(want) {
		t.Fatalf("got %d chunks want %d", len(chunks), len(want))
	}
	for i, k := range want {
		if chunks[i].Key() != k {
			t.Fatalf("chunk %d: got %+v want %+v", i, chunks[i].Key(), k)
		}
	}
}

func TestChunksInRect_RejectsNonFinite(t *testing.T) {
	w := newTestWorld(t, "rect")
	for _, args := range [][4]float64{
		{math.NaN(), 0, 10, 10},
		{0, math.Inf(1), 10, 10},
		{0, 0, math.Inf(-1), 10},
		{0, 0, 10, math.NaN()},
	} {
		_, err := w.ChunksInRect(args[0], args[1], args[2], args[3])
		if !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("%v: expected invalid argument, got %v", args, err)
		}
		if KindOf(err) != KindInvalidArgument {
			t.Fatalf("%v: KindOf = %q", args, KindOf(err))
		}
	}
	if w.Stats().Chunks != 0 {
		t.Fatalf("rejected queries must not generate chunks")
	}
}

func TestChunkRange_RejectsExtremeFiniteRects(t *testing.T) {
	w := newTestWorld(t, "rect")
	for _, args := range [][4]float64{
		{1e300, 0, 10, 10},
		{0, -1e300, 10, 10},
		{0, 0, 1e300, 10},
		{MaxCoord, 0, 1, 1},
		{-MaxCoord, -MaxCoord, 2 * MaxCoord, 2 * MaxCoord},
	} {
		if _, err := w.ChunkRange(args[0], args[1], args[2], args[3]); KindOf(err) != KindInvalidArgument {
			t.Fatalf("ChunkRange%v: expected invalid argument, got %v", args, err)
		}
		if _, err := w.ChunksInRect(args[0], args[1], args[2], args[3]); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("ChunksInRect%v: expected invalid argument, got %v", args, err)
		}
	}

	// The edges themselves are still addressable.
	r, err := w.ChunkRange(MaxCoord-32, -MaxCoord, 32, 1)
	if err != nil {
		t.Fatalf("edge rect: %v", err)
	}
	if r.Count() != 1 || r.MinCX != MaxCoord/ChunkSize-1 || r.MinCY != -MaxCoord/ChunkSize {
		t.Fatalf("edge rect %+v", r)
	}
}

func TestChunksInRect_RejectsOversizedRects(t *testing.T) {
	w := newTestWorld(t, "rect")
	// A zero-height strip has no tile area but still spans every chunk.
	if _, err := w.ChunksInRect(0, 0, 1e12, 0); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("wide strip: expected invalid argument, got %v", err)
	}
	if err := w.Prefetch(context.Background(), 0, 0, 1e9, 1e9, 4); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("prefetch: expected invalid argument, got %v", err)
	}
	if n := w.Stats().Chunks; n != 0 {
		t.Fatalf("rejected rects generated %d chunks", n)
	}
}

func TestChunksInRect_InvertedIsEmpty(t *testing.T) {
	w := newTestWorld(t, "rect")
	chunks, err := w.ChunksInRect(100, 100, -200, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks, got %d", len(chunks))
	}
}

func TestChunk_DeterministicAcrossWorlds(t *testing.T) {
	for _, seed := range []string{"", "hello", "wörld🌍", "seed-2"} {
		a := newTestWorld(t, seed)
		b := newTestWorld(t, seed)
		for _, k := range []ChunkKey{{CX: 0, CY: 0}, {CX: -3, CY: 5}, {CX: 40, CY: -17}} {
			ca, cb := a.Chunk(k.CX, k.CY), b.Chunk(k.CX, k.CY)
			if ca.Digest() != cb.Digest() {
				t.Fatalf("seed %q chunk %+v: digests differ", seed, k)
			}
		}
	}
}

func TestChunk_Idempotent(t *testing.T) {
	w := newTestWorld(t, "idem")
	if w.Chunk(1, 1) != w.Chunk(1, 1) {
		t.Fatalf("expected same chunk instance")
	}
	if ch, ok := w.LoadedChunk(1, 1); !ok || ch != w.Chunk(1, 1) {
		t.Fatalf("LoadedChunk should return the cached instance")
	}
	if _, ok := w.LoadedChunk(9, 9); ok {
		t.Fatalf("LoadedChunk must not generate")
	}
}

func TestBiomeAt_MatchesTiles(t *testing.T) {
	w := newTestWorld(t, "biome-at")
	ch := w.Chunk(-1, 2)
	for _, p := range [][2]int{{0, 0}, {31, 31}, {5, 17}} {
		wx, wy := -32+p[0], 64+p[1]
		want := w.Palette().At(int(ch.Tile(p[0], p[1])))
		if got := w.BiomeAt(wx, wy); got.Name != want.Name {
			t.Fatalf("BiomeAt(%d,%d): got %s want %s", wx, wy, got.Name, want.Name)
		}
	}
}

type recordingSink struct {
	mu      sync.Mutex
	entries []GenerationEntry
}

func (s *recordingSink) WriteGeneration(e GenerationEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

func TestPrefetch_GeneratesEachChunkOnce(t *testing.T) {
	w := newTestWorld(t, "prefetch")
	sink := &recordingSink{}
	w.Observe(sink)

	if err := w.Prefetch(context.Background(), -40, -40, 100, 80, 8); err != nil {
		t.Fatalf("Prefetch: %v", err)
	}
	r, _ := w.ChunkRange(-40, -40, 100, 80)
	if got := w.Stats().Chunks; got != r.Count() {
		t.Fatalf("loaded chunks: got %d want %d", got, r.Count())
	}

	// A second pass over an overlapping rect only generates the new chunks.
	if _, err := w.ChunksInRect(-40, -40, 140, 80); err != nil {
		t.Fatalf("ChunksInRect: %v", err)
	}
	r2, _ := w.ChunkRange(-40, -40, 140, 80)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.entries) != r2.Count() {
		t.Fatalf("sink entries: got %d want %d", len(sink.entries), r2.Count())
	}
	seen := map[ChunkKey]bool{}
	for _, e := range sink.entries {
		k := ChunkKey{CX: e.CX, CY: e.CY}
		if seen[k] {
			t.Fatalf("chunk %+v generated twice", k)
		}
		seen[k] = true
		if e.WorldID != "test" || len(e.Digest) != 64 {
			t.Fatalf("bad entry: %+v", e)
		}
	}
}

func TestPrefetch_CancelledContext(t *testing.T) {
	w := newTestWorld(t, "cancel")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.Prefetch(ctx, 0, 0, 320, 320, 2); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNew_RejectsUnknownOptions(t *testing.T) {
	cfg := DefaultConfig("bad", "x")
	cfg.Noise = "worley"
	if _, err := New(cfg); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for noise backend, got %v", err)
	}
	cfg = DefaultConfig("bad", "x")
	cfg.Alien = "maybe"
	if _, err := New(cfg); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for alien mode, got %v", err)
	}
}
