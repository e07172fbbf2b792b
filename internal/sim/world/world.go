package world

import (
	"encoding/hex"
	"sync"
	"time"

	"tileworld.ai/internal/sim/world/terrain/biome"
	genpkg "tileworld.ai/internal/sim/world/terrain/gen"
	"tileworld.ai/internal/sim/world/terrain/noise"
	storepkg "tileworld.ai/internal/sim/world/terrain/store"
)

// GenerationEntry describes one freshly generated chunk. It carries metadata
// only; tile data stays in memory.
type GenerationEntry struct {
	WorldID string           `json:"world_id"`
	CX      int              `json:"cx"`
	CY      int              `json:"cy"`
	Digest  string           `json:"digest"`
	GenUS   int64            `json:"gen_us"`
	Biomes  [biome.Count]int `json:"biomes"`
	Trees   int              `json:"trees"`
	Rocks   int              `json:"rocks"`
	At      string           `json:"at"`
}

// GenerationSink receives entries on the generating goroutine; it must not
// block for long and must be safe for concurrent use.
type GenerationSink interface {
	WriteGeneration(GenerationEntry) error
}

// World owns the noise engine, the palette and the chunk cache for one seed.
// All methods are safe for concurrent use.
type World struct {
	cfg WorldConfig

	noise   *noise.Engine
	palette *biome.Palette
	gen     *genpkg.Generator
	chunks  *storepkg.ChunkStore

	sinkMu   sync.RWMutex
	sinks    []GenerationSink
	sinkErrs func(error)
}

func New(cfg WorldConfig) (*World, error) {
	if cfg.ID == "" {
		cfg.ID = "world_1"
	}
	if cfg.Terrain == (genpkg.Params{}) {
		cfg.Terrain = genpkg.DefaultParams()
	}
	alien, err := biome.ParseAlienMode(string(cfg.Alien))
	if err != nil {
		return nil, invalidArgument("world.New", "%v", err)
	}
	cfg.Alien = alien

	engine, err := noise.New(cfg.Seed, cfg.Noise)
	if err != nil {
		return nil, invalidArgument("world.New", "%v", err)
	}
	cfg.Noise = engine.Backend()

	palette := biome.Generate(cfg.Seed, biome.Options{Alien: cfg.Alien})
	gen := genpkg.New(cfg.Seed, engine, palette, cfg.Terrain)

	w := &World{
		cfg:     cfg,
		noise:   engine,
		palette: palette,
		gen:     gen,
		chunks:  storepkg.NewChunkStore(gen),
	}
	w.chunks.SetHook(w.onGenerate)
	return w, nil
}

func (w *World) ID() string              { return w.cfg.ID }
func (w *World) Seed() string            { return w.cfg.Seed }
func (w *World) Config() WorldConfig     { return w.cfg }
func (w *World) Palette() *biome.Palette { return w.palette }
func (w *World) Noise() *noise.Engine    { return w.noise }

// Chunk returns chunk (cx, cy), generating it on first access.
func (w *World) Chunk(cx, cy int) *Chunk {
	return w.chunks.GetOrGenChunk(cx, cy)
}

// LoadedChunk reports a chunk only if it was already generated.
func (w *World) LoadedChunk(cx, cy int) (*Chunk, bool) {
	return w.chunks.Lookup(cx, cy)
}

func (w *World) LoadedChunkKeys() []ChunkKey {
	return w.chunks.LoadedChunkKeys()
}

// TileAt resolves a single world tile.
func (w *World) TileAt(wx, wy int) (tile, obj uint8) {
	return w.chunks.TileAt(wx, wy)
}

// BiomeAt samples the classifier directly without touching the cache.
func (w *World) BiomeAt(wx, wy int) biome.Biome {
	return w.palette.At(int(w.gen.BiomeAt(wx, wy)))
}

type Stats struct {
	Chunks int `json:"chunks"`
	Tiles  int `json:"tiles"`
}

func (w *World) Stats() Stats {
	n := w.chunks.Len()
	return Stats{Chunks: n, Tiles: n * genpkg.ChunkArea}
}

// Observe registers a sink for generation entries. Errors returned by sinks
// are passed to the handler set with OnSinkError, if any.
func (w *World) Observe(s GenerationSink) {
	if s == nil {
		return
	}
	w.sinkMu.Lock()
	w.sinks = append(w.sinks, s)
	w.sinkMu.Unlock()
}

func (w *World) OnSinkError(fn func(error)) {
	w.sinkMu.Lock()
	w.sinkErrs = fn
	w.sinkMu.Unlock()
}

func (w *World) onGenerate(ch *Chunk, took time.Duration) {
	w.sinkMu.RLock()
	sinks := w.sinks
	onErr := w.sinkErrs
	w.sinkMu.RUnlock()
	if len(sinks) == 0 {
		return
	}

	h := ch.Histogram()
	d := ch.Digest()
	entry := GenerationEntry{
		WorldID: w.cfg.ID,
		CX:      ch.CX,
		CY:      ch.CY,
		Digest:  hex.EncodeToString(d[:]),
		GenUS:   took.Microseconds(),
		Biomes:  h.Biomes,
		Trees:   h.Trees,
		Rocks:   h.Rocks,
		At:      time.Now().UTC().Format(time.RFC3339Nano),
	}
	for _, s := range sinks {
		if err := s.WriteGeneration(entry); err != nil && onErr != nil {
			onErr(err)
		}
	}
}
