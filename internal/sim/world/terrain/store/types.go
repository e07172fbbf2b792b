package store

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"tileworld.ai/internal/sim/world/terrain/biome"
	genpkg "tileworld.ai/internal/sim/world/terrain/gen"
)

type ChunkKey struct {
	CX int
	CY int
}

// Chunk is immutable once GetOrGenChunk returns it.
type Chunk struct {
	CX, CY  int
	Tiles   []uint8 // len = 32*32, palette indices
	Objects []uint8 // len = 32*32, gen.Obj*

	DebugHue float64

	hash [32]byte
}

func (c *Chunk) index(x, y int) int {
	return x + y*genpkg.ChunkSize
}

func (c *Chunk) Tile(x, y int) uint8 {
	return c.Tiles[c.index(x, y)]
}

func (c *Chunk) Object(x, y int) uint8 {
	return c.Objects[c.index(x, y)]
}

func (c *Chunk) Key() ChunkKey { return ChunkKey{CX: c.CX, CY: c.CY} }

// Digest covers tiles then objects; it is fixed at generation.
func (c *Chunk) Digest() [32]byte {
	return c.hash
}

func (c *Chunk) seal() {
	h := sha256.New()
	h.Write(c.Tiles)
	h.Write(c.Objects)
	copy(c.hash[:], h.Sum(nil))
}

// Restore rebuilds a chunk received from elsewhere (the wire, a log) and
// seals it. It rejects arrays of the wrong size and out-of-range values.
func Restore(cx, cy int, tiles, objects []uint8, debugHue float64) (*Chunk, error) {
	if len(tiles) != genpkg.ChunkArea || len(objects) != genpkg.ChunkArea {
		return nil, fmt.Errorf("chunk (%d,%d): got %d tiles and %d objects, want %d", cx, cy, len(tiles), len(objects), genpkg.ChunkArea)
	}
	for i, t := range tiles {
		if int(t) >= biome.Count {
			return nil, fmt.Errorf("chunk (%d,%d): tile %d has biome %d", cx, cy, i, t)
		}
		if objects[i] > genpkg.ObjRock {
			return nil, fmt.Errorf("chunk (%d,%d): tile %d has object %d", cx, cy, i, objects[i])
		}
	}
	ch := &Chunk{CX: cx, CY: cy, Tiles: tiles, Objects: objects, DebugHue: debugHue}
	ch.seal()
	return ch, nil
}

// Histogram counts tiles per biome index plus placed objects.
type Histogram struct {
	Biomes [biome.Count]int
	Trees  int
	Rocks  int
}

func (c *Chunk) Histogram() Histogram {
	var h Histogram
	for i, t := range c.Tiles {
		h.Biomes[t]++
		switch c.Objects[i] {
		case genpkg.ObjTree:
			h.Trees++
		case genpkg.ObjRock:
			h.Rocks++
		}
	}
	return h
}

// GenerateHook observes every freshly generated chunk. It runs on the
// generating goroutine after the chunk is published.
type GenerateHook func(ch *Chunk, took time.Duration)

type ChunkStore struct {
	Gen *genpkg.Generator

	mu     sync.RWMutex
	chunks map[ChunkKey]*Chunk
	flight singleflight.Group

	hook GenerateHook
}

func NewChunkStore(gen *genpkg.Generator) *ChunkStore {
	return &ChunkStore{
		Gen:    gen,
		chunks: map[ChunkKey]*Chunk{},
	}
}

// SetHook must be called before the store is shared.
func (s *ChunkStore) SetHook(h GenerateHook) {
	s.hook = h
}
