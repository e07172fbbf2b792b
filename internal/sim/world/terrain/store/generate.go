package store

import (
	"time"

	genpkg "tileworld.ai/internal/sim/world/terrain/gen"
)

// GenerateChunk builds chunk (cx, cy) without touching the cache.
func (s *ChunkStore) GenerateChunk(cx, cy int) (*Chunk, time.Duration) {
	start := time.Now()
	ch := &Chunk{
		CX:       cx,
		CY:       cy,
		Tiles:    make([]uint8, genpkg.ChunkArea),
		Objects:  make([]uint8, genpkg.ChunkArea),
		DebugHue: s.Gen.DebugHue(cx, cy),
	}
	for y := 0; y < genpkg.ChunkSize; y++ {
		for x := 0; x < genpkg.ChunkSize; x++ {
			wx := cx*genpkg.ChunkSize + x
			wy := cy*genpkg.ChunkSize + y
			i := ch.index(x, y)
			ch.Tiles[i], ch.Objects[i] = s.Gen.Tile(wx, wy)
		}
	}
	ch.seal()
	return ch, time.Since(start)
}
