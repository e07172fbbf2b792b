package store

import (
	"sort"
	"strconv"

	genpkg "tileworld.ai/internal/sim/world/terrain/gen"
)

// Lookup returns a chunk only if it has already been generated.
func (s *ChunkStore) Lookup(cx, cy int) (*Chunk, bool) {
	s.mu.RLock()
	ch, ok := s.chunks[ChunkKey{CX: cx, CY: cy}]
	s.mu.RUnlock()
	return ch, ok
}

func (s *ChunkStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

func (s *ChunkStore) LoadedChunkKeys() []ChunkKey {
	s.mu.RLock()
	keys := make([]ChunkKey, 0, len(s.chunks))
	for k := range s.chunks {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CY != keys[j].CY {
			return keys[i].CY < keys[j].CY
		}
		return keys[i].CX < keys[j].CX
	})
	return keys
}

// TileAt resolves a world tile, generating its chunk if needed.
func (s *ChunkStore) TileAt(x, y int) (tile, obj uint8) {
	cx := genpkg.FloorDiv(x, genpkg.ChunkSize)
	cy := genpkg.FloorDiv(y, genpkg.ChunkSize)
	lx := genpkg.Mod(x, genpkg.ChunkSize)
	ly := genpkg.Mod(y, genpkg.ChunkSize)
	ch := s.GetOrGenChunk(cx, cy)
	return ch.Tile(lx, ly), ch.Object(lx, ly)
}

// GetOrGenChunk returns the cached chunk or generates it. Concurrent callers
// for the same missing key share one generation and receive the same pointer.
func (s *ChunkStore) GetOrGenChunk(cx, cy int) *Chunk {
	if ch, ok := s.Lookup(cx, cy); ok {
		return ch
	}

	k := ChunkKey{CX: cx, CY: cy}
	v, _, _ := s.flight.Do(flightKey(k), func() (any, error) {
		// A previous flight may have published between our miss and Do.
		if ch, ok := s.Lookup(cx, cy); ok {
			return ch, nil
		}
		ch, took := s.GenerateChunk(cx, cy)

		s.mu.Lock()
		s.chunks[k] = ch
		s.mu.Unlock()

		if s.hook != nil {
			s.hook(ch, took)
		}
		return ch, nil
	})
	return v.(*Chunk)
}

func flightKey(k ChunkKey) string {
	return strconv.Itoa(k.CX) + "," + strconv.Itoa(k.CY)
}
