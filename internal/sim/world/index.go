package world

import (
	"math"

	"tileworld.ai/internal/sim/world/logic/mathx"
)

const (
	// MaxCoord bounds every rect edge, in tiles. Beyond it floats stop
	// mapping onto chunk keys exactly.
	MaxCoord = 1 << 40

	// MaxRectChunks bounds the chunks a single ChunksInRect or Prefetch
	// may touch.
	MaxRectChunks = 1 << 16
)

// ChunkRect is an inclusive range of chunk coordinates.
type ChunkRect struct {
	MinCX, MinCY int
	MaxCX, MaxCY int
}

func (r ChunkRect) Width() int  { return r.MaxCX - r.MinCX + 1 }
func (r ChunkRect) Height() int { return r.MaxCY - r.MinCY + 1 }

// Count is 0 for an inverted range (negative width or height).
func (r ChunkRect) Count() int {
	if r.Width() <= 0 || r.Height() <= 0 {
		return 0
	}
	return r.Width() * r.Height()
}

// Keys lists the range row-major: y outer, x inner.
func (r ChunkRect) Keys() []ChunkKey {
	out := make([]ChunkKey, 0, r.Count())
	for cy := r.MinCY; cy <= r.MaxCY; cy++ {
		for cx := r.MinCX; cx <= r.MaxCX; cx++ {
			out = append(out, ChunkKey{CX: cx, CY: cy})
		}
	}
	return out
}

// ChunkRange returns the chunks covered by a world-space rectangle given in
// tile units. The rect is half-open, [x, x+width) by [y, y+height), so a
// viewport ending exactly on a chunk boundary does not pull in the next chunk.
// A zero-sized rect covers the chunk containing (x, y); an inverted rect
// covers nothing. Edges beyond MaxCoord are rejected.
func (w *World) ChunkRange(x, y, width, height float64) (ChunkRect, error) {
	if !mathx.Finite(x, y, width, height) {
		return ChunkRect{}, invalidArgument("world.ChunkRange", "non-finite rect (%v, %v, %v, %v)", x, y, width, height)
	}
	for _, v := range []float64{x, y, x + width, y + height} {
		if math.Abs(v) > MaxCoord {
			return ChunkRect{}, invalidArgument("world.ChunkRange", "rect (%v, %v, %v, %v) exceeds |%d|", x, y, width, height, int64(MaxCoord))
		}
	}
	r := ChunkRect{
		MinCX: mathx.FloorDivFloat(x, ChunkSize),
		MinCY: mathx.FloorDivFloat(y, ChunkSize),
		MaxCX: mathx.CeilDivFloat(x+width, ChunkSize) - 1,
		MaxCY: mathx.CeilDivFloat(y+height, ChunkSize) - 1,
	}
	if width >= 0 && r.MaxCX < r.MinCX {
		r.MaxCX = r.MinCX
	}
	if height >= 0 && r.MaxCY < r.MinCY {
		r.MaxCY = r.MinCY
	}
	if rw, rh := r.Width(), r.Height(); rw > 0 && rh > 0 && rw > math.MaxInt/rh {
		return ChunkRect{}, invalidArgument("world.ChunkRange", "rect (%v, %v, %v, %v) covers too many chunks", x, y, width, height)
	}
	return r, nil
}

// boundedRange is ChunkRange limited to MaxRectChunks.
func (w *World) boundedRange(op string, x, y, width, height float64) (ChunkRect, error) {
	r, err := w.ChunkRange(x, y, width, height)
	if err != nil {
		return ChunkRect{}, err
	}
	if n := r.Count(); n > MaxRectChunks {
		return ChunkRect{}, invalidArgument(op, "rect covers %d chunks, limit %d", n, MaxRectChunks)
	}
	return r, nil
}

// ChunksInRect returns every chunk in ChunkRange, generating missing ones.
// Rects covering more than MaxRectChunks are rejected.
func (w *World) ChunksInRect(x, y, width, height float64) ([]*Chunk, error) {
	r, err := w.boundedRange("world.ChunksInRect", x, y, width, height)
	if err != nil {
		return nil, err
	}
	out := make([]*Chunk, 0, r.Count())
	for cy := r.MinCY; cy <= r.MaxCY; cy++ {
		for cx := r.MinCX; cx <= r.MaxCX; cx++ {
			out = append(out, w.Chunk(cx, cy))
		}
	}
	return out, nil
}
