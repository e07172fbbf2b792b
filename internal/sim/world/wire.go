package world

import (
	"encoding/hex"
	"fmt"

	"tileworld.ai/internal/protocol"
	"tileworld.ai/internal/sim/encoding"
	genpkg "tileworld.ai/internal/sim/world/terrain/gen"
	storepkg "tileworld.ai/internal/sim/world/terrain/store"
)

// PaletteRef is the wire form of the world palette.
func (w *World) PaletteRef() protocol.PaletteRef {
	p := w.palette
	biomes := p.Biomes()
	out := protocol.PaletteRef{
		WaterLevel:   p.WaterLevel,
		MoistureBias: p.MoistureBias,
		Planet:       string(p.Planet),
		Alien:        p.Alien,
		BaseHue:      p.BaseHue,
		Biomes:       make([]protocol.BiomeRef, len(biomes)),
	}
	for i, b := range biomes {
		out.Biomes[i] = protocol.BiomeRef{
			Index:        i,
			Name:         b.Name,
			Color:        b.CSS,
			MinElevation: b.MinElevation,
			MinMoisture:  b.MinMoisture,
		}
	}
	return out
}

func (w *World) WorldRef() protocol.WorldRef {
	return protocol.WorldRef{WorldID: w.cfg.ID, Seed: w.cfg.Seed, Noise: string(w.cfg.Noise)}
}

func (r ChunkRect) Wire() protocol.ChunkRange {
	return protocol.ChunkRange{MinCX: r.MinCX, MinCY: r.MinCY, MaxCX: r.MaxCX, MaxCY: r.MaxCY}
}

// EncodeChunk converts ch to its RLE wire form.
func EncodeChunk(ch *Chunk, debug bool) protocol.ChunkData {
	d := ch.Digest()
	out := protocol.ChunkData{
		CX:       ch.CX,
		CY:       ch.CY,
		Encoding: "RLE",
		Tiles:    encoding.EncodeRLE(ch.Tiles),
		Objects:  encoding.EncodeRLE(ch.Objects),
		Digest:   hex.EncodeToString(d[:]),
	}
	if debug {
		hue := ch.DebugHue
		out.DebugHue = &hue
	}
	return out
}

// DecodeChunk is the inverse of EncodeChunk. The rebuilt chunk must match the
// digest it was sent with.
func DecodeChunk(cd protocol.ChunkData) (*Chunk, error) {
	if cd.Encoding != "RLE" {
		return nil, fmt.Errorf("chunk (%d,%d): unsupported encoding %q", cd.CX, cd.CY, cd.Encoding)
	}
	tiles, err := encoding.DecodeRLE(cd.Tiles, genpkg.ChunkArea)
	if err != nil {
		return nil, fmt.Errorf("chunk (%d,%d) tiles: %w", cd.CX, cd.CY, err)
	}
	objects, err := encoding.DecodeRLE(cd.Objects, genpkg.ChunkArea)
	if err != nil {
		return nil, fmt.Errorf("chunk (%d,%d) objects: %w", cd.CX, cd.CY, err)
	}
	var hue float64
	if cd.DebugHue != nil {
		hue = *cd.DebugHue
	}
	ch, err := storepkg.Restore(cd.CX, cd.CY, tiles, objects, hue)
	if err != nil {
		return nil, err
	}
	d := ch.Digest()
	if got := hex.EncodeToString(d[:]); got != cd.Digest {
		return nil, fmt.Errorf("chunk (%d,%d): digest mismatch: got=%s want=%s", cd.CX, cd.CY, got, cd.Digest)
	}
	return ch, nil
}
