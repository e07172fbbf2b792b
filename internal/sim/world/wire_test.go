package world

import (
	"bytes"
	"strings"
	"testing"

	"tileworld.ai/internal/sim/encoding"
)

func TestEncodeDecodeChunk(t *testing.T) {
	w := newTestWorld(t, "wire")
	ch := w.Chunk(-2, 5)

	cd := EncodeChunk(ch, true)
	if cd.DebugHue == nil || *cd.DebugHue != ch.DebugHue {
		t.Fatalf("debug hue not carried: %v", cd.DebugHue)
	}
	got, err := DecodeChunk(cd)
	if err != nil {
		t.Fatalf("DecodeChunk: %v", err)
	}
	if got.CX != -2 || got.CY != 5 || got.Digest() != ch.Digest() {
		t.Fatalf("decoded chunk differs")
	}
	if !bytes.Equal(got.Tiles, ch.Tiles) || !bytes.Equal(got.Objects, ch.Objects) {
		t.Fatalf("decoded arrays differ")
	}

	if plain := EncodeChunk(ch, false); plain.DebugHue != nil {
		t.Fatalf("debug hue sent without debug")
	}
}

func TestDecodeChunk_Rejects(t *testing.T) {
	w := newTestWorld(t, "wire")
	good := EncodeChunk(w.Chunk(0, 0), false)

	tampered := good
	tampered.Digest = strings.Repeat("0", 64)
	if _, err := DecodeChunk(tampered); err == nil || !strings.Contains(err.Error(), "digest mismatch") {
		t.Fatalf("expected digest mismatch, got %v", err)
	}

	short := good
	short.Tiles = encoding.EncodeRLE(make([]uint8, 10))
	if _, err := DecodeChunk(short); err == nil {
		t.Fatalf("expected short tiles to be rejected")
	}

	badBiome := good
	tiles := make([]uint8, ChunkSize*ChunkSize)
	tiles[7] = 200
	badBiome.Tiles = encoding.EncodeRLE(tiles)
	if _, err := DecodeChunk(badBiome); err == nil {
		t.Fatalf("expected out-of-range biome to be rejected")
	}

	other := good
	other.Encoding = "RAW"
	if _, err := DecodeChunk(other); err == nil {
		t.Fatalf("expected unknown encoding to be rejected")
	}
}

func TestPaletteRef(t *testing.T) {
	w := newTestWorld(t, "wire")
	ref := w.PaletteRef()
	p := w.Palette()
	if len(ref.Biomes) != p.Len() || ref.Planet != string(p.Planet) || ref.Alien != p.Alien {
		t.Fatalf("palette ref %+v", ref)
	}
	for i, b := range ref.Biomes {
		if b.Index != i || b.Name != p.At(i).Name || b.Color != p.At(i).CSS {
			t.Fatalf("biome %d: %+v", i, b)
		}
	}
}
