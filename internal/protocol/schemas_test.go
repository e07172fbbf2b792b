package protocol_test

import (
	"encoding/json"
	"testing"

	"tileworld.ai/internal/protocol"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	validate := func(v any) {
		t.Helper()
		raw, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if _, err := protocol.Validate(raw); err != nil {
			t.Fatalf("validate %s: %v", raw, err)
		}
	}

	validate(protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      "viewer",
		Capabilities:    protocol.HelloCapabilities{MaxChunks: 64},
	})
	validate(protocol.ViewMsg{
		Type:            protocol.TypeView,
		ProtocolVersion: protocol.Version,
		Seq:             1,
		X:               -12.5,
		Width:           100,
		Height:          75,
	})

	biomes := make([]protocol.BiomeRef, 7)
	for i := range biomes {
		biomes[i] = protocol.BiomeRef{Index: i, Name: "b", Color: "#000000"}
	}
	validate(protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       "S1",
		CurrentWorldID:  "OVERWORLD",
		WorldParams: protocol.WorldParams{
			Seed:         "hello",
			ChunkSize:    32,
			NoiseBackend: "simplex",
			TickRateHz:   60,
			MaxViewTiles: 65536,
		},
		Palette: protocol.PaletteRef{Planet: "normal", Biomes: biomes},
	})

	hue := 12.5
	validate(protocol.ChunksMsg{
		Type:            protocol.TypeChunks,
		ProtocolVersion: protocol.Version,
		Seq:             1,
		WorldID:         "OVERWORLD",
		Range:           protocol.ChunkRange{MinCX: -1, MinCY: -1},
		Chunks: []protocol.ChunkData{{
			CX:       -1,
			CY:       0,
			Encoding: "RLE",
			Tiles:    "AIAI",
			Objects:  "AIAI",
			Digest:   "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef",
			DebugHue: &hue,
		}},
	})
	validate(protocol.NewError(protocol.ErrInvalidArgument, "bad rect", 3))
}

func TestSchemas_RejectMalformed(t *testing.T) {
	cases := map[string]string{
		"hello missing name":  `{"type":"HELLO","protocol_version":"1.0"}`,
		"hello extra field":   `{"type":"HELLO","protocol_version":"1.0","client_name":"x","agent":"y"}`,
		"view string coord":   `{"type":"VIEW","protocol_version":"1.0","seq":1,"x":"0","y":0,"width":1,"height":1}`,
		"view missing height": `{"type":"VIEW","protocol_version":"1.0","seq":1,"x":0,"y":0,"width":1}`,
		"view negative seq":   `{"type":"VIEW","protocol_version":"1.0","seq":-1,"x":0,"y":0,"width":1,"height":1}`,
		"unknown type":        `{"type":"ACT","protocol_version":"1.0"}`,
		"not json":            `{`,
	}
	for name, raw := range cases {
		if _, err := protocol.Validate([]byte(raw)); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}
