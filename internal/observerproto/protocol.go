package observerproto

import "tileworld.ai/internal/protocol"

// Version is the observer protocol version (separate from the viewport WS protocol).
const Version = "0.1"

// Client -> Server. First message on the observer WS connection; can be re-sent
// to change the world filter.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`

	// WorldID restricts the stream to one world; empty means every world.
	WorldID string `json:"world_id,omitempty"`
}

// HTTP response for GET /admin/v1/observer/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string                         `json:"protocol_version"`
	DefaultWorldID  string                         `json:"default_world_id"`
	Worlds          []WorldState                   `json:"worlds"`
	Palettes        map[string]protocol.PaletteRef `json:"palettes"`
}

type WorldState struct {
	protocol.WorldRef
	LoadedChunks int `json:"loaded_chunks"`
	LoadedTiles  int `json:"loaded_tiles"`
}

// Server -> Client. One per generated chunk.
type GenMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	WorldID         string `json:"world_id"`
	CX              int    `json:"cx"`
	CY              int    `json:"cy"`
	Digest          string `json:"digest"`
	GenUS           int64  `json:"gen_us"`
	Biomes          []int  `json:"biomes"`
	Trees           int    `json:"trees"`
	Rocks           int    `json:"rocks"`

	// Dropped counts events skipped for this subscriber since the previous message.
	Dropped uint64 `json:"dropped,omitempty"`
}
