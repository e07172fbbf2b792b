package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type              string            `json:"type"`
	ProtocolVersion   string            `json:"protocol_version"`
	SupportedVersions []string          `json:"supported_versions,omitempty"`
	ClientName        string            `json:"client_name"`
	Capabilities      HelloCapabilities `json:"capabilities,omitempty"`
	WorldPreference   string            `json:"world_preference,omitempty"`
}

type HelloCapabilities struct {
	// MaxChunks caps the chunks sent per CHUNKS message; 0 means the server default.
	MaxChunks int  `json:"max_chunks,omitempty"`
	Debug     bool `json:"debug,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	SessionID       string      `json:"session_id"`
	CurrentWorldID  string      `json:"current_world_id"`
	WorldParams     WorldParams `json:"world_params"`
	Palette         PaletteRef  `json:"palette"`
	WorldManifest   []WorldRef  `json:"world_manifest,omitempty"`
}

type WorldRef struct {
	WorldID string `json:"world_id"`
	Seed    string `json:"seed"`
	Noise   string `json:"noise,omitempty"`
}

type WorldParams struct {
	Seed         string `json:"seed"`
	ChunkSize    int    `json:"chunk_size"`
	NoiseBackend string `json:"noise_backend"`
	TickRateHz   int    `json:"tick_rate_hz"`
	MaxViewTiles int    `json:"max_view_tiles"`
}

type PaletteRef struct {
	WaterLevel   float64    `json:"water_level"`
	MoistureBias float64    `json:"moisture_bias"`
	Planet       string     `json:"planet"`
	Alien        bool       `json:"alien"`
	BaseHue      float64    `json:"base_hue"`
	Biomes       []BiomeRef `json:"biomes"`
}

// BiomeRef is addressed by Index; tile values are indices into Biomes.
type BiomeRef struct {
	Index        int     `json:"index"`
	Name         string  `json:"name"`
	Color        string  `json:"color"`
	MinElevation float64 `json:"min_elevation"`
	MinMoisture  float64 `json:"min_moisture"`
}

// VIEW (client -> server): a world-space rect in tiles.
type ViewMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	Seq             uint64  `json:"seq"`
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
	Width           float64 `json:"width"`
	Height          float64 `json:"height"`
}

// CHUNKS (server -> client). Chunks already delivered on this connection are
// omitted; Range always reports the full covered range.
type ChunksMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	Seq             uint64      `json:"seq"`
	WorldID         string      `json:"world_id"`
	Range           ChunkRange  `json:"range"`
	Chunks          []ChunkData `json:"chunks"`
	More            bool        `json:"more,omitempty"`
}

type ChunkRange struct {
	MinCX int `json:"min_cx"`
	MinCY int `json:"min_cy"`
	MaxCX int `json:"max_cx"`
	MaxCY int `json:"max_cy"`
}

type ChunkData struct {
	CX       int      `json:"cx"`
	CY       int      `json:"cy"`
	Encoding string   `json:"encoding"` // "RLE"
	Tiles    string   `json:"tiles"`
	Objects  string   `json:"objects"`
	Digest   string   `json:"digest"`
	DebugHue *float64 `json:"debug_hue,omitempty"`
}

type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message"`
	Ref             uint64 `json:"ref,omitempty"`
}

func NewError(code, msg string, ref uint64) ErrorMsg {
	return ErrorMsg{Type: TypeError, ProtocolVersion: Version, Code: code, Message: msg, Ref: ref}
}
