package world

import (
	genpkg "tileworld.ai/internal/sim/world/terrain/gen"
	storepkg "tileworld.ai/internal/sim/world/terrain/store"
)

type ChunkKey = storepkg.ChunkKey
type Chunk = storepkg.Chunk

const (
	ChunkSize = genpkg.ChunkSize
	ChunkArea = genpkg.ChunkArea
)

// Object codes as stored in Chunk.Objects.
const (
	ObjNone = genpkg.ObjNone
	ObjTree = genpkg.ObjTree
	ObjRock = genpkg.ObjRock
)
