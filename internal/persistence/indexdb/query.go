package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"tileworld.ai/internal/sim/world/terrain/biome"
)

type ChunkStat struct {
	WorldID       string
	CX, CY        int
	Digest        string
	GenUS         int64
	DominantBiome int
	Biomes        [biome.Count]int
	Trees         int
	Rocks         int
}

type WorldInfo struct {
	WorldID string
	Seed    string
	Noise   string
	Planet  string
	Alien   bool
	BaseHue float64
}

func (s *SQLiteIndex) CountChunks(ctx context.Context, worldID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunk_stats WHERE world_id = ?`, worldID).Scan(&n)
	return n, err
}

// ChunkStat returns the recorded stats of one chunk; ok is false if the chunk
// was never indexed.
func (s *SQLiteIndex) ChunkStat(ctx context.Context, worldID string, cx, cy int) (st ChunkStat, ok bool, err error) {
	var raw string
	err = s.db.QueryRowContext(ctx,
		`SELECT world_id,cx,cy,digest,gen_us,dominant_biome,biomes_json,trees,rocks FROM chunk_stats WHERE world_id = ? AND cx = ? AND cy = ?`,
		worldID, cx, cy,
	).Scan(&st.WorldID, &st.CX, &st.CY, &st.Digest, &st.GenUS, &st.DominantBiome, &raw, &st.Trees, &st.Rocks)
	if errors.Is(err, sql.ErrNoRows) {
		return st, false, nil
	}
	if err != nil {
		return st, false, err
	}
	var biomes []int
	if err := json.Unmarshal([]byte(raw), &biomes); err != nil {
		return st, false, err
	}
	copy(st.Biomes[:], biomes)
	return st, true, nil
}

// DominantCounts counts indexed chunks of worldID per dominant biome index.
func (s *SQLiteIndex) DominantCounts(ctx context.Context, worldID string) ([biome.Count]int, error) {
	var out [biome.Count]int
	rows, err := s.db.QueryContext(ctx,
		`SELECT dominant_biome, COUNT(*) FROM chunk_stats WHERE world_id = ? GROUP BY dominant_biome`, worldID)
	if err != nil {
		return out, err
	}
	defer rows.Close()
	for rows.Next() {
		var b, n int
		if err := rows.Scan(&b, &n); err != nil {
			return out, err
		}
		if b >= 0 && b < biome.Count {
			out[b] = n
		}
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) World(ctx context.Context, worldID string) (info WorldInfo, ok bool, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT world_id,seed,noise,planet,alien,base_hue FROM worlds WHERE world_id = ?`, worldID,
	).Scan(&info.WorldID, &info.Seed, &info.Noise, &info.Planet, &info.Alien, &info.BaseHue)
	if errors.Is(err, sql.ErrNoRows) {
		return info, false, nil
	}
	return info, err == nil, err
}
