package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"tileworld.ai/internal/sim/world"
)

// SQLiteIndex records world metadata and per-chunk generation statistics.
// Writes are queued to a single writer goroutine and dropped when the queue
// is full; the JSONL generation log remains the source of truth.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	// mu orders sends against Close; senders hold it shared.
	mu     sync.RWMutex
	closed atomic.Bool

	dropGenTotal   atomic.Uint64
	dropWorldTotal atomic.Uint64
}

type reqKind int

const (
	reqGeneration reqKind = iota + 1
	reqWorld
	reqFlush
)

type req struct {
	kind reqKind

	gen   world.GenerationEntry
	world worldRow
	done  chan struct{}
}

type worldRow struct {
	WorldID      string
	Seed         string
	Noise        string
	Planet       string
	Alien        bool
	BaseHue      float64
	WaterLevel   float64
	MoistureBias float64
	PaletteJSON  string
	UpdatedAt    string
}

type Stats struct {
	QueueDepth     int
	QueueCapacity  int
	DropGenTotal   uint64
	DropWorldTotal uint64
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS worlds (
			world_id TEXT PRIMARY KEY,
			seed TEXT NOT NULL,
			noise TEXT NOT NULL,
			planet TEXT NOT NULL,
			alien INTEGER NOT NULL,
			base_hue REAL NOT NULL,
			water_level REAL NOT NULL,
			moisture_bias REAL NOT NULL,
			palette_json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS chunk_stats (
			world_id TEXT NOT NULL,
			cx INTEGER NOT NULL,
			cy INTEGER NOT NULL,
			digest TEXT NOT NULL,
			gen_us INTEGER NOT NULL,
			dominant_biome INTEGER NOT NULL,
			biomes_json TEXT NOT NULL,
			trees INTEGER NOT NULL,
			rocks INTEGER NOT NULL,
			generated_at TEXT NOT NULL,
			PRIMARY KEY (world_id, cx, cy)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chunk_stats_dominant ON chunk_stats(world_id, dominant_biome);`,
		`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1');`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.closed.Store(true)
		close(s.ch)
		s.mu.Unlock()
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	return Stats{
		QueueDepth:     len(s.ch),
		QueueCapacity:  cap(s.ch),
		DropGenTotal:   s.dropGenTotal.Load(),
		DropWorldTotal: s.dropWorldTotal.Load(),
	}
}

// WriteGeneration implements world.GenerationSink.
func (s *SQLiteIndex) WriteGeneration(entry world.GenerationEntry) error {
	if s == nil {
		return nil
	}
	if sent, open := s.trySend(req{kind: reqGeneration, gen: entry}); open && !sent {
		s.dropGenTotal.Add(1)
	}
	return nil
}

// trySend queues r without blocking. open is false once Close has begun.
func (s *SQLiteIndex) trySend(r req) (sent, open bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed.Load() {
		return false, false
	}
	select {
	case s.ch <- r:
		return true, true
	default:
		return false, true
	}
}

// RecordWorld upserts the palette metadata of w.
func (s *SQLiteIndex) RecordWorld(w *world.World) {
	if s == nil || s.closed.Load() || w == nil {
		return
	}
	p := w.PaletteRef()
	raw, _ := json.Marshal(p.Biomes)
	r := worldRow{
		WorldID:      w.ID(),
		Seed:         w.Seed(),
		Noise:        string(w.Config().Noise),
		Planet:       p.Planet,
		Alien:        p.Alien,
		BaseHue:      p.BaseHue,
		WaterLevel:   p.WaterLevel,
		MoistureBias: p.MoistureBias,
		PaletteJSON:  string(raw),
		UpdatedAt:    time.Now().UTC().Format(time.RFC3339Nano),
	}
	if sent, open := s.trySend(req{kind: reqWorld, world: r}); open && !sent {
		s.dropWorldTotal.Add(1)
	}
}

// Flush blocks until every request queued before it is committed.
func (s *SQLiteIndex) Flush(ctx context.Context) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	done := make(chan struct{})
	s.mu.RLock()
	if s.closed.Load() {
		s.mu.RUnlock()
		return nil
	}
	select {
	case s.ch <- req{kind: reqFlush, done: done}:
		s.mu.RUnlock()
	case <-ctx.Done():
		s.mu.RUnlock()
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func dominant(biomes []int) int {
	best := 0
	for i, n := range biomes {
		if n > biomes[best] {
			best = i
		}
	}
	return best
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertGen, _ := s.db.Prepare(`INSERT OR REPLACE INTO chunk_stats(world_id,cx,cy,digest,gen_us,dominant_biome,biomes_json,trees,rocks,generated_at) VALUES(?,?,?,?,?,?,?,?,?,?)`)
	upsertWorld, _ := s.db.Prepare(`INSERT OR REPLACE INTO worlds(world_id,seed,noise,planet,alien,base_hue,water_level,moisture_bias,palette_json,updated_at) VALUES(?,?,?,?,?,?,?,?,?,?)`)
	defer func() {
		if insertGen != nil {
			_ = insertGen.Close()
		}
		if upsertWorld != nil {
			_ = upsertWorld.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for r := range s.ch {
		if r.kind == reqFlush {
			commit()
			close(r.done)
			continue
		}
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqGeneration:
			g := r.gen
			biomes := g.Biomes[:]
			raw, _ := json.Marshal(biomes)
			if insertGen != nil {
				if _, err := tx.Stmt(insertGen).Exec(
					g.WorldID,
					g.CX,
					g.CY,
					g.Digest,
					g.GenUS,
					dominant(biomes),
					string(raw),
					g.Trees,
					g.Rocks,
					g.At,
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}

		case reqWorld:
			w := r.world
			if upsertWorld != nil {
				if _, err := tx.Stmt(upsertWorld).Exec(
					w.WorldID,
					w.Seed,
					w.Noise,
					w.Planet,
					w.Alien,
					w.BaseHue,
					w.WaterLevel,
					w.MoistureBias,
					w.PaletteJSON,
					w.UpdatedAt,
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	commit()
}
