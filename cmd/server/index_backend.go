package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tileworld.ai/internal/persistence/indexdb"
	"tileworld.ai/internal/sim/world"
)

type runtimeIndex interface {
	world.GenerationSink
	Close() error
	RecordWorld(w *world.World)
}

func openRuntimeIndex(dataDir string, disableDB bool, logger *log.Logger) (runtimeIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("TW_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		dbPath := filepath.Join(dataDir, "index", "worlds.sqlite")
		return indexdb.OpenSQLite(dbPath)
	case "d1":
		endpoint := strings.TrimSpace(os.Getenv("TW_INDEX_D1_INGEST_URL"))
		token := strings.TrimSpace(os.Getenv("TW_INDEX_D1_TOKEN"))
		if endpoint == "" {
			return nil, fmt.Errorf("TW_INDEX_BACKEND=d1 but TW_INDEX_D1_INGEST_URL is empty")
		}
		flushMS := envInt("TW_INDEX_D1_FLUSH_MS", 500)
		batchSize := envInt("TW_INDEX_D1_BATCH_SIZE", 128)
		idx, err := indexdb.OpenD1(indexdb.D1Config{
			Endpoint:      endpoint,
			Token:         token,
			BatchSize:     batchSize,
			FlushInterval: time.Duration(flushMS) * time.Millisecond,
			Logger:        logger,
		})
		if err != nil {
			return nil, err
		}
		return idx, nil
	default:
		return nil, fmt.Errorf("unsupported TW_INDEX_BACKEND: %s", backend)
	}
}
