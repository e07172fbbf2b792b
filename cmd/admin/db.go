package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"tileworld.ai/internal/persistence/indexdb"
	"tileworld.ai/internal/sim/world/terrain/biome"
)

// dbCmd queries the generation index: world | count | dominant | chunk CX CY.
func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (required)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	_ = fs.Parse(args)

	if strings.TrimSpace(*worldID) == "" {
		fmt.Fprintln(os.Stderr, "missing -world")
		os.Exit(2)
	}
	path := strings.TrimSpace(*dbPath)
	if path == "" {
		path = filepath.Join(*dataDir, "index", "worlds.sqlite")
	}
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintln(os.Stderr, "index:", err)
		os.Exit(1)
	}

	idx, err := indexdb.OpenSQLite(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer idx.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := runDBQuery(ctx, os.Stdout, idx, *worldID, fs.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
}

func runDBQuery(ctx context.Context, out io.Writer, idx *indexdb.SQLiteIndex, worldID string, args []string) error {
	q := "world"
	if len(args) > 0 {
		q = strings.TrimSpace(args[0])
	}
	enc := json.NewEncoder(out)

	switch q {
	case "world":
		info, ok, err := idx.World(ctx, worldID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("world %q not indexed", worldID)
		}
		return enc.Encode(info)
	case "count":
		n, err := idx.CountChunks(ctx, worldID)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, n)
		return nil
	case "dominant":
		counts, err := idx.DominantCounts(ctx, worldID)
		if err != nil {
			return err
		}
		for i, n := range counts {
			fmt.Fprintf(out, "%-10s %d\n", biome.Name(i), n)
		}
		return nil
	case "chunk":
		if len(args) != 3 {
			return fmt.Errorf("usage: chunk CX CY")
		}
		cx, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("bad CX: %w", err)
		}
		cy, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("bad CY: %w", err)
		}
		st, ok, err := idx.ChunkStat(ctx, worldID, cx, cy)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("chunk (%d,%d) not indexed", cx, cy)
		}
		return enc.Encode(st)
	default:
		return fmt.Errorf("unknown query %q (world|count|dominant|chunk)", q)
	}
}
