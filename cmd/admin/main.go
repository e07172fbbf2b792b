package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	persistlog "tileworld.ai/internal/persistence/log"
	"tileworld.ai/internal/sim/world"
	"tileworld.ai/internal/sim/world/terrain/biome"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "db":
			dbCmd(os.Args[2:])
			return
		case "gen":
			genCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		case "worlds":
			worldsCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (optional)")
	_ = fs.Parse(args)

	base := filepath.Join(*dataDir, "worlds")
	if *worldID != "" {
		base = filepath.Join(base, *worldID)
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		fmt.Println(e.Name())
	}
}

// genCmd summarizes a world's generation log.
func genCmd(args []string) {
	fs := flag.NewFlagSet("gen", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id")
	slowest := fs.Int("slowest", 5, "list the N slowest chunks")
	_ = fs.Parse(args)

	if strings.TrimSpace(*worldID) == "" {
		fmt.Fprintln(os.Stderr, "missing -world")
		os.Exit(2)
	}
	entries, err := persistlog.ReadGenerations(filepath.Join(*dataDir, "worlds", *worldID))
	if err != nil {
		fmt.Fprintln(os.Stderr, "read generation log:", err)
		os.Exit(1)
	}
	writeGenSummary(os.Stdout, summarize(entries), *slowest)
}

type genSummary struct {
	Entries int
	Unique  int
	TotalUS int64
	MaxUS   int64
	Biomes  [biome.Count]int
	Trees   int
	Rocks   int
	Slowest []world.GenerationEntry
}

func summarize(entries []world.GenerationEntry) genSummary {
	s := genSummary{Entries: len(entries)}
	seen := make(map[[2]int]struct{}, len(entries))
	for _, e := range entries {
		seen[[2]int{e.CX, e.CY}] = struct{}{}
		s.TotalUS += e.GenUS
		s.MaxUS = max(s.MaxUS, e.GenUS)
		for i, n := range e.Biomes {
			s.Biomes[i] += n
		}
		s.Trees += e.Trees
		s.Rocks += e.Rocks
	}
	s.Unique = len(seen)
	s.Slowest = append([]world.GenerationEntry(nil), entries...)
	sort.SliceStable(s.Slowest, func(i, j int) bool { return s.Slowest[i].GenUS > s.Slowest[j].GenUS })
	return s
}

func writeGenSummary(out io.Writer, s genSummary, slowest int) {
	fmt.Fprintf(out, "entries=%d unique_chunks=%d\n", s.Entries, s.Unique)
	if s.Entries == 0 {
		return
	}
	fmt.Fprintf(out, "gen_us total=%d avg=%d max=%d\n", s.TotalUS, s.TotalUS/int64(s.Entries), s.MaxUS)
	tiles := 0
	for _, n := range s.Biomes {
		tiles += n
	}
	for i, n := range s.Biomes {
		fmt.Fprintf(out, "  %-10s %8d  %5.1f%%\n", biome.Name(i), n, 100*float64(n)/float64(max(tiles, 1)))
	}
	fmt.Fprintf(out, "trees=%d rocks=%d\n", s.Trees, s.Rocks)
	for i := 0; i < slowest && i < len(s.Slowest); i++ {
		e := s.Slowest[i]
		fmt.Fprintf(out, "slow #%d chunk=(%d,%d) gen_us=%d at=%s\n", i+1, e.CX, e.CY, e.GenUS, e.At)
	}
}
