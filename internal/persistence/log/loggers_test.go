package log

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"tileworld.ai/internal/sim/world"
)

func TestGenLogger_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	w, err := world.New(world.DefaultConfig("W", "hello"))
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	gl := NewGenLogger(dir)
	w.Observe(gl)

	chunks, err := w.ChunksInRect(0, 0, 64, 32)
	if err != nil {
		t.Fatalf("chunks: %v", err)
	}
	if err := gl.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if gl.Writer().Lines() != 2 {
		t.Fatalf("lines: got %d want 2", gl.Writer().Lines())
	}

	entries, err := ReadGenerations(dir)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(entries) != len(chunks) {
		t.Fatalf("entries: got %d want %d", len(entries), len(chunks))
	}
	for i, e := range entries {
		if e.WorldID != "W" || e.CX != chunks[i].CX || e.CY != chunks[i].CY {
			t.Fatalf("entry %d: %+v", i, e)
		}
		total := 0
		for _, n := range e.Biomes {
			total += n
		}
		if total != world.ChunkSize*world.ChunkSize {
			t.Fatalf("entry %d histogram sums to %d", i, total)
		}
		if len(e.Digest) != 64 {
			t.Fatalf("entry %d digest %q", i, e.Digest)
		}
	}
}

func TestJSONLZstdWriter_RotatesHourly(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(dir, "x")
	clock := time.Date(2026, 1, 2, 3, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return clock }

	for i := 0; i < 3; i++ {
		if err := w.Write(map[string]int{"i": i}); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	clock = clock.Add(2 * time.Minute)
	if err := w.Write(map[string]int{"i": 3}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	files, err := w.Files()
	if err != nil {
		t.Fatalf("files: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("files: %v", files)
	}
	if filepath.Base(files[0]) != "x-2026-01-02-03.jsonl.zst" || filepath.Base(files[1]) != "x-2026-01-02-04.jsonl.zst" {
		t.Fatalf("names: %v", files)
	}

	var got []int
	for _, f := range files {
		err := ReadJSONL(f, func(line []byte) error {
			var v map[string]int
			if err := json.Unmarshal(line, &v); err != nil {
				return err
			}
			got = append(got, v["i"])
			return nil
		})
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
	}
	if len(got) != 4 || got[0] != 0 || got[3] != 3 {
		t.Fatalf("lines: %v", got)
	}
}

func TestJSONLZstdWriter_AppendsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	clock := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	for round := 0; round < 2; round++ {
		w := NewJSONLZstdWriter(dir, "y")
		w.now = func() time.Time { return clock }
		if err := w.Write(map[string]int{"round": round}); err != nil {
			t.Fatalf("write: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}
	n := 0
	err := ReadJSONL(filepath.Join(dir, "y-2026-05-01-10.jsonl.zst"), func([]byte) error {
		n++
		return nil
	})
	if err != nil || n != 2 {
		t.Fatalf("read: n=%d err=%v", n, err)
	}
}

func TestGenLogger_WritesAfterCloseAreRejected(t *testing.T) {
	dir := t.TempDir()
	gl := NewGenLogger(dir)
	if err := gl.WriteGeneration(world.GenerationEntry{WorldID: "W", CX: 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := gl.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := gl.WriteGeneration(world.GenerationEntry{WorldID: "W", CX: 2}); !errors.Is(err, ErrClosed) {
		t.Fatalf("write after close: got %v want ErrClosed", err)
	}

	entries, err := ReadGenerations(dir)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(entries) != 1 || entries[0].CX != 1 {
		t.Fatalf("entries: %+v", entries)
	}
}
