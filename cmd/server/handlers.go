package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"net/http"
	"strconv"
	"strings"

	"tileworld.ai/internal/persistence/indexdb"
	persistlog "tileworld.ai/internal/persistence/log"
	"tileworld.ai/internal/render"
	"tileworld.ai/internal/sim/multiworld"
	"tileworld.ai/internal/sim/tuning"
	"tileworld.ai/internal/sim/world"
	"tileworld.ai/internal/transport/observer"
)

// Largest image edge served by /v1/render.png.
const maxRenderEdge = 4096

type httpAPI struct {
	mgr      *multiworld.Manager
	tune     tuning.Tuning
	idx      runtimeIndex
	genLogs  map[string]*persistlog.GenLogger
	observer *observer.Server
}

func (a *httpAPI) register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", a.handleMetrics)
	mux.HandleFunc("/v1/worlds", a.handleWorlds)
	mux.HandleFunc("/v1/palette", a.handlePalette)
	mux.HandleFunc("/v1/render.png", a.handleRender)
}

func (a *httpAPI) world(rw http.ResponseWriter, r *http.Request) (*world.World, bool) {
	id := strings.TrimSpace(r.URL.Query().Get("world"))
	w, ok := a.mgr.World(id)
	if !ok {
		http.Error(rw, fmt.Sprintf("unknown world %q", id), http.StatusNotFound)
	}
	return w, ok
}

func (a *httpAPI) handleWorlds(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	stats := a.mgr.Stats()
	type worldInfo struct {
		WorldID string      `json:"world_id"`
		Seed    string      `json:"seed"`
		Noise   string      `json:"noise"`
		Stats   world.Stats `json:"stats"`
	}
	resp := struct {
		DefaultWorldID string      `json:"default_world_id"`
		Worlds         []worldInfo `json:"worlds"`
	}{DefaultWorldID: a.mgr.DefaultWorldID()}
	for _, ref := range a.mgr.Manifest() {
		resp.Worlds = append(resp.Worlds, worldInfo{
			WorldID: ref.WorldID,
			Seed:    ref.Seed,
			Noise:   ref.Noise,
			Stats:   stats[ref.WorldID],
		})
	}
	rw.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(rw).Encode(resp)
}

func (a *httpAPI) handlePalette(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w, ok := a.world(rw, r)
	if !ok {
		return
	}
	rw.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(rw).Encode(w.PaletteRef())
}

// handleRender serves one frame as PNG. Query: world, x, y (camera, tiles),
// w, h (pixels), scale, debug, hud.
func (a *httpAPI) handleRender(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w, ok := a.world(rw, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	var errs []string
	camX := queryFloat(q.Get("x"), 0, "x", &errs)
	camY := queryFloat(q.Get("y"), 0, "y", &errs)
	width := queryInt(q.Get("w"), a.tune.Render.Width, "w", &errs)
	height := queryInt(q.Get("h"), a.tune.Render.Height, "h", &errs)
	scale := queryFloat(q.Get("scale"), a.tune.Render.Scale, "scale", &errs)
	debug := queryBool(q.Get("debug"), a.tune.Render.Debug, "debug", &errs)
	hud := queryBool(q.Get("hud"), true, "hud", &errs)
	if len(errs) > 0 {
		http.Error(rw, strings.Join(errs, "; "), http.StatusBadRequest)
		return
	}
	if width <= 0 || height <= 0 || width > maxRenderEdge || height > maxRenderEdge {
		http.Error(rw, fmt.Sprintf("image size must be in 1..%d", maxRenderEdge), http.StatusBadRequest)
		return
	}

	rd := render.New(width, height, scale)
	rd.Debug = debug
	rd.HUD = hud
	img, fr, err := rd.Render(w, camX, camY)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, world.ErrInvalidArgument) {
			status = http.StatusBadRequest
		}
		http.Error(rw, err.Error(), status)
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		http.Error(rw, err.Error(), http.StatusInternalServerError)
		return
	}
	rw.Header().Set("Content-Type", "image/png")
	rw.Header().Set("X-Tileworld-Chunks", strconv.Itoa(fr.Chunks))
	rw.Header().Set("X-Tileworld-Drawn", strconv.Itoa(fr.Drawn))
	_, _ = rw.Write(buf.Bytes())
}

func (a *httpAPI) handleMetrics(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

	// Minimal Prometheus exposition format.
	stats := a.mgr.Stats()
	ids := a.mgr.WorldIDs()

	fmt.Fprintf(rw, "# HELP tileworld_world_loaded_chunks Loaded chunk count.\n")
	fmt.Fprintf(rw, "# TYPE tileworld_world_loaded_chunks gauge\n")
	for _, id := range ids {
		fmt.Fprintf(rw, "tileworld_world_loaded_chunks{world=%q} %d\n", id, stats[id].Chunks)
	}

	fmt.Fprintf(rw, "# HELP tileworld_world_loaded_tiles Loaded tile count.\n")
	fmt.Fprintf(rw, "# TYPE tileworld_world_loaded_tiles gauge\n")
	for _, id := range ids {
		fmt.Fprintf(rw, "tileworld_world_loaded_tiles{world=%q} %d\n", id, stats[id].Tiles)
	}

	if len(a.genLogs) > 0 {
		fmt.Fprintf(rw, "# HELP tileworld_gen_log_lines_total Generation log lines written since start.\n")
		fmt.Fprintf(rw, "# TYPE tileworld_gen_log_lines_total counter\n")
		for _, id := range ids {
			if gl := a.genLogs[id]; gl != nil {
				fmt.Fprintf(rw, "tileworld_gen_log_lines_total{world=%q} %d\n", id, gl.Writer().Lines())
			}
		}
	}

	switch idx := a.idx.(type) {
	case *indexdb.SQLiteIndex:
		s := idx.Stats()
		fmt.Fprintf(rw, "# HELP tileworld_index_queue_depth Index writer queue depth.\n")
		fmt.Fprintf(rw, "# TYPE tileworld_index_queue_depth gauge\n")
		fmt.Fprintf(rw, "tileworld_index_queue_depth %d\n", s.QueueDepth)
		fmt.Fprintf(rw, "# HELP tileworld_index_dropped_total Index requests dropped on a full queue.\n")
		fmt.Fprintf(rw, "# TYPE tileworld_index_dropped_total counter\n")
		fmt.Fprintf(rw, "tileworld_index_dropped_total{kind=%q} %d\n", "generation", s.DropGenTotal)
		fmt.Fprintf(rw, "tileworld_index_dropped_total{kind=%q} %d\n", "world", s.DropWorldTotal)
	case *indexdb.D1Index:
		s := idx.Stats()
		fmt.Fprintf(rw, "# HELP tileworld_d1_sent_total Events delivered to the remote index.\n")
		fmt.Fprintf(rw, "# TYPE tileworld_d1_sent_total counter\n")
		fmt.Fprintf(rw, "tileworld_d1_sent_total %d\n", s.SentTotal)
		fmt.Fprintf(rw, "# HELP tileworld_d1_flush_fail_total Failed remote index flushes.\n")
		fmt.Fprintf(rw, "# TYPE tileworld_d1_flush_fail_total counter\n")
		fmt.Fprintf(rw, "tileworld_d1_flush_fail_total %d\n", s.FlushFailTotal)
		fmt.Fprintf(rw, "# HELP tileworld_d1_dropped_total Events dropped by the remote index.\n")
		fmt.Fprintf(rw, "# TYPE tileworld_d1_dropped_total counter\n")
		fmt.Fprintf(rw, "tileworld_d1_dropped_total{reason=%q} %d\n", "queue", s.QueueDroppedTotal)
		fmt.Fprintf(rw, "tileworld_d1_dropped_total{reason=%q} %d\n", "retain", s.RetainDropTotal)
	}

	if a.observer != nil {
		fmt.Fprintf(rw, "# HELP tileworld_observers Connected observer sessions.\n")
		fmt.Fprintf(rw, "# TYPE tileworld_observers gauge\n")
		fmt.Fprintf(rw, "tileworld_observers %d\n", a.observer.Subscribers())
	}
}

func queryFloat(v string, def float64, name string, errs *[]string) float64 {
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("bad %s: %q", name, v))
		return def
	}
	return f
}

func queryInt(v string, def int, name string, errs *[]string) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("bad %s: %q", name, v))
		return def
	}
	return n
}

func queryBool(v string, def bool, name string, errs *[]string) bool {
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("bad %s: %q", name, v))
		return def
	}
	return b
}
