package main

import (
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	persistlog "tileworld.ai/internal/persistence/log"
	"tileworld.ai/internal/protocol"
	"tileworld.ai/internal/render"
	"tileworld.ai/internal/sim/multiworld"
	"tileworld.ai/internal/sim/tuning"
)

func newTestAPI(t *testing.T) (*httptest.Server, *httpAPI) {
	t.Helper()
	cfg := multiworld.Config{
		DefaultWorldID: "A",
		Worlds:         []multiworld.WorldSpec{{ID: "A", Seed: "hello"}, {ID: "B", SeedOffset: 2}},
	}
	tune := tuning.Defaults()
	m, err := multiworld.NewManager(cfg, tune)
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	gl := persistlog.NewGenLogger(filepath.Join(t.TempDir(), "A"))
	t.Cleanup(func() { _ = gl.Close() })
	m.Runtime("A").World.Observe(gl)

	api := &httpAPI{mgr: m, tune: tune, genLogs: map[string]*persistlog.GenLogger{"A": gl}}
	mux := http.NewServeMux()
	api.register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, api
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestAPI(t)
	if resp := get(t, srv.URL+"/healthz"); resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
}

func TestPalette(t *testing.T) {
	srv, api := newTestAPI(t)

	resp := get(t, srv.URL+"/v1/palette")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	var p protocol.PaletteRef
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	w, _ := api.mgr.World("A")
	want := w.PaletteRef()
	if p.Planet != want.Planet || len(p.Biomes) != len(want.Biomes) || p.Biomes[0].Color != want.Biomes[0].Color {
		t.Fatalf("default palette mismatch: got %+v want %+v", p, want)
	}

	if resp := get(t, srv.URL+"/v1/palette?world=NOPE"); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown world status=%d", resp.StatusCode)
	}
}

func TestRenderPNG(t *testing.T) {
	srv, _ := newTestAPI(t)

	resp := get(t, srv.URL+"/v1/render.png?world=B&x=0&y=0&w=64&h=48&scale=8&hud=false")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content type %q", ct)
	}
	if got := resp.Header.Get("X-Tileworld-Chunks"); got != "1" {
		t.Fatalf("chunks header %q, want 1", got)
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
		t.Fatalf("size %v", b)
	}
	r, g, b, _ := img.At(0, 0).RGBA()
	bg := render.Background
	if uint8(r>>8) == bg.R && uint8(g>>8) == bg.G && uint8(b>>8) == bg.B {
		t.Fatalf("tile pixel left as background")
	}
}

func TestRenderPNG_BadRequests(t *testing.T) {
	srv, _ := newTestAPI(t)
	for _, q := range []string{
		"x=NaN",
		"y=Inf",
		"x=1e300",
		"y=-1e300",
		"w=0",
		"h=99999",
		"scale=abc",
		"debug=maybe",
	} {
		if resp := get(t, srv.URL+"/v1/render.png?"+q); resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: status=%d want 400", q, resp.StatusCode)
		}
	}
	if resp := get(t, srv.URL+"/v1/render.png?world=NOPE"); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown world status=%d", resp.StatusCode)
	}
}

func TestWorldsAndMetrics(t *testing.T) {
	srv, api := newTestAPI(t)
	w, _ := api.mgr.World("A")
	w.Chunk(0, 0)
	w.Chunk(1, 0)

	resp := get(t, srv.URL+"/v1/worlds")
	var body struct {
		DefaultWorldID string `json:"default_world_id"`
		Worlds         []struct {
			WorldID string `json:"world_id"`
			Seed    string `json:"seed"`
			Stats   struct {
				Chunks int `json:"chunks"`
			} `json:"stats"`
		} `json:"worlds"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.DefaultWorldID != "A" || len(body.Worlds) != 2 {
		t.Fatalf("unexpected worlds: %+v", body)
	}
	for _, wi := range body.Worlds {
		switch wi.WorldID {
		case "A":
			if wi.Stats.Chunks != 2 {
				t.Fatalf("A chunks=%d", wi.Stats.Chunks)
			}
		case "B":
			if wi.Seed != "tileworld#2" {
				t.Fatalf("B seed=%q", wi.Seed)
			}
		}
	}

	resp = get(t, srv.URL+"/metrics")
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	out := string(raw)
	for _, want := range []string{
		`tileworld_world_loaded_chunks{world="A"} 2`,
		`tileworld_world_loaded_chunks{world="B"} 0`,
		`tileworld_world_loaded_tiles{world="A"} 2048`,
		`tileworld_gen_log_lines_total{world="A"} 2`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("metrics missing %q:\n%s", want, out)
		}
	}
}

func TestParseRect(t *testing.T) {
	x, y, w, h, err := parseRect("-64, 32,128,96")
	if err != nil || x != -64 || y != 32 || w != 128 || h != 96 {
		t.Fatalf("parseRect = %v %v %v %v %v", x, y, w, h, err)
	}
	for _, bad := range []string{"", "1,2,3", "a,b,c,d", "0,0,-1,5"} {
		if _, _, _, _, err := parseRect(bad); err == nil {
			t.Fatalf("parseRect(%q) accepted", bad)
		}
	}
}
