// Command render draws one viewport of a world to a PNG file.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"strings"

	"tileworld.ai/internal/render"
	"tileworld.ai/internal/sim/multiworld"
	"tileworld.ai/internal/sim/tuning"
	"tileworld.ai/internal/sim/world"
)

func main() {
	var (
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		worldsPath = flag.String("worlds", "", "path to worlds.yaml (default: <configs>/worlds.yaml)")
		worldID    = flag.String("world", "", "world id (default: the configured default world)")
		seed       = flag.String("seed", "", "render an ad-hoc world with this seed instead of a configured one")
		backend    = flag.String("noise", "", "noise backend override for -seed (simplex|perlin|opensimplex)")

		camX   = flag.Float64("x", 0, "camera x (world tiles)")
		camY   = flag.Float64("y", 0, "camera y (world tiles)")
		width  = flag.Int("w", 0, "image width (default: tuning render.width)")
		height = flag.Int("h", 0, "image height (default: tuning render.height)")
		scale  = flag.Float64("scale", 0, "pixels per tile (default: tuning render.scale)")
		debug  = flag.Bool("debug", false, "outline chunks in their debug hue")
		hud    = flag.Bool("hud", true, "draw the chunk/camera/zoom readout")
		out    = flag.String("out", "world.png", "output path")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[render] ", log.LstdFlags|log.Lmicroseconds)

	tune, cfg, err := multiworld.LoadDir(*configDir, *tuningPath, *worldsPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	w, err := openWorld(tune, cfg, *worldID, *seed, *backend)
	if err != nil {
		logger.Fatalf("world: %v", err)
	}

	rc := tune.Render
	if *width > 0 {
		rc.Width = *width
	}
	if *height > 0 {
		rc.Height = *height
	}
	if *scale > 0 {
		rc.Scale = *scale
	}
	rc.Debug = rc.Debug || *debug

	img, fr, err := renderFrame(w, rc, *hud, *camX, *camY)
	if err != nil {
		logger.Fatalf("render: %v", err)
	}
	if err := writePNG(*out, img); err != nil {
		logger.Fatalf("write: %v", err)
	}
	p := w.Palette()
	logger.Printf("wrote %s: world=%s seed=%q planet=%s alien=%v chunks=%d drawn=%d",
		*out, w.ID(), w.Seed(), p.Planet, p.Alien, fr.Chunks, fr.Drawn)
}

func openWorld(tune tuning.Tuning, cfg multiworld.Config, id, seed, backend string) (*world.World, error) {
	if strings.TrimSpace(seed) == "" {
		return cfg.OpenWorld(tune, id)
	}
	if backend != "" {
		tune.NoiseBackend = backend
	}
	if id == "" {
		id = "adhoc"
	}
	wc, err := tune.WorldConfig(id, seed)
	if err != nil {
		return nil, err
	}
	return world.New(wc)
}

func renderFrame(w *world.World, rc tuning.Render, hud bool, camX, camY float64) (image.Image, render.Frame, error) {
	rd := render.New(rc.Width, rc.Height, rc.Scale)
	rd.Debug = rc.Debug
	rd.HUD = hud
	img, fr, err := rd.Render(w, camX, camY)
	if err != nil {
		return nil, fr, err
	}
	return img, fr, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
