//go:build ebiten

// Command viewer opens a window onto a world with a slowly drifting camera.
package main

import (
	"errors"
	"flag"
	"log"
	"math"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"tileworld.ai/internal/loop"
	"tileworld.ai/internal/render"
	"tileworld.ai/internal/sim/multiworld"
	"tileworld.ai/internal/sim/world"
)

func main() {
	var (
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		worldsPath = flag.String("worlds", "", "path to worlds.yaml (default: <configs>/worlds.yaml)")
		worldID    = flag.String("world", "", "world id (default: the configured default world)")
		debug      = flag.Bool("debug", false, "outline chunks in their debug hue")
		speed      = flag.Float64("speed", 6, "camera drift in tiles per second")
		heading    = flag.Float64("heading", 20, "camera drift heading in degrees")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[viewer] ", log.LstdFlags|log.Lmicroseconds)

	tune, cfg, err := multiworld.LoadDir(*configDir, *tuningPath, *worldsPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	w, err := cfg.OpenWorld(tune, *worldID)
	if err != nil {
		logger.Fatalf("world: %v", err)
	}

	rc := tune.Render
	rd := render.New(rc.Width, rc.Height, rc.Scale)
	rd.Debug = rc.Debug || *debug

	rad := *heading * math.Pi / 180
	g := &game{
		world: w,
		rd:    rd,
		vx:    *speed * math.Cos(rad),
		vy:    *speed * math.Sin(rad),
		frame: ebiten.NewImage(rc.Width, rc.Height),
	}
	g.loop = loop.New(g.update, nil, tune.TickRateHz)

	p := w.Palette()
	logger.Printf("world=%s seed=%q planet=%s alien=%v", w.ID(), w.Seed(), p.Planet, p.Alien)

	ebiten.SetWindowTitle("tileworld: " + w.ID())
	ebiten.SetTPS(tune.TickRateHz)
	ebiten.SetWindowSize(rc.Width, rc.Height)

	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		logger.Fatal(err)
	}
}

// game adapts the renderer to ebiten.Game. ebiten owns the tick; the loop
// only supplies dt to update.
type game struct {
	world *world.World
	rd    *render.Renderer
	loop  *loop.Loop
	frame *ebiten.Image

	camX, camY float64
	vx, vy     float64
	err        error
}

func (g *game) update(dt float64) {
	g.camX += g.vx * dt
	g.camY += g.vy * dt
}

func (g *game) Update() error {
	g.loop.Tick()
	return g.err
}

func (g *game) Draw(screen *ebiten.Image) {
	img, _, err := g.rd.Render(g.world, g.camX, g.camY)
	if err != nil {
		g.err = err
		return
	}
	g.frame.WritePixels(img.Pix)
	screen.DrawImage(g.frame, nil)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.rd.Size()
}
