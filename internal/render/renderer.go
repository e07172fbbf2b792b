// Package render rasterizes a camera view of a world onto an RGBA surface.
package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"tileworld.ai/internal/sim/world"
	"tileworld.ai/internal/sim/world/terrain/biome"
)

const (
	MinScale = 1
	MaxScale = 32
)

var (
	Background = color.RGBA{0x0d, 0x0d, 0x0d, 0xff}
	TreeColor  = color.RGBA{0x06, 0x4e, 0x3b, 0xff}
	RockColor  = color.RGBA{0x3f, 0x3f, 0x46, 0xff}
	hudColor   = color.RGBA{0xff, 0xff, 0xff, 0xff}
)

// Source is the world view the renderer draws from.
type Source interface {
	ChunksInRect(x, y, width, height float64) ([]*world.Chunk, error)
	Palette() *biome.Palette
}

// Frame summarizes one Render call.
type Frame struct {
	Chunks int // covered by the view
	Drawn  int // survived culling
}

// Renderer owns its target image; Render overwrites it in place.
type Renderer struct {
	width  int
	height int
	scale  float64

	// Debug outlines every chunk in its debug hue.
	Debug bool
	// HUD draws the chunk/camera/zoom readout.
	HUD bool

	img *image.RGBA
}

func New(width, height int, scale float64) *Renderer {
	r := &Renderer{HUD: true}
	r.Resize(width, height)
	r.SetScale(scale)
	return r
}

func (r *Renderer) Resize(width, height int) {
	width = max(width, 1)
	height = max(height, 1)
	if r.img != nil && r.width == width && r.height == height {
		return
	}
	r.width, r.height = width, height
	r.img = image.NewRGBA(image.Rect(0, 0, width, height))
}

// SetScale sets pixels per tile, clamped to [MinScale, MaxScale].
func (r *Renderer) SetScale(s float64) {
	if math.IsNaN(s) {
		return
	}
	r.scale = math.Max(MinScale, math.Min(MaxScale, s))
}

func (r *Renderer) Scale() float64     { return r.scale }
func (r *Renderer) Size() (int, int)   { return r.width, r.height }
func (r *Renderer) Image() *image.RGBA { return r.img }

// ViewTiles is the number of tiles visible on each axis.
func (r *Renderer) ViewTiles() (int, int) {
	return int(math.Ceil(float64(r.width) / r.scale)), int(math.Ceil(float64(r.height) / r.scale))
}

// Render draws the view whose top-left world tile coordinate is (camX, camY).
func (r *Renderer) Render(src Source, camX, camY float64) (*image.RGBA, Frame, error) {
	fill(r.img, r.img.Rect, Background)

	tw, th := r.ViewTiles()
	chunks, err := src.ChunksInRect(camX, camY, float64(tw), float64(th))
	if err != nil {
		return r.img, Frame{}, fmt.Errorf("render: %w", err)
	}
	colors := src.Palette().Colors()

	fr := Frame{Chunks: len(chunks)}
	for _, ch := range chunks {
		if r.drawChunk(ch, camX, camY, colors) {
			fr.Drawn++
		}
	}
	if r.HUD {
		r.drawHUD(len(chunks), camX, camY)
	}
	return r.img, fr, nil
}

func (r *Renderer) drawChunk(ch *world.Chunk, camX, camY float64, colors []color.RGBA) bool {
	const n = world.ChunkSize
	offX := (float64(ch.CX*n) - camX) * r.scale
	offY := (float64(ch.CY*n) - camY) * r.scale
	span := n * r.scale
	w, h := float64(r.width), float64(r.height)
	if offX > w || offY > h || offX+span < 0 || offY+span < 0 {
		return false
	}

	size := int(math.Ceil(r.scale))
	inset := objectInset(r.scale)
	for dy := 0; dy < n; dy++ {
		py := int(math.Floor(offY + float64(dy)*r.scale))
		for dx := 0; dx < n; dx++ {
			px := int(math.Floor(offX + float64(dx)*r.scale))
			i := dy*n + dx

			if t := int(ch.Tiles[i]); t < len(colors) {
				fill(r.img, image.Rect(px, py, px+size, py+size), colors[t])
			}
			if inset < 0 {
				continue
			}
			switch ch.Objects[i] {
			case world.ObjTree:
				fill(r.img, image.Rect(px+inset, py+inset, px+size-inset, py+size-inset), TreeColor)
			case world.ObjRock:
				fill(r.img, image.Rect(px+inset, py+inset, px+size-inset, py+size-inset), RockColor)
			}
		}
	}
	if r.Debug {
		r.outline(image.Rect(int(math.Floor(offX)), int(math.Floor(offY)), int(math.Floor(offX+span)), int(math.Floor(offY+span))), biome.HSL(ch.DebugHue, 0.7, 0.5))
	}
	return true
}

// objectInset is the per-side padding of an object marker: a quarter tile,
// at least one pixel. It is -1 when the marker would be empty.
func objectInset(scale float64) int {
	inset := max(1, int(math.Round(scale*0.25)))
	if int(math.Ceil(scale))-2*inset <= 0 {
		return -1
	}
	return inset
}

func (r *Renderer) outline(rc image.Rectangle, c color.RGBA) {
	fill(r.img, image.Rect(rc.Min.X, rc.Min.Y, rc.Max.X, rc.Min.Y+1), c)
	fill(r.img, image.Rect(rc.Min.X, rc.Max.Y-1, rc.Max.X, rc.Max.Y), c)
	fill(r.img, image.Rect(rc.Min.X, rc.Min.Y, rc.Min.X+1, rc.Max.Y), c)
	fill(r.img, image.Rect(rc.Max.X-1, rc.Min.Y, rc.Max.X, rc.Max.Y), c)
}

// HUDLines is the text block drawn in the top-left corner.
func HUDLines(chunks int, camX, camY, scale float64) []string {
	return []string{
		fmt.Sprintf("Chunks: %d", chunks),
		fmt.Sprintf("Cam: %.1f, %.1f", camX, camY),
		fmt.Sprintf("Zoom: %.1f", scale),
	}
}

func (r *Renderer) drawHUD(chunks int, camX, camY float64) {
	d := &font.Drawer{
		Dst:  r.img,
		Src:  image.NewUniform(hudColor),
		Face: basicfont.Face7x13,
	}
	for i, line := range HUDLines(chunks, camX, camY, r.scale) {
		d.Dot = fixed.P(10, 20+15*i)
		d.DrawString(line)
	}
}

// fill paints rc clipped to img.
func fill(img *image.RGBA, rc image.Rectangle, c color.RGBA) {
	rc = rc.Intersect(img.Rect)
	if rc.Empty() {
		return
	}
	for y := rc.Min.Y; y < rc.Max.Y; y++ {
		row := img.Pix[img.PixOffset(rc.Min.X, y):img.PixOffset(rc.Max.X, y)]
		for i := 0; i < len(row); i += 4 {
			row[i+0] = c.R
			row[i+1] = c.G
			row[i+2] = c.B
			row[i+3] = c.A
		}
	}
}
