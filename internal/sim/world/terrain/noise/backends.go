package noise

import (
	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

type perlinSource struct {
	p *perlin.Perlin
}

// Single octave; FBM layering is done by Engine.
func newPerlin(seed int64) *perlinSource {
	return &perlinSource{p: perlin.NewPerlin(2, 2, 1, seed)}
}

func (s *perlinSource) Noise2D(x, y float64) float64 {
	return s.p.Noise2D(x, y)
}

type openSimplexSource struct {
	n opensimplex.Noise
}

func newOpenSimplex(seed int64) *openSimplexSource {
	return &openSimplexSource{n: opensimplex.New(seed)}
}

func (s *openSimplexSource) Noise2D(x, y float64) float64 {
	return s.n.Eval2(x, y)
}
