// Package noise provides the seeded 2D gradient noise used for elevation,
// moisture and object placement, plus its fractal (FBM) composition.
package noise

import (
	"fmt"
	"strings"

	"tileworld.ai/internal/sim/world/terrain/rng"
)

// Backend names a base noise primitive.
type Backend string

const (
	BackendSimplex     Backend = "simplex"
	BackendPerlin      Backend = "perlin"
	BackendOpenSimplex Backend = "opensimplex"
)

// The noise stream is keyed separately from the palette stream so the two
// never share draws for the same seed.
const (
	seedBasis uint32 = 0xdeadbeef
	seedPrime uint32 = 2654435761
)

// Source is a 2D noise primitive. Implementations must be pure functions of
// their construction seed and safe for concurrent reads.
type Source interface {
	Noise2D(x, y float64) float64
}

// Octaves describes an FBM composition.
type Octaves struct {
	Count      int
	Lacunarity float64
	Gain       float64
}

// DefaultOctaves is the elevation composition: 4 layers, lacunarity 2, gain 0.5.
func DefaultOctaves() Octaves {
	return Octaves{Count: 4, Lacunarity: 2.0, Gain: 0.5}
}

// Engine is immutable after New and may be shared between goroutines.
type Engine struct {
	backend Backend
	src     Source
}

func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case "", BackendSimplex:
		return BackendSimplex, nil
	case BackendPerlin, BackendOpenSimplex:
		return b, nil
	default:
		return "", fmt.Errorf("unknown noise backend %q", s)
	}
}

func New(seed string, backend Backend) (*Engine, error) {
	b, err := ParseBackend(string(backend))
	if err != nil {
		return nil, err
	}
	r := rng.NewWithBasis(seed, seedBasis, seedPrime)
	var src Source
	switch b {
	case BackendPerlin:
		src = newPerlin(r.Int64())
	case BackendOpenSimplex:
		src = newOpenSimplex(r.Int64())
	default:
		src = NewSimplex(r)
	}
	return &Engine{backend: b, src: src}, nil
}

// FromSource wraps an arbitrary primitive; used by tests and custom hosts.
func FromSource(src Source) *Engine {
	return &Engine{backend: "custom", src: src}
}

func (e *Engine) Backend() Backend { return e.backend }

// Sample returns the raw single-octave value at (x, y).
func (e *Engine) Sample(x, y float64) float64 {
	return e.src.Noise2D(x, y)
}

// SampleFBM sums octaves layers and divides by the summed amplitudes. The
// result is a weighted average and is not rescaled to [-1,1]; downstream
// biome thresholds are tuned against exactly this value.
func (e *Engine) SampleFBM(x, y float64, octaves int, lacunarity, gain float64) float64 {
	total := 0.0
	frequency := 1.0
	amplitude := 1.0
	maxValue := 0.0

	for i := 0; i < octaves; i++ {
		total += e.src.Noise2D(x*frequency, y*frequency) * amplitude
		maxValue += amplitude
		amplitude *= gain
		frequency *= lacunarity
	}
	return total / maxValue
}

func (e *Engine) FBM(x, y float64, o Octaves) float64 {
	return e.SampleFBM(x, y, o.Count, o.Lacunarity, o.Gain)
}
