package noise

import (
	"math"

	"tileworld.ai/internal/sim/world/terrain/rng"
)

var (
	f2 = 0.5 * (math.Sqrt(3.0) - 1.0)
	g2 = (3.0 - math.Sqrt(3.0)) / 6.0
)

var grad2 = [24]float64{
	1, 1, -1, 1, 1, -1, -1, -1,
	1, 0, -1, 0, 1, 0, -1, 0,
	0, 1, 0, -1, 0, 1, 0, -1,
}

// Simplex is 2D simplex noise over a permutation table shuffled by the seeded
// stream. Output lies in [-1, 1].
type Simplex struct {
	perm  [512]uint8
	gradX [512]float64
	gradY [512]float64
}

// NewSimplex consumes 255 draws from r to build the table.
func NewSimplex(r *rng.Rand) *Simplex {
	s := &Simplex{}
	var p [512]uint8
	for i := 0; i < 256; i++ {
		p[i] = uint8(i)
	}
	for i := 0; i < 255; i++ {
		j := i + int(r.Float64()*float64(256-i))
		p[i], p[j] = p[j], p[i]
	}
	for i := 256; i < 512; i++ {
		p[i] = p[i-256]
	}
	s.perm = p
	for i, v := range p {
		g := int(v%12) * 2
		s.gradX[i] = grad2[g]
		s.gradY[i] = grad2[g+1]
	}
	return s
}

func (s *Simplex) Noise2D(x, y float64) float64 {
	var n0, n1, n2 float64

	sk := (x + y) * f2
	i := int(math.Floor(x + sk))
	j := int(math.Floor(y + sk))
	t := float64(i+j) * g2
	x0 := x - (float64(i) - t)
	y0 := y - (float64(j) - t)

	var i1, j1 int
	if x0 > y0 {
		i1 = 1
	} else {
		j1 = 1
	}

	x1 := x0 - float64(i1) + g2
	y1 := y0 - float64(j1) + g2
	x2 := x0 - 1.0 + 2.0*g2
	y2 := y0 - 1.0 + 2.0*g2

	ii := i & 255
	jj := j & 255

	if t0 := 0.5 - x0*x0 - y0*y0; t0 >= 0 {
		gi := ii + int(s.perm[jj])
		t0 *= t0
		n0 = t0 * t0 * (s.gradX[gi]*x0 + s.gradY[gi]*y0)
	}
	if t1 := 0.5 - x1*x1 - y1*y1; t1 >= 0 {
		gi := ii + i1 + int(s.perm[jj+j1])
		t1 *= t1
		n1 = t1 * t1 * (s.gradX[gi]*x1 + s.gradY[gi]*y1)
	}
	if t2 := 0.5 - x2*x2 - y2*y2; t2 >= 0 {
		gi := ii + 1 + int(s.perm[jj+1])
		t2 *= t2
		n2 = t2 * t2 * (s.gradX[gi]*x2 + s.gradY[gi]*y2)
	}
	return 70.0 * (n0 + n1 + n2)
}
