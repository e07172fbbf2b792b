package mathx

import "math"

func FloorDiv(a, b int) int {
	// b > 0
	q := a / b
	r := a % b
	if r < 0 {
		q--
	}
	return q
}

func Mod(a, b int) int {
	// b > 0
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// FloorDivFloat returns floor(v/b) as an int. Callers must reject non-finite
// v and bound |v| so the quotient fits an int.
func FloorDivFloat(v float64, b int) int {
	return int(math.Floor(v / float64(b)))
}

// CeilDivFloat returns ceil(v/b) as an int. Same preconditions as FloorDivFloat.
func CeilDivFloat(v float64, b int) int {
	return int(math.Ceil(v / float64(b)))
}

func Finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Hash2 mixes a seed with a coordinate pair. Bits above int32 only enter the
// hash when set, so coordinates within int32 hash as their low words alone.
func Hash2(seed int64, x, y int) uint64 {
	ux := uint64(uint32(int32(x)))
	uy := uint64(uint32(int32(y)))
	v := uint64(seed) ^ (ux * 0x9e3779b97f4a7c15) ^ (uy * 0xbf58476d1ce4e5b9)
	if hx, hy := high32(x), high32(y); hx != 0 || hy != 0 {
		v ^= mix64(hx*0xd6e8feb86659fd93 ^ hy*0xa0761d6478bd642f)
	}
	return mix64(v)
}

// high32 is what int32 truncation of v discards; zero when v fits int32.
func high32(v int) uint64 {
	return uint64((int64(v) - int64(int32(v))) >> 32)
}

// Unit maps a hash onto [0,1) using its top 53 bits.
func Unit(h uint64) float64 {
	return float64(h>>11) / (1 << 53)
}
