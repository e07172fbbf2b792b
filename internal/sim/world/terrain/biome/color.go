package biome

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

func hslCSS(h, s, l float64) string {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return fmt.Sprintf("hsl(%s, %s%%, %s%%)",
		strconv.FormatFloat(h, 'f', -1, 64),
		strconv.FormatFloat(s, 'f', -1, 64),
		strconv.FormatFloat(l, 'f', -1, 64))
}

// ParseCSS accepts "#rrggbb" and "hsl(h, s%, l%)".
func ParseCSS(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "#") && len(s) == 7:
		v, err := strconv.ParseUint(s[1:], 16, 32)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("bad hex color %q: %w", s, err)
		}
		return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
	case strings.HasPrefix(s, "hsl(") && strings.HasSuffix(s, ")"):
		parts := strings.Split(s[4:len(s)-1], ",")
		if len(parts) != 3 {
			return color.RGBA{}, fmt.Errorf("bad hsl color %q", s)
		}
		var v [3]float64
		for i, p := range parts {
			f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(p), "%"), 64)
			if err != nil {
				return color.RGBA{}, fmt.Errorf("bad hsl color %q: %w", s, err)
			}
			v[i] = f
		}
		return HSL(v[0], v[1]/100, v[2]/100), nil
	default:
		return color.RGBA{}, fmt.Errorf("unsupported color %q", s)
	}
}

// HSL converts hue in degrees and saturation/lightness in [0,1] to opaque RGBA.
func HSL(h, s, l float64) color.RGBA {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := l - c/2

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return color.RGBA{
		R: to8(r + m),
		G: to8(g + m),
		B: to8(b + m),
		A: 0xff,
	}
}

func to8(v float64) uint8 {
	v = math.Round(v * 255)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
