package field

import (
	"image/color"
	"math"
	"math/rand/v2"

	"github.com/lucasb-eyer/go-colorful"
)

// Swatch is one palette entry. Alpha is drawn uniformly from
// [AlphaMin, AlphaMax).
type Swatch struct {
	Color    colorful.Color
	Weight   float64
	AlphaMin float64
	AlphaMax float64
}

// Palette is a weighted set of swatches.
type Palette []Swatch

// DefaultPalette is mostly brand green with a few light-green and faint
// navy leaves.
func DefaultPalette() Palette {
	return Palette{
		{Color: mustHex("#92C973"), Weight: 0.4, AlphaMin: 0.2, AlphaMax: 0.6},
		{Color: mustHex("#AFDC96"), Weight: 0.3, AlphaMin: 0.1, AlphaMax: 0.5},
		{Color: mustHex("#2D475C"), Weight: 0.3, AlphaMin: 0.05, AlphaMax: 0.2},
	}
}

// Pick draws a colour. An empty palette yields opaque black.
func (p Palette) Pick(rng *rand.Rand) color.NRGBA {
	var total float64
	for _, s := range p {
		total += s.Weight
	}
	if len(p) == 0 || total <= 0 {
		return color.NRGBA{A: 255}
	}

	r := rng.Float64() * total
	chosen := p[len(p)-1]
	for _, s := range p {
		if r < s.Weight {
			chosen = s
			break
		}
		r -= s.Weight
	}

	alpha := chosen.AlphaMin + rng.Float64()*(chosen.AlphaMax-chosen.AlphaMin)
	cr, cg, cb := chosen.Color.RGB255()
	return color.NRGBA{R: cr, G: cg, B: cb, A: uint8(math.Round(clamp01(alpha) * 255))}
}

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
