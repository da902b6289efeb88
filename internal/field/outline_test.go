package field

import (
	"image/color"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEllipseBounds(t *testing.T) {
	o := Ellipse(8, 4)
	require.Len(t, o.Curves, 4)

	lo, hi := o.Bounds()
	assert.InDelta(t, -8, lo.X, 1e-12)
	assert.InDelta(t, -4, lo.Y, 1e-12)
	assert.InDelta(t, 8, hi.X, 1e-12)
	assert.InDelta(t, 4, hi.Y, 1e-12)
	assert.Equal(t, o.Start, o.Curves[3].To, "outline is closed")
}

func TestLeafIsMirrored(t *testing.T) {
	o := Leaf(10)
	require.Len(t, o.Curves, 2)

	assert.Equal(t, Point{-10, 0}, o.Start)
	assert.Equal(t, Point{10, 0}, o.Curves[0].To)
	assert.Equal(t, Point{-10, 0}, o.Curves[1].To)
	assert.Equal(t, o.Curves[0].C1.Y, -o.Curves[1].C2.Y)
	assert.Equal(t, o.Curves[0].C2.Y, -o.Curves[1].C1.Y)
}

func TestTransformRotatesThenTranslates(t *testing.T) {
	o := Leaf(10).Transform(math.Pi/2, 100, 50)

	assert.InDelta(t, 100, o.Start.X, 1e-9)
	assert.InDelta(t, 40, o.Start.Y, 1e-9)
	assert.InDelta(t, 100, o.Curves[0].To.X, 1e-9)
	assert.InDelta(t, 60, o.Curves[0].To.Y, 1e-9)
}

func TestParticleOutlineFollowsShape(t *testing.T) {
	p := Particle{X: 20, Y: 30, Size: 6, Shape: ShapeRounded}
	assert.Len(t, p.Outline().Curves, 4)

	p.Shape = ShapePointed
	o := p.Outline()
	assert.Len(t, o.Curves, 2)
	assert.Equal(t, Point{14, 30}, o.Start)
}

func TestShapeString(t *testing.T) {
	assert.Equal(t, "rounded", ShapeRounded.String())
	assert.Equal(t, "pointed", ShapePointed.String())
	assert.Equal(t, "unknown", Shape(9).String())
}

func TestPalettePick(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	p := DefaultPalette()

	counts := map[[3]uint8]int{}
	for i := 0; i < 3000; i++ {
		c := p.Pick(rng)
		key := [3]uint8{c.R, c.G, c.B}
		counts[key]++

		switch key {
		case [3]uint8{146, 201, 115}:
			assert.GreaterOrEqual(t, c.A, uint8(51))
			assert.LessOrEqual(t, c.A, uint8(153))
		case [3]uint8{175, 220, 150}:
			assert.GreaterOrEqual(t, c.A, uint8(25))
			assert.LessOrEqual(t, c.A, uint8(128))
		case [3]uint8{45, 71, 92}:
			assert.GreaterOrEqual(t, c.A, uint8(12))
			assert.LessOrEqual(t, c.A, uint8(51))
		default:
			t.Fatalf("unexpected colour %v", c)
		}
	}

	assert.Len(t, counts, 3)
	assert.Greater(t, counts[[3]uint8{146, 201, 115}], counts[[3]uint8{45, 71, 92}])
}

func TestEmptyPalette(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	assert.Equal(t, color.NRGBA{A: 255}, Palette{}.Pick(rng))
}
