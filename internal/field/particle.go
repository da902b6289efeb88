package field

import (
	"image/color"
	"math"
)

// Shape selects how a particle is drawn.
type Shape uint8

const (
	ShapeRounded Shape = iota // ellipse
	ShapePointed              // almond leaf
)

func (s Shape) String() string {
	switch s {
	case ShapeRounded:
		return "rounded"
	case ShapePointed:
		return "pointed"
	default:
		return "unknown"
	}
}

// Particle is a single falling leaf.
type Particle struct {
	X, Y float64
	Wind float64 // horizontal drift, decays every tick
	Fall float64 // vertical speed, always > 0

	Angle      float64
	Spin       float64 // base angular velocity
	Turbulence float64 // extra spin from pointer proximity, bounded

	OscSpeed  float64
	Amplitude float64
	Phase     float64

	Size  float64
	Shape Shape
	Color color.NRGBA

	turbulenceVel float64
}

// Sway is the horizontal oscillation contribution at the given tick.
func (p *Particle) Sway(tick uint64) float64 {
	return math.Sin(float64(tick)*p.OscSpeed+p.Phase) * swayScale
}

// Outline returns the particle's shape in surface coordinates.
func (p *Particle) Outline() Outline {
	var o Outline
	if p.Shape == ShapePointed {
		o = Leaf(p.Size)
	} else {
		o = Ellipse(p.Size, p.Size/2)
	}
	return o.Transform(p.Angle, p.X, p.Y)
}
