package field

import (
	"image/color"
	"math"
)

// kappa places cubic control points so four curves approximate a quarter
// ellipse each.
const kappa = 0.5522847498307936

// Point is a position in surface coordinates.
type Point struct {
	X, Y float64
}

// Cubic is one cubic Bézier segment continuing from the previous end point.
type Cubic struct {
	C1, C2, To Point
}

// Outline is a closed shape made of cubic segments.
type Outline struct {
	Start  Point
	Curves []Cubic
}

// Canvas is a drawing surface that can fill closed outlines.
type Canvas interface {
	Fill(o Outline, c color.NRGBA)
}

// Ellipse returns an axis-aligned ellipse centred on the origin.
func Ellipse(rx, ry float64) Outline {
	kx, ky := rx*kappa, ry*kappa
	return Outline{
		Start: Point{rx, 0},
		Curves: []Cubic{
			{Point{rx, ky}, Point{kx, ry}, Point{0, ry}},
			{Point{-kx, ry}, Point{-rx, ky}, Point{-rx, 0}},
			{Point{-rx, -ky}, Point{-kx, -ry}, Point{0, -ry}},
			{Point{kx, -ry}, Point{rx, -ky}, Point{rx, 0}},
		},
	}
}

// Leaf returns the pointed almond shape: two mirrored curves between the
// tips at (-size, 0) and (size, 0).
func Leaf(size float64) Outline {
	h := size / 2
	return Outline{
		Start: Point{-size, 0},
		Curves: []Cubic{
			{Point{-h, -h}, Point{h, -h}, Point{size, 0}},
			{Point{h, h}, Point{-h, h}, Point{-size, 0}},
		},
	}
}

// Transform rotates the outline by angle around the origin and then
// translates it by (tx, ty). The receiver is not modified.
func (o Outline) Transform(angle, tx, ty float64) Outline {
	sin, cos := math.Sincos(angle)
	apply := func(p Point) Point {
		return Point{
			X: p.X*cos - p.Y*sin + tx,
			Y: p.X*sin + p.Y*cos + ty,
		}
	}

	out := Outline{
		Start:  apply(o.Start),
		Curves: make([]Cubic, len(o.Curves)),
	}
	for i, c := range o.Curves {
		out.Curves[i] = Cubic{C1: apply(c.C1), C2: apply(c.C2), To: apply(c.To)}
	}
	return out
}

// Bounds returns the bounding box of all points including control points,
// which always contains the curve itself.
func (o Outline) Bounds() (lo, hi Point) {
	lo, hi = o.Start, o.Start
	grow := func(p Point) {
		lo.X = math.Min(lo.X, p.X)
		lo.Y = math.Min(lo.Y, p.Y)
		hi.X = math.Max(hi.X, p.X)
		hi.Y = math.Max(hi.Y, p.Y)
	}
	for _, c := range o.Curves {
		grow(c.C1)
		grow(c.C2)
		grow(c.To)
	}
	return lo, hi
}
