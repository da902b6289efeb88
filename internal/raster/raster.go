// Package raster draws field outlines onto an in-memory image, for
// snapshots and for tests that need real pixels without a window.
package raster

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"golang.org/x/image/vector"

	"github.com/iburimskiy/leafdraft/internal/field"
)

// Canvas is a field.Canvas backed by an RGBA image.
type Canvas struct {
	img *image.RGBA
	z   *vector.Rasterizer
}

// New returns a canvas of the given size filled with bg.
func New(width, height int, bg color.Color) *Canvas {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	c := &Canvas{
		img: image.NewRGBA(image.Rect(0, 0, width, height)),
		z:   vector.NewRasterizer(width, height),
	}
	c.Clear(bg)
	return c
}

// Clear paints the whole canvas with bg.
func (c *Canvas) Clear(bg color.Color) {
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
}

// Fill implements field.Canvas.
func (c *Canvas) Fill(o field.Outline, clr color.NRGBA) {
	b := c.img.Bounds()
	if b.Empty() {
		return
	}
	lo, hi := o.Bounds()
	if hi.X < 0 || hi.Y < 0 || lo.X > float64(b.Dx()) || lo.Y > float64(b.Dy()) {
		return
	}

	c.z.Reset(b.Dx(), b.Dy())
	c.z.DrawOp = draw.Over
	c.z.MoveTo(float32(o.Start.X), float32(o.Start.Y))
	for _, cu := range o.Curves {
		c.z.CubeTo(
			float32(cu.C1.X), float32(cu.C1.Y),
			float32(cu.C2.X), float32(cu.C2.Y),
			float32(cu.To.X), float32(cu.To.Y),
		)
	}
	c.z.ClosePath()
	c.z.Draw(c.img, b, image.NewUniform(clr), image.Point{})
}

// Image returns the backing image.
func (c *Canvas) Image() *image.RGBA { return c.img }

// WritePNG encodes the canvas as PNG.
func (c *Canvas) WritePNG(w io.Writer) error {
	return png.Encode(w, c.img)
}
