package game

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/iburimskiy/leafdraft/internal/field"
)

var (
	whiteImage    = ebiten.NewImage(3, 3)
	whiteSubImage = whiteImage.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
)

func init() {
	whiteImage.Fill(color.White)
}

// screenCanvas fills field outlines on an ebiten image. The vertex and index
// buffers are reused across frames.
type screenCanvas struct {
	dst *ebiten.Image
	vs  []ebiten.Vertex
	is  []uint16
}

func (c *screenCanvas) on(dst *ebiten.Image) *screenCanvas {
	c.dst = dst
	return c
}

func (c *screenCanvas) Fill(o field.Outline, clr color.NRGBA) {
	if c.dst == nil || clr.A == 0 {
		return
	}

	var path vector.Path
	path.MoveTo(float32(o.Start.X), float32(o.Start.Y))
	for _, cv := range o.Curves {
		path.CubicTo(
			float32(cv.C1.X), float32(cv.C1.Y),
			float32(cv.C2.X), float32(cv.C2.Y),
			float32(cv.To.X), float32(cv.To.Y))
	}
	path.Close()

	c.vs, c.is = path.AppendVerticesAndIndicesForFilling(c.vs[:0], c.is[:0])
	r := float32(clr.R) / 0xff
	g := float32(clr.G) / 0xff
	b := float32(clr.B) / 0xff
	a := float32(clr.A) / 0xff
	for i := range c.vs {
		c.vs[i].SrcX = 1
		c.vs[i].SrcY = 1
		c.vs[i].ColorR = r
		c.vs[i].ColorG = g
		c.vs[i].ColorB = b
		c.vs[i].ColorA = a
	}

	op := &ebiten.DrawTrianglesOptions{AntiAlias: true}
	c.dst.DrawTriangles(c.vs, c.is, whiteSubImage, op)
}
