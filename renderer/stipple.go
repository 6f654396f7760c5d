package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"
)

// StippleRenderer draws one dot per site.
type StippleRenderer struct {
	Radius     float32
	Color      rl.Color
	Background rl.Color
}

// NewStippleRenderer creates a renderer drawing dark dots on paper.
func NewStippleRenderer(radius float32) *StippleRenderer {
	if radius <= 0 {
		radius = 1
	}
	return &StippleRenderer{
		Radius:     radius,
		Color:      rl.Color{R: 20, G: 20, B: 24, A: 255},
		Background: rl.Color{R: 245, G: 242, B: 232, A: 255},
	}
}

// DrawPaper fills the field's screen rectangle with the background color.
func (r *StippleRenderer) DrawPaper(v Viewport, fieldW, fieldH int) {
	rl.DrawRectangleRec(v.Rect(fieldW, fieldH), r.Background)
}

// Draw renders the sites. Dots never shrink below half a pixel.
func (r *StippleRenderer) Draw(sites []r2.Vec, v Viewport) {
	radius := r.Radius * v.Scale
	if radius < 0.5 {
		radius = 0.5
	}
	for _, p := range sites {
		rl.DrawCircleV(v.ToScreen(p), radius, r.Color)
	}
}

// DrawHighlight outlines a subset of sites, for example the ones that fell
// back to uniform placement.
func (r *StippleRenderer) DrawHighlight(sites []r2.Vec, ids []int, v Viewport, color rl.Color) {
	radius := r.Radius*v.Scale + 3
	for _, id := range ids {
		if id < 0 || id >= len(sites) {
			continue
		}
		c := v.ToScreen(sites[id])
		rl.DrawCircleLines(int32(c.X), int32(c.Y), radius, color)
	}
}
