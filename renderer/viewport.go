// Package renderer draws stipple runs with raylib.
package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"
)

// Viewport maps field coordinates onto a screen rectangle with a uniform
// scale, centring the field in the rectangle.
type Viewport struct {
	Scale   float32
	OffsetX float32
	OffsetY float32
}

// Fit returns the largest viewport that shows a fieldW x fieldH domain inside
// the screen rectangle at (x, y) of size w x h.
func Fit(fieldW, fieldH int, x, y, w, h float32) Viewport {
	if fieldW <= 0 || fieldH <= 0 || w <= 0 || h <= 0 {
		return Viewport{Scale: 1, OffsetX: x, OffsetY: y}
	}
	sx := w / float32(fieldW)
	sy := h / float32(fieldH)
	s := sx
	if sy < s {
		s = sy
	}
	return Viewport{
		Scale:   s,
		OffsetX: x + (w-s*float32(fieldW))/2,
		OffsetY: y + (h-s*float32(fieldH))/2,
	}
}

// ToScreen converts a field position to screen coordinates.
func (v Viewport) ToScreen(p r2.Vec) rl.Vector2 {
	return rl.Vector2{
		X: v.OffsetX + float32(p.X)*v.Scale,
		Y: v.OffsetY + float32(p.Y)*v.Scale,
	}
}

// ToField converts screen coordinates back to a field position.
func (v Viewport) ToField(s rl.Vector2) r2.Vec {
	return r2.Vec{
		X: float64((s.X - v.OffsetX) / v.Scale),
		Y: float64((s.Y - v.OffsetY) / v.Scale),
	}
}

// Rect returns the screen rectangle covered by a fieldW x fieldH domain.
func (v Viewport) Rect(fieldW, fieldH int) rl.Rectangle {
	return rl.Rectangle{
		X:      v.OffsetX,
		Y:      v.OffsetY,
		Width:  float32(fieldW) * v.Scale,
		Height: float32(fieldH) * v.Scale,
	}
}
