// Package camera provides zoom and pan over a stipple field.
package camera

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/stipple/renderer"
)

// Camera controls the viewport into the field. At zoom 1 the whole field
// fits the screen rectangle.
type Camera struct {
	// Position is the camera center in field coordinates
	X, Y float64

	// Zoom level relative to the fitted view (1.0 shows the whole field)
	Zoom float64

	// Screen rectangle the field is drawn into
	ScreenX, ScreenY, ScreenW, ScreenH float32

	// Field dimensions
	FieldW, FieldH float64

	// Zoom constraints
	MinZoom, MaxZoom float64
}

// New creates a camera centered on a fieldW x fieldH field showing all of it.
func New(screenX, screenY, screenW, screenH float32, fieldW, fieldH int) *Camera {
	c := &Camera{
		ScreenX: screenX,
		ScreenY: screenY,
		ScreenW: screenW,
		ScreenH: screenH,
		FieldW:  float64(fieldW),
		FieldH:  float64(fieldH),
		MinZoom: 1.0,
		MaxZoom: 32.0,
	}
	c.Reset()
	return c
}

// fitScale is the screen pixels per field unit at zoom 1.
func (c *Camera) fitScale() float64 {
	if c.FieldW <= 0 || c.FieldH <= 0 {
		return 1
	}
	sx := float64(c.ScreenW) / c.FieldW
	sy := float64(c.ScreenH) / c.FieldH
	if sy < sx {
		return sy
	}
	return sx
}

// Viewport returns the field-to-screen mapping for the current view.
func (c *Camera) Viewport() renderer.Viewport {
	s := c.fitScale() * c.Zoom
	cx := float64(c.ScreenX) + float64(c.ScreenW)/2
	cy := float64(c.ScreenY) + float64(c.ScreenH)/2
	return renderer.Viewport{
		Scale:   float32(s),
		OffsetX: float32(cx - c.X*s),
		OffsetY: float32(cy - c.Y*s),
	}
}

// FieldToScreen converts field coordinates to screen coordinates.
func (c *Camera) FieldToScreen(p r2.Vec) (sx, sy float32) {
	v := c.Viewport().ToScreen(p)
	return v.X, v.Y
}

// ScreenToField converts screen coordinates to field coordinates.
func (c *Camera) ScreenToField(sx, sy float32) r2.Vec {
	s := c.fitScale() * c.Zoom
	cx := float64(c.ScreenX) + float64(c.ScreenW)/2
	cy := float64(c.ScreenY) + float64(c.ScreenH)/2
	return r2.Vec{
		X: c.X + (float64(sx)-cx)/s,
		Y: c.Y + (float64(sy)-cy)/s,
	}
}

// Contains reports whether the screen point lies in the camera's rectangle.
func (c *Camera) Contains(sx, sy float32) bool {
	return sx >= c.ScreenX && sx < c.ScreenX+c.ScreenW &&
		sy >= c.ScreenY && sy < c.ScreenY+c.ScreenH
}

// Resize updates the screen rectangle.
func (c *Camera) Resize(screenX, screenY, screenW, screenH float32) {
	c.ScreenX, c.ScreenY, c.ScreenW, c.ScreenH = screenX, screenY, screenW, screenH
	c.clampCenter()
}

// Pan moves the camera by the given delta in screen pixels.
func (c *Camera) Pan(dx, dy float32) {
	s := c.fitScale() * c.Zoom
	c.X += float64(dx) / s
	c.Y += float64(dy) / s
	c.clampCenter()
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float64) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
	c.clampCenter()
}

// ZoomAt multiplies the zoom by factor keeping the field point under the
// screen position (sx, sy) fixed.
func (c *Camera) ZoomAt(sx, sy float32, factor float64) {
	before := c.ScreenToField(sx, sy)
	c.Zoom = clamp(c.Zoom*factor, c.MinZoom, c.MaxZoom)
	after := c.ScreenToField(sx, sy)
	c.X += before.X - after.X
	c.Y += before.Y - after.Y
	c.clampCenter()
}

// Reset returns the camera to the default position and zoom.
func (c *Camera) Reset() {
	c.X = c.FieldW / 2
	c.Y = c.FieldH / 2
	c.Zoom = 1.0
}

// VisibleFieldBounds returns the field-coordinate bounds of the visible area.
func (c *Camera) VisibleFieldBounds() (minX, minY, maxX, maxY float64) {
	s := c.fitScale() * c.Zoom
	halfW := float64(c.ScreenW) / (2 * s)
	halfH := float64(c.ScreenH) / (2 * s)
	return c.X - halfW, c.Y - halfH, c.X + halfW, c.Y + halfH
}

// clampCenter keeps the field's centre of view inside the field, and keeps
// the field centred on an axis it does not fill.
func (c *Camera) clampCenter() {
	s := c.fitScale() * c.Zoom
	halfW := float64(c.ScreenW) / (2 * s)
	halfH := float64(c.ScreenH) / (2 * s)
	c.X = clampAxis(c.X, halfW, c.FieldW)
	c.Y = clampAxis(c.Y, halfH, c.FieldH)
}

func clampAxis(v, half, size float64) float64 {
	if 2*half >= size {
		return size / 2
	}
	return clamp(v, half, size-half)
}

// clamp restricts a value to a range.
func clamp(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
