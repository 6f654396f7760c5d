package renderer

import (
	"image"
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/stipple/field"
)

// FieldRenderer draws a density field as a faint grayscale underlay.
type FieldRenderer struct {
	texture     rl.Texture2D
	width       int
	height      int
	initialized bool
}

// NewFieldRenderer creates an empty field renderer.
func NewFieldRenderer() *FieldRenderer {
	return &FieldRenderer{}
}

// FieldImage renders f as a grayscale image with dark cells for heavy weight.
func FieldImage(f *field.Field) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, f.Width(), f.Height()))
	for y := 0; y < f.Height(); y++ {
		for x := 0; x < f.Width(); x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(255 - f.At(x, y)*255)})
		}
	}
	return img
}

// SetField uploads f as a texture, replacing any previous one. Must be called
// after the raylib window is created.
func (r *FieldRenderer) SetField(f *field.Field) {
	r.Unload()
	img := rl.NewImageFromImage(FieldImage(f))
	r.texture = rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	rl.SetTextureFilter(r.texture, rl.FilterPoint)
	r.width, r.height = f.Width(), f.Height()
	r.initialized = true
}

// Draw renders the field texture scaled into the viewport.
func (r *FieldRenderer) Draw(v Viewport, alpha uint8) {
	if !r.initialized {
		return
	}
	src := rl.Rectangle{Width: float32(r.width), Height: float32(r.height)}
	rl.DrawTexturePro(r.texture, src, v.Rect(r.width, r.height), rl.Vector2{}, 0, rl.Color{R: 255, G: 255, B: 255, A: alpha})
}

// Unload frees resources.
func (r *FieldRenderer) Unload() {
	if r.initialized {
		rl.UnloadTexture(r.texture)
		r.initialized = false
	}
}
