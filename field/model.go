package field

import (
	"image/color"

	"github.com/crazy3lf/colorconv"
)

// A Model can convert any color to a weight in [0,1].
type Model interface {
	Convert(c color.Color) float64
}

// ModelFunc returns a Model that invokes f to implement the conversion.
func ModelFunc(f func(color.Color) float64) Model {
	return &modelFunc{f}
}

type modelFunc struct {
	f func(color.Color) float64
}

func (m *modelFunc) Convert(c color.Color) float64 {
	return m.f(c)
}

// Default models. Darkness is the usual choice for stippling: dark pixels
// attract more sites.
var (
	Luminance    Model = ModelFunc(luminance)
	Darkness     Model = ModelFunc(darkness)
	Lightness    Model = ModelFunc(lightness)
	NegLightness Model = ModelFunc(negLightness)
	Alpha        Model = ModelFunc(alpha)
)

// models maps config names to models.
var models = map[string]Model{
	"luminance":     Luminance,
	"darkness":      Darkness,
	"lightness":     Lightness,
	"neg_lightness": NegLightness,
	"alpha":         Alpha,
}

// ModelByName returns the named built-in model.
func ModelByName(name string) (Model, bool) {
	m, ok := models[name]
	return m, ok
}

func luminance(c color.Color) float64 {
	g := color.Gray16Model.Convert(c).(color.Gray16)
	return float64(g.Y) / 0xFFFF
}

func darkness(c color.Color) float64 {
	return 1 - luminance(c)
}

func lightness(c color.Color) float64 {
	_, _, l := colorconv.ColorToHSL(c)
	return clamp01(l)
}

func negLightness(c color.Color) float64 {
	return 1 - lightness(c)
}

func alpha(c color.Color) float64 {
	_, _, _, a := c.RGBA()
	return float64(a) / 0xFFFF
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
