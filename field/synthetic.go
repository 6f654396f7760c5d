package field

import (
	"fmt"
	"math"
)

// FromFunc evaluates fn at every cell centre and clamps the results to
// [0,1]. NaN results become zero.
func FromFunc(width, height int, fn func(x, y float64) float64) (*Field, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrInvalidField, width, height)
	}
	weights := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := fn(float64(x)+0.5, float64(y)+0.5)
			if math.IsNaN(v) {
				v = 0
			}
			weights[y*width+x] = clamp01(v)
		}
	}
	return New(width, height, weights)
}

// Radial returns a field that is densest at the centre and falls off
// linearly to zero at the inscribed circle.
func Radial(width, height int) (*Field, error) {
	cx, cy := float64(width)/2, float64(height)/2
	r := math.Min(cx, cy)
	return FromFunc(width, height, func(x, y float64) float64 {
		return 1 - math.Hypot(x-cx, y-cy)/r
	})
}

// Rings returns concentric bands of density, n rings across the inscribed
// circle. It is a useful stress case for the relaxation since whole bands
// of the domain carry no mass.
func Rings(width, height, n int) (*Field, error) {
	if n < 1 {
		n = 1
	}
	cx, cy := float64(width)/2, float64(height)/2
	r := math.Min(cx, cy)
	return FromFunc(width, height, func(x, y float64) float64 {
		d := math.Hypot(x-cx, y-cy) / r
		if d >= 1 {
			return 0
		}
		return math.Max(0, math.Sin(d*float64(n)*math.Pi))
	})
}
