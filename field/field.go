/*
Package field holds the scalar density grid that a stippling run relaxes
against, and the conversions that turn an image into one.

A Field is a W×H grid of weights in [0,1], stored row-major. Cell (x, y)
covers [x, x+1)×[y, y+1) in domain coordinates and is sampled at its centre
(x+0.5, y+0.5). A Field is immutable once built; every accessor is safe for
concurrent readers.

Like an image-derived density map, the Field caches its total mass and
weighted coordinates on construction so the global centre of mass is
available without another pass over the grid.
*/
package field

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// ErrInvalidField is returned when a field cannot be used for a run.
var ErrInvalidField = errors.New("invalid field")

// Field is a finite rectangular grid of density weights.
type Field struct {
	width, height int
	// weights holds the field's values. The value at (x, y) is
	// weights[y*width+x].
	weights []float64

	// Total mass and weighted cell-centre x and y.
	mass, wx, wy float64
}

// New validates weights and returns a Field of the given dimensions.
// The weights are copied; the caller may reuse the slice.
func New(width, height int, weights []float64) (*Field, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrInvalidField, width, height)
	}
	if len(weights) != width*height {
		return nil, fmt.Errorf("%w: %d weights for %dx%d grid", ErrInvalidField, len(weights), width, height)
	}

	f := &Field{
		width:   width,
		height:  height,
		weights: make([]float64, len(weights)),
	}
	for i, w := range weights {
		// Written as a negated range check so NaN is rejected too.
		if !(w >= 0 && w <= 1) {
			return nil, fmt.Errorf("%w: weight %v at (%d,%d) outside [0,1]", ErrInvalidField, w, i%width, i/width)
		}
		f.weights[i] = w
		if w == 0 {
			continue
		}
		f.mass += w
		f.wx += w * (float64(i%width) + 0.5)
		f.wy += w * (float64(i/width) + 0.5)
	}
	return f, nil
}

// Uniform returns a width×height field with every weight set to w.
func Uniform(width, height int, w float64) (*Field, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrInvalidField, width, height)
	}
	weights := make([]float64, width*height)
	for i := range weights {
		weights[i] = w
	}
	return New(width, height, weights)
}

// Valid reports whether f has positive dimensions and a weight per cell.
// Fields built with New always do; the zero Field does not.
func (f *Field) Valid() bool {
	return f != nil && f.width > 0 && f.height > 0 && len(f.weights) == f.width*f.height
}

// Width returns the number of cells per row.
func (f *Field) Width() int { return f.width }

// Height returns the number of rows.
func (f *Field) Height() int { return f.height }

// Len returns the number of cells.
func (f *Field) Len() int { return len(f.weights) }

// At returns the weight of cell (x, y), or zero if (x, y) is out of bounds.
func (f *Field) At(x, y int) float64 {
	if x < 0 || y < 0 || x >= f.width || y >= f.height {
		return 0
	}
	return f.weights[y*f.width+x]
}

// AtPoint returns the weight of the cell containing p.
func (f *Field) AtPoint(p r2.Vec) float64 {
	if p.X < 0 || p.Y < 0 {
		return 0
	}
	return f.At(int(math.Floor(p.X)), int(math.Floor(p.Y)))
}

// Row returns the weights of row y. The returned slice aliases the field
// and must not be modified.
func (f *Field) Row(y int) []float64 {
	return f.weights[y*f.width : (y+1)*f.width : (y+1)*f.width]
}

// Contains reports whether p lies inside the domain [0,W)×[0,H).
func (f *Field) Contains(p r2.Vec) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < float64(f.width) && p.Y < float64(f.height)
}

// Mass returns the sum of all weights.
func (f *Field) Mass() float64 {
	return f.mass
}

// Centroid returns the weighted centre of mass of the field in domain
// coordinates. For a massless field it returns the domain centre.
func (f *Field) Centroid() r2.Vec {
	if f.mass == 0 {
		return r2.Vec{X: float64(f.width) / 2, Y: float64(f.height) / 2}
	}
	return r2.Vec{X: f.wx / f.mass, Y: f.wy / f.mass}
}

// AvgDensity returns the mean weight per cell.
func (f *Field) AvgDensity() float64 {
	return f.mass / float64(len(f.weights))
}
