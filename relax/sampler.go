package relax

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/stipple/field"
)

// DefaultMaxRetries is the per-site rejection budget used when none is given.
const DefaultMaxRetries = 10000

// Rand is a source of uniform variates in [0,1). *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// Sample places n sites with probability proportional to the field's weight.
//
// Each attempt draws a uniform point P in the domain and a uniform threshold
// r, and accepts P when r <= Field(P). Zero-weight cells are never accepted.
// A site still unplaced after maxRetries attempts gets a uniform random
// position and its index is returned in exhausted. The order of the returned
// positions defines the site indices for the run.
func Sample(f *field.Field, n int, rng Rand, maxRetries int) (sites []r2.Vec, exhausted []int) {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	w, h := float64(f.Width()), float64(f.Height())
	// A massless field can never accept; skip straight to the fallback.
	degenerate := f.Mass() == 0

	sites = make([]r2.Vec, n)
	for i := range sites {
		placed := false
		for attempt := 0; attempt < maxRetries && !degenerate; attempt++ {
			p := uniformPoint(rng, w, h)
			r := rng.Float64()
			if v := f.AtPoint(p); v > 0 && r <= v {
				sites[i] = p
				placed = true
				break
			}
		}
		if !placed {
			sites[i] = uniformPoint(rng, w, h)
			exhausted = append(exhausted, i)
		}
	}
	return sites, exhausted
}

// uniformPoint draws a point in [0,w)×[0,h).
func uniformPoint(rng Rand, w, h float64) r2.Vec {
	return r2.Vec{
		X: math.Min(rng.Float64()*w, math.Nextafter(w, 0)),
		Y: math.Min(rng.Float64()*h, math.Nextafter(h, 0)),
	}
}
