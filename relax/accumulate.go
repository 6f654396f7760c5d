package relax

import (
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/stipple/field"
	"github.com/pthm-cable/stipple/spatial"
)

// Accumulator gathers per-site weighted position sums over one sweep of the
// field. Its buffers are reused between sweeps and reset at the start of each.
type Accumulator struct {
	sumX, sumY []float64
	mass       []float64
	queries    int

	// bands holds per-worker partial sums for AccumulateParallel.
	bands []bandScratch
}

// bandScratch holds one worker's partial sums.
type bandScratch struct {
	sumX, sumY, mass []float64
	queries          int
}

func (b *bandScratch) reset(n int) {
	if len(b.mass) != n {
		b.sumX = make([]float64, n)
		b.sumY = make([]float64, n)
		b.mass = make([]float64, n)
	} else {
		clear(b.sumX)
		clear(b.sumY)
		clear(b.mass)
	}
	b.queries = 0
}

// parallelThreshold is the minimum cell count for a parallel sweep.
// Below this the goroutine overhead outweighs the split.
const parallelThreshold = 4096

// NewAccumulator returns an Accumulator with buffers for n sites.
func NewAccumulator(n int) *Accumulator {
	return &Accumulator{
		sumX: make([]float64, n),
		sumY: make([]float64, n),
		mass: make([]float64, n),
	}
}

// Len returns the number of sites the buffers hold.
func (a *Accumulator) Len() int { return len(a.mass) }

// reset zeroes the buffers, resizing them to n sites if needed.
func (a *Accumulator) reset(n int) {
	if len(a.mass) != n {
		*a = *NewAccumulator(n)
		return
	}
	clear(a.sumX)
	clear(a.sumY)
	clear(a.mass)
	a.queries = 0
}

// Accumulate sweeps every cell of f in raster order, assigns each cell with
// non-zero weight to its nearest site, and adds the weighted cell centre to
// that site's sums. Each query is hinted with the previous cell's answer.
func (a *Accumulator) Accumulate(f *field.Field, idx spatial.Index) {
	a.reset(idx.Len())
	if idx.Len() == 0 {
		return
	}
	a.queries = sweep(f, idx, 0, f.Height(), a.sumX, a.sumY, a.mass)
}

// AccumulateParallel is Accumulate with the rows split into contiguous bands
// swept by up to workers goroutines. Cell assignment is identical to
// Accumulate; the per-band sums are added in band order, so results are
// deterministic for a given worker count but may differ from a serial sweep
// in the last bits.
func (a *Accumulator) AccumulateParallel(f *field.Field, idx spatial.Index, workers int) {
	n := idx.Len()
	if workers > f.Height() {
		workers = f.Height()
	}
	if workers <= 1 || n == 0 || f.Len() < parallelThreshold {
		a.Accumulate(f, idx)
		return
	}

	a.reset(n)
	if len(a.bands) != workers {
		a.bands = make([]bandScratch, workers)
	}

	rows := f.Height()
	var wg sync.WaitGroup
	for b := range a.bands {
		band := &a.bands[b]
		band.reset(n)
		y0, y1 := b*rows/workers, (b+1)*rows/workers
		wg.Add(1)
		go func() {
			defer wg.Done()
			band.queries = sweep(f, idx, y0, y1, band.sumX, band.sumY, band.mass)
		}()
	}
	wg.Wait()

	for b := range a.bands {
		band := &a.bands[b]
		floats.Add(a.sumX, band.sumX)
		floats.Add(a.sumY, band.sumY)
		floats.Add(a.mass, band.mass)
		a.queries += band.queries
	}
}

// sweep accumulates rows [y0, y1) of f into the given buffers and returns
// the number of index queries made.
func sweep(f *field.Field, idx spatial.Index, y0, y1 int, sumX, sumY, mass []float64) int {
	queries := 0
	hint := 0
	for y := y0; y < y1; y++ {
		cy := float64(y) + 0.5
		for x, w := range f.Row(y) {
			if w == 0 {
				continue
			}
			cx := float64(x) + 0.5
			s := idx.Nearest(r2.Vec{X: cx, Y: cy}, hint)
			queries++
			sumX[s] += w * cx
			sumY[s] += w * cy
			mass[s] += w
			hint = s
		}
	}
	return queries
}

// Centroid returns the weighted centroid of site i's cell. ok is false when
// the cell carried no mass.
func (a *Accumulator) Centroid(i int) (c r2.Vec, ok bool) {
	m := a.mass[i]
	if m <= 0 {
		return r2.Vec{}, false
	}
	return r2.Vec{X: a.sumX[i] / m, Y: a.sumY[i] / m}, true
}

// Mass returns the weight accumulated by site i.
func (a *Accumulator) Mass(i int) float64 { return a.mass[i] }

// TotalMass returns the sum of all per-site weights.
func (a *Accumulator) TotalMass() float64 { return floats.Sum(a.mass) }

// Queries returns the number of index queries made by the last sweep.
func (a *Accumulator) Queries() int { return a.queries }
