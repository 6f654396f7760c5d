package spatial

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// cellScanned, when set, is called for every in-bounds cell a query visits.
// Tests use it to count search work.
var cellScanned func()

// GridBuilder builds bucket-grid indexes over a fixed domain.
type GridBuilder struct {
	width, height float64
}

// NewGridBuilder returns a builder for grids covering [0,width)×[0,height).
// Sites outside the domain are still indexed; the grid grows to cover them.
func NewGridBuilder(width, height float64) *GridBuilder {
	return &GridBuilder{width: width, height: height}
}

// Grid is a uniform bucket grid holding about one site per cell.
//
// Buckets are stored flat: the sites of cell c are ids[start[c]:start[c+1]],
// in increasing site order.
type Grid struct {
	sites    []r2.Vec
	minX     float64
	minY     float64
	cellSize float64
	cols     int
	rows     int
	start    []int32
	ids      []int32
}

// Build implements Builder. Construction is O(N).
func (b *GridBuilder) Build(sites []r2.Vec) Index {
	g := &Grid{sites: make([]r2.Vec, len(sites))}
	copy(g.sites, sites)

	minX, minY := 0.0, 0.0
	maxX, maxY := b.width, b.height
	for _, p := range sites {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	spanX := math.Max(maxX-minX, 1)
	spanY := math.Max(maxY-minY, 1)

	n := max(len(sites), 1)
	cellSize := math.Sqrt(spanX * spanY / float64(n))
	if !(cellSize > 0) || math.IsInf(cellSize, 0) {
		cellSize = math.Max(spanX, spanY)
	}

	g.minX = minX
	g.minY = minY
	g.cellSize = cellSize
	g.cols = int(spanX/cellSize) + 1
	g.rows = int(spanY/cellSize) + 1

	// Count, prefix-sum, then fill in site order.
	g.start = make([]int32, g.cols*g.rows+1)
	cell := make([]int32, len(sites))
	for i, p := range sites {
		c := g.cellIndex(p)
		cell[i] = int32(c)
		g.start[c+1]++
	}
	for c := 1; c < len(g.start); c++ {
		g.start[c] += g.start[c-1]
	}
	g.ids = make([]int32, len(sites))
	fill := make([]int32, g.cols*g.rows)
	copy(fill, g.start[:len(fill)])
	for i, c := range cell {
		g.ids[fill[c]] = int32(i)
		fill[c]++
	}

	return g
}

// Len implements Index.
func (g *Grid) Len() int { return len(g.sites) }

// Nearest implements Index.
//
// The hint's distance seeds the search bound, then rings of cells are
// scanned outward from the query's cell until the nearest cell of the next
// ring is farther than the best site found.
func (g *Grid) Nearest(q r2.Vec, hint int) int {
	switch len(g.sites) {
	case 0:
		return -1
	case 1:
		return 0
	}

	best, bestD := -1, math.Inf(1)
	if hint >= 0 && hint < len(g.sites) {
		best, bestD = hint, distSq(q, g.sites[hint])
	}

	col, row := g.cellOf(q)
	maxRing := max(g.cols, g.rows)
	for r := 0; r <= maxRing; r++ {
		if r > 0 {
			lb := g.ringBound(q, col, row, r)
			if lb*lb > bestD {
				break
			}
		}
		best, bestD = g.scanRing(q, col, row, r, best, bestD)
	}
	return best
}

// ringBound returns a lower bound on the distance from q to any cell in
// ring r around (col, row): the distance from q to the edge of the block of
// cells within ring r-1.
func (g *Grid) ringBound(q r2.Vec, col, row, r int) float64 {
	left := g.minX + float64(col-(r-1))*g.cellSize
	right := g.minX + float64(col+r)*g.cellSize
	top := g.minY + float64(row-(r-1))*g.cellSize
	bottom := g.minY + float64(row+r)*g.cellSize

	d := math.Min(math.Min(q.X-left, right-q.X), math.Min(q.Y-top, bottom-q.Y))
	if d < 0 {
		// q was clamped into the grid from outside.
		return 0
	}
	return d
}

// scanRing checks every site in the cells at Chebyshev distance r from
// (col, row).
func (g *Grid) scanRing(q r2.Vec, col, row, r int, best int, bestD float64) (int, float64) {
	if r == 0 {
		return g.scanCell(q, col, row, best, bestD)
	}
	for dc := -r; dc <= r; dc++ {
		best, bestD = g.scanCell(q, col+dc, row-r, best, bestD)
		best, bestD = g.scanCell(q, col+dc, row+r, best, bestD)
	}
	for dr := -r + 1; dr <= r-1; dr++ {
		best, bestD = g.scanCell(q, col-r, row+dr, best, bestD)
		best, bestD = g.scanCell(q, col+r, row+dr, best, bestD)
	}
	return best, bestD
}

func (g *Grid) scanCell(q r2.Vec, col, row int, best int, bestD float64) (int, float64) {
	if col < 0 || row < 0 || col >= g.cols || row >= g.rows {
		return best, bestD
	}
	if cellScanned != nil {
		cellScanned()
	}
	c := row*g.cols + col
	for _, id := range g.ids[g.start[c]:g.start[c+1]] {
		i := int(id)
		if d := distSq(q, g.sites[i]); closer(d, i, bestD, best) {
			best, bestD = i, d
		}
	}
	return best, bestD
}

// cellOf returns the clamped cell coordinates for a position.
func (g *Grid) cellOf(p r2.Vec) (col, row int) {
	col = int(math.Floor((p.X - g.minX) / g.cellSize))
	row = int(math.Floor((p.Y - g.minY) / g.cellSize))

	// Clamp to valid range
	if col < 0 {
		col = 0
	} else if col >= g.cols {
		col = g.cols - 1
	}
	if row < 0 {
		row = 0
	} else if row >= g.rows {
		row = g.rows - 1
	}
	return col, row
}

// cellIndex returns the flat cell index for a position.
func (g *Grid) cellIndex(p r2.Vec) int {
	col, row := g.cellOf(p)
	return row*g.cols + col
}
