package spatial

import (
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r2"
)

// KDTreeBuilder builds indexes backed by a gonum k-d tree.
type KDTreeBuilder struct{}

// KDTree is an Index over a gonum k-d tree. Construction is O(N log N).
type KDTree struct {
	tree *kdtree.Tree
	n    int
	// sites is kept in site order for hint distances.
	sites []r2.Vec
}

// Build implements Builder.
func (KDTreeBuilder) Build(sites []r2.Vec) Index {
	pts := make(sitePoints, len(sites))
	s := make([]r2.Vec, len(sites))
	for i, p := range sites {
		pts[i] = sitePoint{Vec: p, id: i}
		s[i] = p
	}
	t := &KDTree{n: len(sites), sites: s}
	if len(pts) > 0 {
		t.tree = kdtree.New(pts, false)
	}
	return t
}

// Len implements Index.
func (t *KDTree) Len() int { return t.n }

// Nearest implements Index.
//
// With a valid hint every site within the hint's distance is collected and
// the lowest (distance, index) pair wins. A cold query first asks the tree
// for any nearest site to obtain that bound.
func (t *KDTree) Nearest(q r2.Vec, hint int) int {
	switch t.n {
	case 0:
		return -1
	case 1:
		return 0
	}

	qp := sitePoint{Vec: q, id: -1}
	var bound float64
	if hint >= 0 && hint < t.n {
		bound = distSq(q, t.sites[hint])
	} else {
		c, d := t.tree.Nearest(qp)
		if c == nil {
			return -1
		}
		bound = d
	}

	keep := kdtree.NewDistKeeper(bound)
	t.tree.NearestSet(keep, qp)

	best, bestD := -1, math.Inf(1)
	for _, c := range keep.Heap {
		p, ok := c.Comparable.(sitePoint)
		if !ok {
			continue
		}
		if closer(c.Dist, p.id, bestD, best) {
			best, bestD = p.id, c.Dist
		}
	}
	if best < 0 && hint >= 0 && hint < t.n {
		return hint
	}
	return best
}

// sitePoint is a site position tagged with its index.
type sitePoint struct {
	r2.Vec
	id int
}

// Compare implements kdtree.Comparable.
func (p sitePoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(sitePoint)
	if d == 0 {
		return p.X - q.X
	}
	return p.Y - q.Y
}

// Dims implements kdtree.Comparable.
func (p sitePoint) Dims() int { return 2 }

// Distance implements kdtree.Comparable. It returns the squared distance.
func (p sitePoint) Distance(c kdtree.Comparable) float64 {
	return distSq(p.Vec, c.(sitePoint).Vec)
}

// sitePoints implements kdtree.Interface.
type sitePoints []sitePoint

func (p sitePoints) Index(i int) kdtree.Comparable { return p[i] }
func (p sitePoints) Len() int                      { return len(p) }
func (p sitePoints) Pivot(d kdtree.Dim) int        { return plane{sitePoints: p, Dim: d}.Pivot() }
func (p sitePoints) Slice(start, end int) kdtree.Interface {
	return p[start:end]
}

// plane sorts sitePoints along one dimension.
type plane struct {
	kdtree.Dim
	sitePoints
}

func (p plane) Less(i, j int) bool {
	if p.Dim == 0 {
		return p.sitePoints[i].X < p.sitePoints[j].X
	}
	return p.sitePoints[i].Y < p.sitePoints[j].Y
}
func (p plane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.sitePoints = p.sitePoints[start:end]
	return p
}
func (p plane) Swap(i, j int) {
	p.sitePoints[i], p.sitePoints[j] = p.sitePoints[j], p.sitePoints[i]
}
