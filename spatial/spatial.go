// Package spatial provides nearest-site indexes over a set of 2D sites.
//
// An Index answers "which site is nearest to q" exactly, with ties broken by
// the lowest site index. Queries take a hint, normally the answer to the
// previous query; when consecutive queries are spatially close the hint lets
// the index bound its search immediately and the per-query cost stays near
// constant.
package spatial

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Index locates the nearest site to a query point. Queries do not modify
// the index and may run concurrently.
type Index interface {
	// Len returns the number of indexed sites.
	Len() int
	// Nearest returns the index of the site nearest to q. hint is a site
	// index to start from; a hint outside [0, Len()) makes a cold query.
	Nearest(q r2.Vec, hint int) int
}

// Builder builds an Index over a snapshot of site positions. The Index does
// not retain sites beyond what it copies, so the caller may reuse the slice
// once Build returns.
type Builder interface {
	Build(sites []r2.Vec) Index
}

// BuilderFunc adapts a function to the Builder interface.
type BuilderFunc func(sites []r2.Vec) Index

func (f BuilderFunc) Build(sites []r2.Vec) Index { return f(sites) }

// Index kinds accepted by NewBuilder.
const (
	KindGrid   = "grid"
	KindKDTree = "kdtree"
	KindLinear = "linear"
)

// NewBuilder returns the builder for kind over a width×height domain.
func NewBuilder(kind string, width, height float64) (Builder, error) {
	switch kind {
	case KindGrid, "":
		return NewGridBuilder(width, height), nil
	case KindKDTree:
		return KDTreeBuilder{}, nil
	case KindLinear:
		return LinearBuilder{}, nil
	}
	return nil, fmt.Errorf("unknown index kind %q", kind)
}

// distSq returns the squared Euclidean distance between a and b.
func distSq(a, b r2.Vec) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}

// closer reports whether site i at squared distance d beats the current best.
func closer(d float64, i int, bestD float64, best int) bool {
	return d < bestD || (d == bestD && i < best)
}

// LinearBuilder builds brute-force indexes. Every query is O(N); it is the
// reference the other indexes are tested against.
type LinearBuilder struct{}

// Build implements Builder.
func (LinearBuilder) Build(sites []r2.Vec) Index {
	s := make([]r2.Vec, len(sites))
	copy(s, sites)
	return linear(s)
}

type linear []r2.Vec

func (l linear) Len() int { return len(l) }

func (l linear) Nearest(q r2.Vec, _ int) int {
	best, bestD := -1, math.Inf(1)
	for i, p := range l {
		if d := distSq(q, p); closer(d, i, bestD, best) {
			best, bestD = i, d
		}
	}
	return best
}
