package telemetry

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r2"
)

// SpacingStats describes the nearest-neighbour distances of a stipple. A
// well relaxed stipple over a uniform field has a narrow distribution.
type SpacingStats struct {
	Sites int
	Distribution
}

// Spacing computes the distance from every site to its nearest other site.
// Fewer than two sites gives a zero result.
func Spacing(sites []r2.Vec) SpacingStats {
	if len(sites) < 2 {
		return SpacingStats{Sites: len(sites)}
	}

	pts := make(kdtree.Points, len(sites))
	for i, p := range sites {
		pts[i] = kdtree.Point{p.X, p.Y}
	}
	tree := kdtree.New(pts, false)

	dists := make([]float64, len(sites))
	for i, p := range pts {
		// The query point itself is always one of the two closest.
		keep := kdtree.NewNKeeper(2)
		tree.NearestSet(keep, p)
		d := 0.0
		for _, c := range keep.Heap {
			if c.Comparable == nil || math.IsInf(c.Dist, 1) {
				continue
			}
			if c.Dist > d {
				d = c.Dist
			}
		}
		dists[i] = math.Sqrt(d)
	}
	return SpacingStats{Sites: len(sites), Distribution: Describe(dists)}
}

// LogValue implements slog.LogValuer for structured logging.
func (s SpacingStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("sites", s.Sites),
		slog.Float64("nn_mean", s.Mean),
		slog.Float64("nn_std", s.Std),
		slog.Float64("nn_p10", s.P10),
		slog.Float64("nn_p50", s.P50),
		slog.Float64("nn_p90", s.P90),
	)
}
