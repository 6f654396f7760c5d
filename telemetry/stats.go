// Package telemetry records per-iteration statistics, phase timing and run
// output for relaxation runs.
package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/stipple/relax"
)

// IterationStats is the flat per-iteration record written to iterations.csv.
type IterationStats struct {
	RunID      string `csv:"-"`
	Iteration  int    `csv:"iteration"`
	Generation uint64 `csv:"generation"`

	// Convergence
	MaxDispSq  float64 `csv:"max_disp_sq"`
	MeanDispSq float64 `csv:"mean_disp_sq"`
	Stranded   int     `csv:"stranded"`

	// Mass accumulated by the sweep (should track the field mass)
	Mass    float64 `csv:"mass"`
	Queries int     `csv:"queries"`

	// Phase timing
	BuildUS  int64 `csv:"build_us"`
	SweepUS  int64 `csv:"sweep_us"`
	UpdateUS int64 `csv:"update_us"`
}

// FromResult flattens an iteration result.
func FromResult(res relax.IterationResult) IterationStats {
	return IterationStats{
		RunID:      res.RunID,
		Iteration:  res.Iteration,
		Generation: res.Generation,
		MaxDispSq:  res.MaxDisplacementSq,
		MeanDispSq: res.MeanDisplacementSq,
		Stranded:   res.Stranded,
		Mass:       res.Mass,
		Queries:    res.Queries,
		BuildUS:    res.BuildTime.Microseconds(),
		SweepUS:    res.SweepTime.Microseconds(),
		UpdateUS:   res.UpdateTime.Microseconds(),
	}
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Distribution summarizes a sample by mean, standard deviation and deciles.
type Distribution struct {
	Mean float64
	Std  float64
	P10  float64
	P50  float64
	P90  float64
}

// Describe computes a Distribution over values. values is not modified.
func Describe(values []float64) Distribution {
	n := len(values)
	if n == 0 {
		return Distribution{}
	}

	mean, std := stat.PopMeanStdDev(values, nil)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	return Distribution{
		Mean: mean,
		Std:  std,
		P10:  Percentile(sorted, 0.10),
		P50:  Percentile(sorted, 0.50),
		P90:  Percentile(sorted, 0.90),
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s IterationStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("run_id", s.RunID),
		slog.Int("iteration", s.Iteration),
		slog.Float64("max_disp_sq", s.MaxDispSq),
		slog.Float64("mean_disp_sq", s.MeanDispSq),
		slog.Int("stranded", s.Stranded),
		slog.Float64("mass", s.Mass),
		slog.Int("queries", s.Queries),
		slog.Int64("build_us", s.BuildUS),
		slog.Int64("sweep_us", s.SweepUS),
		slog.Int64("update_us", s.UpdateUS),
	)
}

// LogStats logs the iteration stats using slog.
func (s IterationStats) LogStats() {
	slog.Info("stats",
		"run_id", s.RunID,
		"iteration", s.Iteration,
		"max_disp_sq", s.MaxDispSq,
		"mean_disp_sq", s.MeanDispSq,
		"stranded", s.Stranded,
		"mass", s.Mass,
		"sweep_us", s.SweepUS,
	)
}
