package main

import (
	"math"
	"sync"

	"github.com/pthm-cable/stipple/config"
	"github.com/pthm-cable/stipple/field"
	"github.com/pthm-cable/stipple/relax"
	"github.com/pthm-cable/stipple/telemetry"
)

// FitnessEvaluator scores a site count by how close the relaxed stipple's
// mean nearest-neighbour spacing comes to a target.
type FitnessEvaluator struct {
	params     *ParamVector
	baseCfg    *config.Config
	field      *field.Field
	target     float64
	iterations int
	seeds      []int64

	mu   sync.Mutex
	last telemetry.SpacingStats
}

// NewFitnessEvaluator creates an evaluator relaxing f for the given number of
// iterations per seed.
func NewFitnessEvaluator(params *ParamVector, f *field.Field, target float64, iterations int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		baseCfg:    baseCfg,
		field:      f,
		target:     target,
		iterations: iterations,
		seeds:      seeds,
	}
}

// LastSpacing returns the spacing measured by the most recent evaluation.
func (fe *FitnessEvaluator) LastSpacing() telemetry.SpacingStats {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.last
}

// Evaluate returns the fitness for raw parameter values. Lower is better.
func (fe *FitnessEvaluator) Evaluate(raw []float64) float64 {
	cfg := *fe.baseCfg
	fe.params.ApplyToConfig(&cfg, raw)

	var total float64
	var spacing telemetry.SpacingStats
	for _, seed := range fe.seeds {
		s, err := fe.relax(&cfg, seed)
		if err != nil {
			return math.Inf(1)
		}
		total += fe.computeFitness(s)
		spacing = s
	}

	fe.mu.Lock()
	fe.last = spacing
	fe.mu.Unlock()
	return total / float64(len(fe.seeds))
}

// relax runs one seeded relaxation and measures its spacing.
func (fe *FitnessEvaluator) relax(cfg *config.Config, seed int64) (telemetry.SpacingStats, error) {
	d, err := relax.NewDriver(driverOptions(cfg, seed))
	if err != nil {
		return telemetry.SpacingStats{}, err
	}
	if err := d.Start(fe.field, cfg.Sampler.Sites); err != nil {
		return telemetry.SpacingStats{}, err
	}
	for i := 0; i < fe.iterations; i++ {
		if !d.Step() {
			break
		}
	}
	return telemetry.Spacing(d.Snapshot()), nil
}

// computeFitness is the squared relative spacing error.
func (fe *FitnessEvaluator) computeFitness(s telemetry.SpacingStats) float64 {
	if s.Sites < 2 || fe.target <= 0 {
		return math.Inf(1)
	}
	rel := (s.Mean - fe.target) / fe.target
	return rel * rel
}

func driverOptions(cfg *config.Config, seed int64) relax.Options {
	return relax.Options{
		Index:      cfg.Relax.Index,
		Seed:       seed,
		MaxRetries: cfg.Sampler.MaxRetries,
		Workers:    cfg.Derived.Workers,
		Logger:     discardLogger,
	}
}
