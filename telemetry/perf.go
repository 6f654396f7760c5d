package telemetry

import (
	"log/slog"
	"time"

	"github.com/pthm-cable/stipple/relax"
)

// Phase names for one relaxation iteration.
const (
	PhaseBuild  = "build"
	PhaseSweep  = "sweep"
	PhaseUpdate = "update"
)

var phases = []string{PhaseBuild, PhaseSweep, PhaseUpdate}

// PerfSample holds timing data for a single iteration.
type PerfSample struct {
	Total  time.Duration
	Phases map[string]time.Duration
}

// PerfCollector tracks iteration timing over a rolling window.
type PerfCollector struct {
	windowSize  int
	samples     []PerfSample
	writeIndex  int
	sampleCount int

	// Frame timing (for graphics mode)
	lastFrameTime time.Time
	frameDuration time.Duration
}

// NewPerfCollector creates a new performance collector.
// windowSize: number of iterations to average over.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize: windowSize,
		samples:    make([]PerfSample, windowSize),
	}
}

// Record adds the phase timings of one committed iteration.
func (p *PerfCollector) Record(res relax.IterationResult) {
	p.Add(PerfSample{
		Total: res.BuildTime + res.SweepTime + res.UpdateTime,
		Phases: map[string]time.Duration{
			PhaseBuild:  res.BuildTime,
			PhaseSweep:  res.SweepTime,
			PhaseUpdate: res.UpdateTime,
		},
	})
}

// Add records a sample, evicting the oldest once the window is full.
func (p *PerfCollector) Add(s PerfSample) {
	p.samples[p.writeIndex] = s
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// Reset discards all samples, e.g. when a new run starts.
func (p *PerfCollector) Reset() {
	for i := range p.samples {
		p.samples[i] = PerfSample{}
	}
	p.writeIndex = 0
	p.sampleCount = 0
}

// RecordFrame records frame timing for graphics mode.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrameTime.IsZero() {
		p.frameDuration = now.Sub(p.lastFrameTime)
	}
	p.lastFrameTime = now
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	Samples int

	AvgIteration time.Duration
	MinIteration time.Duration
	MaxIteration time.Duration

	// Phase breakdown (average durations)
	PhaseAvg map[string]time.Duration

	// Phase percentages of total iteration time
	PhasePct map[string]float64

	IterationsPerSecond float64

	// Frame timing (graphics mode)
	FrameDuration time.Duration
	FPS           float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	var fps float64
	if p.frameDuration > 0 {
		fps = float64(time.Second) / float64(p.frameDuration)
	}

	stats := PerfStats{
		Samples:       p.sampleCount,
		PhaseAvg:      make(map[string]time.Duration),
		PhasePct:      make(map[string]float64),
		FrameDuration: p.frameDuration,
		FPS:           fps,
	}
	if p.sampleCount == 0 {
		return stats
	}

	var total time.Duration
	phaseSum := make(map[string]time.Duration)
	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		total += s.Total
		if i == 0 || s.Total < stats.MinIteration {
			stats.MinIteration = s.Total
		}
		if s.Total > stats.MaxIteration {
			stats.MaxIteration = s.Total
		}
		for phase, dur := range s.Phases {
			phaseSum[phase] += dur
		}
	}

	stats.AvgIteration = total / time.Duration(p.sampleCount)
	for phase, sum := range phaseSum {
		stats.PhaseAvg[phase] = sum / time.Duration(p.sampleCount)
		if stats.AvgIteration > 0 {
			stats.PhasePct[phase] = float64(stats.PhaseAvg[phase]) / float64(stats.AvgIteration) * 100
		}
	}
	if stats.AvgIteration > 0 {
		stats.IterationsPerSecond = float64(time.Second) / float64(stats.AvgIteration)
	}
	return stats
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_iter_us", s.AvgIteration.Microseconds(),
		"min_iter_us", s.MinIteration.Microseconds(),
		"max_iter_us", s.MaxIteration.Microseconds(),
		"iters_per_sec", int(s.IterationsPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}
	for _, phase := range phases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", float64(int(pct*10))/10)
		}
	}
	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_iter_us", s.AvgIteration.Microseconds()),
		slog.Int64("min_iter_us", s.MinIteration.Microseconds()),
		slog.Int64("max_iter_us", s.MaxIteration.Microseconds()),
		slog.Float64("iters_per_sec", s.IterationsPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for _, phase := range phases {
		if pct, ok := s.PhasePct[phase]; ok {
			attrs = append(attrs, slog.Float64(phase+"_pct", pct))
		}
	}
	return slog.GroupValue(attrs...)
}
