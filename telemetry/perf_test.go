package telemetry

import (
	"math"
	"testing"
	"time"

	"github.com/pthm-cable/stipple/relax"
)

func result(build, sweep, update time.Duration) relax.IterationResult {
	return relax.IterationResult{BuildTime: build, SweepTime: sweep, UpdateTime: update}
}

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)
	for i := 0; i < 5; i++ {
		pc.Record(result(100*time.Microsecond, 800*time.Microsecond, 100*time.Microsecond))
	}

	stats := pc.Stats()
	if stats.Samples != 5 {
		t.Errorf("expected 5 samples, got %d", stats.Samples)
	}
	if stats.AvgIteration != time.Millisecond {
		t.Errorf("expected 1ms average iteration, got %v", stats.AvgIteration)
	}
	if stats.IterationsPerSecond != 1000 {
		t.Errorf("expected 1000 iterations/s, got %v", stats.IterationsPerSecond)
	}
	for _, phase := range []string{PhaseBuild, PhaseSweep, PhaseUpdate} {
		if _, ok := stats.PhaseAvg[phase]; !ok {
			t.Errorf("expected %s phase to be tracked", phase)
		}
	}
	if math.Abs(stats.PhasePct[PhaseSweep]-80) > 1e-9 {
		t.Errorf("expected sweep at 80%%, got %v", stats.PhasePct[PhaseSweep])
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)

	// Five slow iterations are pushed out by five fast ones.
	for i := 0; i < 5; i++ {
		pc.Record(result(0, 10*time.Millisecond, 0))
	}
	for i := 0; i < 5; i++ {
		pc.Record(result(0, time.Millisecond, 0))
	}

	stats := pc.Stats()
	if stats.Samples != 5 {
		t.Errorf("expected window capped at 5, got %d", stats.Samples)
	}
	if stats.MaxIteration != time.Millisecond {
		t.Errorf("expected slow samples evicted, max %v", stats.MaxIteration)
	}
	if stats.MinIteration != time.Millisecond {
		t.Errorf("expected min 1ms, got %v", stats.MinIteration)
	}
}

func TestPerfCollector_Reset(t *testing.T) {
	pc := NewPerfCollector(4)
	pc.Record(result(time.Millisecond, time.Millisecond, time.Millisecond))
	pc.Reset()

	if stats := pc.Stats(); stats.Samples != 0 || stats.AvgIteration != 0 {
		t.Errorf("expected empty stats after reset, got %+v", stats)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(10)

	stats := pc.Stats()

	// Empty collector should return zero values without panicking
	if stats.AvgIteration != 0 {
		t.Error("expected zero avg iteration duration for empty collector")
	}
	if stats.PhaseAvg == nil {
		t.Error("expected non-nil PhaseAvg map")
	}
	if stats.PhasePct == nil {
		t.Error("expected non-nil PhasePct map")
	}
}

func TestPerfCollector_FrameTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	// First call establishes baseline
	pc.RecordFrame()
	time.Sleep(16 * time.Millisecond)
	pc.RecordFrame()

	stats := pc.Stats()
	if stats.FrameDuration < 15*time.Millisecond {
		t.Errorf("expected frame duration >= 15ms, got %v", stats.FrameDuration)
	}
	if stats.FPS <= 0 || stats.FPS > 70 {
		t.Errorf("expected FPS in (0, 70], got %v", stats.FPS)
	}
}
