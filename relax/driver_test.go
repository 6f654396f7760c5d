package relax

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/stipple/field"
	"github.com/pthm-cable/stipple/spatial"
)

// collector records results passed to a Driver's sink.
type collector struct {
	mu      sync.Mutex
	results []IterationResult
}

func (c *collector) sink(r IterationResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, r)
}

func (c *collector) all() []IterationResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]IterationResult(nil), c.results...)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDriver(t *testing.T, opts Options) (*Driver, *collector) {
	t.Helper()
	c := &collector{}
	opts.Sink = c.sink
	if opts.Logger == nil {
		opts.Logger = quietLogger()
	}
	d, err := NewDriver(opts)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	return d, c
}

func TestStartValidation(t *testing.T) {
	d, _ := newTestDriver(t, Options{Seed: 1})
	f, _ := field.Uniform(4, 4, 1)

	if err := d.Start(nil, 3); !errors.Is(err, ErrInvalidField) {
		t.Errorf("expected ErrInvalidField for nil field, got %v", err)
	}
	if err := d.Start(&field.Field{}, 3); !errors.Is(err, ErrInvalidField) {
		t.Errorf("expected ErrInvalidField for zero field, got %v", err)
	}
	for _, n := range []int{0, -2} {
		if err := d.Start(f, n); !errors.Is(err, ErrInvalidCount) {
			t.Errorf("n=%d: expected ErrInvalidCount, got %v", n, err)
		}
	}
	if d.State() != Idle {
		t.Errorf("expected Idle after failed starts, got %v", d.State())
	}
	if d.Generation() != 0 {
		t.Errorf("expected generation unchanged, got %d", d.Generation())
	}

	if _, err := NewDriver(Options{Index: "quadtree"}); err == nil {
		t.Error("expected error for unknown index kind")
	}
}

func TestStepProducesNPositionsInBounds(t *testing.T) {
	for _, kind := range []string{spatial.KindGrid, spatial.KindKDTree} {
		d, c := newTestDriver(t, Options{Seed: 3, Index: kind})
		f := mustField(t, 24, 16, randomWeights(newRand(3), 24*16, 0.2))

		if err := d.Start(f, 40); err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 3; i++ {
			if !d.Step() {
				t.Fatalf("%s: step %d not committed", kind, i)
			}
		}

		results := c.all()
		if len(results) != 3 {
			t.Fatalf("%s: expected 3 results, got %d", kind, len(results))
		}
		for _, r := range results {
			if len(r.Positions) != 40 {
				t.Fatalf("%s: expected 40 positions, got %d", kind, len(r.Positions))
			}
			for i, p := range r.Positions {
				if !f.Contains(p) {
					t.Errorf("%s: site %d at %v outside domain", kind, i, p)
				}
			}
			if r.MaxDisplacementSq < 0 {
				t.Errorf("%s: negative metric %v", kind, r.MaxDisplacementSq)
			}
			if rel := math.Abs(r.Mass-f.Mass()) / f.Mass(); rel > 1e-6 {
				t.Errorf("%s: mass %v, want %v", kind, r.Mass, f.Mass())
			}
		}
		if results[2].Iteration != 3 {
			t.Errorf("%s: expected iteration 3, got %d", kind, results[2].Iteration)
		}
	}
}

func TestSingleSiteFixedPoint(t *testing.T) {
	rng := newRand(8)
	f := mustField(t, 13, 9, randomWeights(rng, 13*9, 0.4))
	d, c := newTestDriver(t, Options{Seed: 8})

	if err := d.Start(f, 1); err != nil {
		t.Fatal(err)
	}
	d.Step()
	d.Step()

	results := c.all()
	want := f.Centroid()
	got := results[0].Positions[0]
	if math.Abs(got.X-want.X) > 1e-9 || math.Abs(got.Y-want.Y) > 1e-9 {
		t.Errorf("expected first iteration at centroid %v, got %v", want, got)
	}
	if results[1].MaxDisplacementSq != 0 {
		t.Errorf("expected fixed point on second iteration, metric %v", results[1].MaxDisplacementSq)
	}
	if results[1].Positions[0] != got {
		t.Errorf("expected position unchanged, got %v then %v", got, results[1].Positions[0])
	}
}

func TestUniformFieldSingleSite(t *testing.T) {
	f, err := field.Uniform(10, 10, 1)
	if err != nil {
		t.Fatal(err)
	}
	d, c := newTestDriver(t, Options{Seed: 21})

	if err := d.Start(f, 1); err != nil {
		t.Fatal(err)
	}
	d.Step()

	p := c.all()[0].Positions[0]
	if p.X != 5 || p.Y != 5 {
		t.Errorf("expected (5,5), got %v", p)
	}
}

func TestCornerFieldExhaustedFallback(t *testing.T) {
	f := cornerField(t)
	var warnings []error
	d, c := newTestDriver(t, Options{
		// First attempt lands in empty cell (0,0) and is rejected.
		Rand:       &scripted{vals: []float64{0.05, 0.05, 0.5, 0.25, 0.75}},
		MaxRetries: 1,
		Warn:       func(err error) { warnings = append(warnings, err) },
	})

	if err := d.Start(f, 1); err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected one warning, got %v", warnings)
	}
	var se *SamplingExhaustedError
	if !errors.As(warnings[0], &se) || se.Site != 0 {
		t.Fatalf("expected SamplingExhaustedError for site 0, got %v", warnings[0])
	}
	if got := d.Exhausted(); len(got) != 1 || got[0] != 0 {
		t.Errorf("expected Exhausted()=[0], got %v", got)
	}

	d.Step()
	p := c.all()[0].Positions[0]
	if p.X != 9.5 || p.Y != 9.5 {
		t.Errorf("expected site on centre of cell (9,9), got %v", p)
	}
}

func TestStrandedSiteKeepsPosition(t *testing.T) {
	// Mass only in the left half.
	weights := make([]float64, 10*10)
	for y := 0; y < 10; y++ {
		for x := 0; x < 5; x++ {
			weights[y*10+x] = 1
		}
	}
	f := mustField(t, 10, 10, weights)

	d, c := newTestDriver(t, Options{
		Rand: &scripted{vals: []float64{
			0.1, 0.5, 0.0, // site 0 accepted at (1, 5)
			0.95, 0.5, 0.0, // site 1 rejected in the empty half
			0.95, 0.55, // site 1 fallback
		}},
		MaxRetries: 1,
		Warn:       func(error) {},
	})
	if err := d.Start(f, 2); err != nil {
		t.Fatal(err)
	}

	before := d.Snapshot()
	d.Step()
	r := c.all()[0]

	if r.Stranded != 1 {
		t.Errorf("expected 1 stranded site, got %d", r.Stranded)
	}
	if r.Positions[1] != before[1] {
		t.Errorf("stranded site moved from %v to %v", before[1], r.Positions[1])
	}
	if want := (r2.Vec{X: 2.5, Y: 5}); r.Positions[0] != want {
		t.Errorf("expected site 0 at %v, got %v", want, r.Positions[0])
	}
}

func TestDeterministicWithSeed(t *testing.T) {
	f := mustField(t, 20, 20, randomWeights(newRand(2), 400, 0.25))

	run := func() IterationResult {
		d, c := newTestDriver(t, Options{Seed: 1234})
		if err := d.Start(f, 30); err != nil {
			t.Fatal(err)
		}
		d.Step()
		return c.all()[0]
	}

	a, b := run(), run()
	opts := cmpopts.IgnoreFields(IterationResult{}, "RunID", "BuildTime", "SweepTime", "UpdateTime")
	if diff := cmp.Diff(a, b, opts); diff != "" {
		t.Errorf("results differ across seeded runs (-first +second):\n%s", diff)
	}
}

// gateBuilder blocks in Build until released.
type gateBuilder struct {
	entered chan struct{}
	release chan struct{}
}

func (g *gateBuilder) Build(sites []r2.Vec) spatial.Index {
	select {
	case g.entered <- struct{}{}:
	default:
	}
	<-g.release
	return spatial.LinearBuilder{}.Build(sites)
}

// gateRand blocks on its first draw until released.
type gateRand struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
	rng     Rand
}

func (g *gateRand) Float64() float64 {
	g.once.Do(func() {
		close(g.entered)
		<-g.release
	})
	return g.rng.Float64()
}

func TestSamplingDoesNotBlockReaders(t *testing.T) {
	gate := &gateRand{entered: make(chan struct{}), release: make(chan struct{}), rng: newRand(8)}
	d, _ := newTestDriver(t, Options{Rand: gate})
	f, _ := field.Uniform(8, 8, 1)

	started := make(chan error)
	go func() { started <- d.Start(f, 5) }()
	<-gate.entered

	read := make(chan State)
	go func() {
		d.Snapshot()
		d.Exhausted()
		read <- d.State()
	}()
	select {
	case s := <-read:
		if s != Idle {
			t.Errorf("expected Idle while sampling, got %v", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("readers blocked while Start was sampling")
	}

	close(gate.release)
	if err := <-started; err != nil {
		t.Fatal(err)
	}
	if d.State() != Running || len(d.Snapshot()) != 5 {
		t.Errorf("expected running with 5 sites, got %v with %d", d.State(), len(d.Snapshot()))
	}
}

func TestStaleIterationDiscarded(t *testing.T) {
	gate := &gateBuilder{entered: make(chan struct{}, 1), release: make(chan struct{})}
	d, c := newTestDriver(t, Options{Seed: 5, Builder: gate})

	f1, _ := field.Uniform(8, 8, 1)
	f2, _ := field.Uniform(6, 6, 0.5)
	if err := d.Start(f1, 4); err != nil {
		t.Fatal(err)
	}
	oldGen := d.Generation()

	done := make(chan bool)
	go func() { done <- d.Step() }()
	<-gate.entered

	// Supersede the run while its iteration is mid-build.
	if err := d.Start(f2, 3); err != nil {
		t.Fatal(err)
	}
	close(gate.release)

	if committed := <-done; committed {
		t.Error("expected stale iteration not to commit")
	}
	if n := len(c.all()); n != 0 {
		t.Fatalf("expected no results from stale iteration, got %d", n)
	}

	if !d.Step() {
		t.Fatal("expected new run to step")
	}
	results := c.all()
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Generation == oldGen || len(results[0].Positions) != 3 {
		t.Errorf("result from wrong run: generation %d, %d positions", results[0].Generation, len(results[0].Positions))
	}
}

func TestStopDiscardsInFlight(t *testing.T) {
	gate := &gateBuilder{entered: make(chan struct{}, 1), release: make(chan struct{})}
	d, c := newTestDriver(t, Options{Seed: 5, Builder: gate})
	f, _ := field.Uniform(8, 8, 1)
	if err := d.Start(f, 4); err != nil {
		t.Fatal(err)
	}

	done := make(chan bool)
	go func() { done <- d.Step() }()
	<-gate.entered
	d.Stop()
	close(gate.release)

	if <-done {
		t.Error("expected iteration after Stop to be discarded")
	}
	if len(c.all()) != 0 {
		t.Error("expected no results after Stop")
	}
	if d.State() != Idle {
		t.Errorf("expected Idle, got %v", d.State())
	}
	if d.Step() {
		t.Error("expected Step to do nothing while idle")
	}
}

func TestToleranceStopsRun(t *testing.T) {
	f, _ := field.Uniform(10, 10, 1)
	d, c := newTestDriver(t, Options{Seed: 4, Tolerance: 1e-12})
	if err := d.Start(f, 1); err != nil {
		t.Fatal(err)
	}

	steps := 0
	for d.Step() {
		steps++
		if steps > 10 {
			t.Fatal("run did not converge")
		}
	}
	if d.State() != Idle {
		t.Errorf("expected Idle after convergence, got %v", d.State())
	}
	if last := c.all()[len(c.all())-1]; last.MaxDisplacementSq >= 1e-12 {
		t.Errorf("expected final metric below tolerance, got %v", last.MaxDisplacementSq)
	}
}

func TestRunLoopUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	count := 0
	d, err := NewDriver(Options{
		Seed:   6,
		Logger: quietLogger(),
		Sink: func(IterationResult) {
			mu.Lock()
			defer mu.Unlock()
			count++
			if count == 5 {
				cancel()
			}
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	errc := make(chan error, 1)
	go func() { errc <- d.Run(ctx) }()

	// Run waits while idle.
	time.Sleep(10 * time.Millisecond)
	mu.Lock()
	if count != 0 {
		t.Errorf("expected no iterations before Start, got %d", count)
	}
	mu.Unlock()

	f, _ := field.Uniform(16, 16, 0.8)
	if err := d.Start(f, 10); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	mu.Lock()
	defer mu.Unlock()
	if count < 5 {
		t.Errorf("expected at least 5 iterations, got %d", count)
	}
}
