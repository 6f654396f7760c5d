// Package relax implements weighted Lloyd relaxation of stipple sites.
//
// A Driver owns one run at a time: a Field, the site positions sampled from
// it, and the index and accumulation buffers reused by every iteration. Each
// iteration moves every site to the weighted centroid of the cell it wins,
// then reports the largest squared displacement as a convergence metric.
//
// Runs are guarded by a generation token. Start and Stop bump it, and an
// iteration that finishes under an older generation is dropped before it
// touches the sites or reaches the sink.
package relax

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/stipple/field"
	"github.com/pthm-cable/stipple/spatial"
)

// State is the driver's lifecycle state.
type State uint8

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// IterationResult is the snapshot produced by one iteration.
type IterationResult struct {
	RunID      string
	Generation uint64
	// Iteration counts from 1 within a run.
	Iteration int
	// Positions is a copy of every site position after the iteration.
	Positions []r2.Vec
	// MaxDisplacementSq is the convergence metric: the largest squared
	// distance any site moved this iteration.
	MaxDisplacementSq  float64
	MeanDisplacementSq float64
	// Stranded counts sites whose cell carried no mass and which kept
	// their previous position.
	Stranded int
	// Mass is the total weight accumulated over all sites.
	Mass float64
	// Queries is the number of nearest-site queries made by the sweep.
	Queries int

	BuildTime  time.Duration
	SweepTime  time.Duration
	UpdateTime time.Duration
}

// Options configures a Driver.
type Options struct {
	// Index selects the nearest-site index by kind (see spatial.NewBuilder).
	// Ignored when Builder is set.
	Index string
	// Builder overrides the index builder for every run.
	Builder spatial.Builder
	// Seed seeds the sampler when Rand is nil.
	Seed int64
	// Rand overrides the sampler's random source.
	Rand Rand
	// MaxRetries is the per-site rejection budget (0 = DefaultMaxRetries).
	MaxRetries int
	// Workers splits each sweep over that many goroutines. Values <= 1
	// sweep serially.
	Workers int
	// Tolerance, when positive, moves the driver to Idle after the first
	// iteration whose metric falls below it.
	Tolerance float64
	// Sink receives every non-stale IterationResult. It is called with the
	// driver's lock held and must not call back into the Driver.
	Sink func(IterationResult)
	// Warn receives non-fatal conditions such as SamplingExhaustedError.
	// Defaults to logging through Logger.
	Warn func(error)
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// run is the state of one relaxation run. Only the Driver touches it.
type run struct {
	id        string
	gen       uint64
	field     *field.Field
	sites     []r2.Vec
	next      []r2.Vec
	disp      []float64
	builder   spatial.Builder
	workers   int
	acc       *Accumulator
	iteration int
	exhausted []int
}

// Driver runs the relaxation loop for one run at a time.
type Driver struct {
	opts Options
	log  *slog.Logger
	rng  Rand

	// step serializes iterations.
	step     sync.Mutex
	// starting serializes Start, which owns rng while sampling.
	starting sync.Mutex

	mu    sync.Mutex
	gen   uint64
	state State
	cur   *run
	wake  chan struct{}
}

// NewDriver returns an idle Driver.
func NewDriver(opts Options) (*Driver, error) {
	if opts.Builder == nil {
		if _, err := spatial.NewBuilder(opts.Index, 1, 1); err != nil {
			return nil, err
		}
	}
	if opts.MaxRetries < 0 {
		return nil, fmt.Errorf("negative max retries %d", opts.MaxRetries)
	}

	d := &Driver{
		opts: opts,
		log:  opts.Logger,
		rng:  opts.Rand,
		wake: make(chan struct{}, 1),
	}
	if d.log == nil {
		d.log = slog.Default()
	}
	if d.rng == nil {
		d.rng = rand.New(rand.NewSource(opts.Seed))
	}
	return d, nil
}

// Start begins a new run over f with n sites, superseding any current run.
// On error the driver's previous state is left untouched.
func (d *Driver) Start(f *field.Field, n int) error {
	if f == nil {
		return fmt.Errorf("%w: nil field", ErrInvalidField)
	}
	if !f.Valid() {
		return fmt.Errorf("%w: %dx%d grid with %d cells", ErrInvalidField, f.Width(), f.Height(), f.Len())
	}
	if n <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCount, n)
	}

	builder := d.opts.Builder
	if builder == nil {
		b, err := spatial.NewBuilder(d.opts.Index, float64(f.Width()), float64(f.Height()))
		if err != nil {
			return err
		}
		builder = b
	}

	d.starting.Lock()
	defer d.starting.Unlock()

	// Sampling can be slow on sparse fields, so it runs outside mu.
	sites, exhausted := Sample(f, n, d.rng, d.opts.MaxRetries)
	r := &run{
		id:        uuid.NewString(),
		field:     f,
		sites:     sites,
		next:      make([]r2.Vec, n),
		disp:      make([]float64, n),
		builder:   builder,
		workers:   d.opts.Workers,
		acc:       NewAccumulator(n),
		exhausted: exhausted,
	}

	d.mu.Lock()
	d.gen++
	r.gen = d.gen
	d.cur = r
	d.state = Running
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}

	d.log.Info("run started",
		"run_id", r.id,
		"generation", r.gen,
		"sites", n,
		"width", f.Width(),
		"height", f.Height(),
		"mass", f.Mass(),
		"exhausted", len(exhausted),
	)
	retries := d.opts.MaxRetries
	if retries == 0 {
		retries = DefaultMaxRetries
	}
	for _, site := range exhausted {
		d.warn(&SamplingExhaustedError{Site: site, Retries: retries})
	}
	return nil
}

// Stop ends the current run. An iteration already in flight completes but
// its result is discarded.
func (d *Driver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == Idle {
		return
	}
	d.gen++
	d.state = Idle
	d.log.Info("run stopped", "run_id", d.cur.id)
}

// Step runs one iteration of the current run. It reports whether a result
// was committed; false means the driver was idle or the iteration went stale.
func (d *Driver) Step() bool {
	d.step.Lock()
	defer d.step.Unlock()

	d.mu.Lock()
	if d.state != Running || d.cur == nil {
		d.mu.Unlock()
		return false
	}
	r, gen := d.cur, d.gen
	d.mu.Unlock()

	res := r.iterate()

	d.mu.Lock()
	defer d.mu.Unlock()
	if gen != d.gen {
		d.log.Debug("stale iteration discarded", "run_id", r.id, "generation", gen, "current", d.gen)
		return false
	}

	r.sites, r.next = r.next, r.sites
	r.iteration++
	res.RunID = r.id
	res.Generation = gen
	res.Iteration = r.iteration
	res.Positions = make([]r2.Vec, len(r.sites))
	copy(res.Positions, r.sites)

	if d.opts.Sink != nil {
		d.opts.Sink(res)
	}

	if d.opts.Tolerance > 0 && res.MaxDisplacementSq < d.opts.Tolerance {
		d.state = Idle
		d.log.Info("run converged",
			"run_id", r.id,
			"iteration", r.iteration,
			"max_disp_sq", res.MaxDisplacementSq,
		)
	}
	return true
}

// iterate computes the next positions into r.next without touching r.sites.
func (r *run) iterate() IterationResult {
	var res IterationResult

	t0 := time.Now()
	idx := r.builder.Build(r.sites)
	t1 := time.Now()
	r.acc.AccumulateParallel(r.field, idx, r.workers)
	t2 := time.Now()

	for i, old := range r.sites {
		c, ok := r.acc.Centroid(i)
		if !ok {
			// Stranded: no mass reached this site, so it stays put.
			c = old
			res.Stranded++
		}
		r.next[i] = c
		dx, dy := c.X-old.X, c.Y-old.Y
		r.disp[i] = dx*dx + dy*dy
		if r.disp[i] > res.MaxDisplacementSq {
			res.MaxDisplacementSq = r.disp[i]
		}
	}
	res.MeanDisplacementSq = stat.Mean(r.disp, nil)
	res.Mass = r.acc.TotalMass()
	res.Queries = r.acc.Queries()
	t3 := time.Now()

	res.BuildTime = t1.Sub(t0)
	res.SweepTime = t2.Sub(t1)
	res.UpdateTime = t3.Sub(t2)
	return res
}

// Run drives iterations until ctx is done, yielding to the scheduler
// between iterations. While idle it waits for Start. It returns ctx.Err().
func (d *Driver) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.Step() {
			runtime.Gosched()
			continue
		}
		if d.State() == Running {
			// Went stale under a fresh Start; go again.
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.wake:
		}
	}
}

// State returns the current lifecycle state.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Generation returns the current run-generation token.
func (d *Driver) Generation() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gen
}

// RunID returns the identifier of the current or last run, or "" before
// the first Start.
func (d *Driver) RunID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cur == nil {
		return ""
	}
	return d.cur.id
}

// Iteration returns the number of committed iterations of the current run.
func (d *Driver) Iteration() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cur == nil {
		return 0
	}
	return d.cur.iteration
}

// Snapshot returns a copy of the latest committed site positions.
func (d *Driver) Snapshot() []r2.Vec {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cur == nil {
		return nil
	}
	out := make([]r2.Vec, len(d.cur.sites))
	copy(out, d.cur.sites)
	return out
}

// Exhausted returns the indices of sites in the current run that fell back
// to uniform placement.
func (d *Driver) Exhausted() []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cur == nil {
		return nil
	}
	return append([]int(nil), d.cur.exhausted...)
}

func (d *Driver) warn(err error) {
	if d.opts.Warn != nil {
		d.opts.Warn(err)
		return
	}
	d.log.Warn("degenerate field", "error", err)
}
