// Package session wires a relaxation driver to its field, telemetry and run
// output. It is shared by the headless and graphical front ends.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/stipple/config"
	"github.com/pthm-cable/stipple/field"
	"github.com/pthm-cable/stipple/relax"
	"github.com/pthm-cable/stipple/telemetry"
)

// Options configures a Session. Zero values fall back to the config.
type Options struct {
	Seed          int64
	ImagePath     string
	Sites         int
	Index         string
	MaxIterations int
	OutputDir     string
	LogStats      bool
}

// Session owns one field and the driver relaxing it.
type Session struct {
	cfg    *config.Config
	opts   Options
	field  *field.Field
	driver *relax.Driver
	output *telemetry.OutputManager

	// cancel, when set, is called once a run converges or hits its cap.
	cancel context.CancelFunc

	mu    sync.Mutex
	perf  *telemetry.PerfCollector
	last  telemetry.IterationStats
	sites int
	// finished is the ID of the last run that converged or hit its cap.
	finished string
}

// New builds the field and an idle driver. Call Start to begin a run.
func New(cfg *config.Config, opts Options) (*Session, error) {
	if opts.Sites <= 0 {
		opts.Sites = cfg.Sampler.Sites
	}
	if opts.Index == "" {
		opts.Index = cfg.Relax.Index
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = cfg.Relax.MaxIterations
	}

	f, err := cfg.BuildField(opts.ImagePath)
	if err != nil {
		return nil, fmt.Errorf("building field: %w", err)
	}

	s := &Session{
		cfg:   cfg,
		opts:  opts,
		field: f,
		perf:  telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		sites: opts.Sites,
	}

	s.driver, err = relax.NewDriver(relax.Options{
		Index:      opts.Index,
		Seed:       opts.Seed,
		MaxRetries: cfg.Sampler.MaxRetries,
		Workers:    cfg.Derived.Workers,
		Tolerance:  cfg.Relax.Tolerance,
		Sink:       s.onIteration,
	})
	if err != nil {
		return nil, fmt.Errorf("creating driver: %w", err)
	}

	s.output, err = telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := s.output.WriteConfig(cfg); err != nil {
		s.output.Close()
		return nil, fmt.Errorf("writing config snapshot: %w", err)
	}

	slog.Info("field ready",
		"source", fieldSource(opts.ImagePath, cfg),
		"width", f.Width(),
		"height", f.Height(),
		"mass", f.Mass(),
		"avg_density", f.AvgDensity(),
	)
	return s, nil
}

func fieldSource(path string, cfg *config.Config) string {
	if path != "" {
		return path
	}
	return cfg.Field.Synthetic
}

// Start begins a new run with n sites, superseding the current one.
func (s *Session) Start(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: %d", relax.ErrInvalidCount, n)
	}
	s.mu.Lock()
	s.perf.Reset()
	s.last = telemetry.IterationStats{}
	s.sites = n
	s.mu.Unlock()
	return s.driver.Start(s.field, n)
}

// onIteration receives every committed iteration. It runs with the driver's
// lock held, so it never calls back into the driver.
func (s *Session) onIteration(res relax.IterationResult) {
	stats := telemetry.FromResult(res)

	s.mu.Lock()
	s.perf.Record(res)
	s.last = stats
	var perf telemetry.PerfStats
	logNow := s.opts.LogStats && res.Iteration%s.cfg.Telemetry.LogEvery == 0
	if logNow {
		perf = s.perf.Stats()
	}
	s.mu.Unlock()

	if err := s.output.WriteIteration(stats); err != nil {
		slog.Error("failed to write iteration", "error", err)
	}
	if logNow {
		stats.LogStats()
		perf.LogStats()
	}

	tol := s.cfg.Relax.Tolerance
	switch {
	case tol > 0 && res.MaxDisplacementSq < tol:
		s.finish("converged", res)
	case s.opts.MaxIterations > 0 && res.Iteration >= s.opts.MaxIterations:
		s.finish("max iterations reached", res)
	}
}

func (s *Session) finish(reason string, res relax.IterationResult) {
	s.mu.Lock()
	done := s.finished == res.RunID
	s.finished = res.RunID
	s.mu.Unlock()
	if done {
		return
	}
	slog.Info(reason, "run_id", res.RunID, "iteration", res.Iteration, "max_disp_sq", res.MaxDisplacementSq)
	if s.cancel != nil {
		s.cancel()
	}
}

// RunHeadless starts a run and iterates until it converges, reaches the
// iteration cap, or ctx is done. Output is finalized before it returns.
func (s *Session) RunHeadless(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.cancel = cancel

	if err := s.Start(s.sites); err != nil {
		return err
	}
	err := s.driver.Run(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if ferr := s.Finalize(); err == nil {
		err = ferr
	}
	return err
}

// Background runs the driver on its own goroutine until ctx is done, for
// front ends that restart runs while iterations proceed. The returned
// function waits for the goroutine to exit.
func (s *Session) Background(ctx context.Context) (wait func()) {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.driver.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("driver stopped", "error", err)
		}
	}()
	return wg.Wait
}

// Stop ends the current run.
func (s *Session) Stop() { s.driver.Stop() }

// Finished reports whether the current run converged or hit its cap.
func (s *Session) Finished() bool {
	id := s.driver.RunID()
	s.mu.Lock()
	defer s.mu.Unlock()
	return id != "" && s.finished == id
}

// Finalize writes the final sites and convergence plot, logs a spacing
// summary and closes the output files.
func (s *Session) Finalize() error {
	sites := s.driver.Snapshot()
	spacing := telemetry.Spacing(sites)
	slog.Info("run finished",
		"run_id", s.driver.RunID(),
		"iterations", s.driver.Iteration(),
		"spacing", spacing,
	)

	var errs []error
	if err := s.output.WriteSites(sites); err != nil {
		errs = append(errs, err)
	}
	if err := s.output.WriteConvergencePlot(); err != nil {
		errs = append(errs, err)
	}
	if err := s.output.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Field returns the field being relaxed.
func (s *Session) Field() *field.Field { return s.field }

// Driver returns the underlying driver.
func (s *Session) Driver() *relax.Driver { return s.driver }

// Snapshot returns the latest committed site positions.
func (s *Session) Snapshot() []r2.Vec { return s.driver.Snapshot() }

// Sites returns the site count of the current run.
func (s *Session) Sites() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sites
}

// Last returns the stats of the latest committed iteration.
func (s *Session) Last() telemetry.IterationStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// RecordFrame records a rendered frame for FPS reporting.
func (s *Session) RecordFrame() {
	s.mu.Lock()
	s.perf.RecordFrame()
	s.mu.Unlock()
}

// PerfStats returns iteration timing over the configured window.
func (s *Session) PerfStats() telemetry.PerfStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.perf.Stats()
}

// Config returns the session configuration.
func (s *Session) Config() *config.Config { return s.cfg }
