package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/stipple/config"
)

// SiteRecord is one row of sites.csv.
type SiteRecord struct {
	Site int     `csv:"site"`
	X    float64 `csv:"x"`
	Y    float64 `csv:"y"`
}

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir            string
	iterationsFile *os.File

	// Track if headers have been written
	iterationsHeaderWritten bool

	// Convergence series kept for the final plot
	series []IterationStats
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, "iterations.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating iterations.csv: %w", err)
	}
	return &OutputManager{dir: dir, iterationsFile: f}, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteIteration appends an iteration record to iterations.csv.
func (om *OutputManager) WriteIteration(stats IterationStats) error {
	if om == nil {
		return nil
	}

	records := []IterationStats{stats}
	if !om.iterationsHeaderWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, om.iterationsFile); err != nil {
			return fmt.Errorf("writing iteration: %w", err)
		}
		om.iterationsHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.iterationsFile); err != nil {
			return fmt.Errorf("writing iteration: %w", err)
		}
	}

	om.series = append(om.series, stats)
	return nil
}

// WriteSites writes the final site positions to sites.csv, replacing any
// earlier file.
func (om *OutputManager) WriteSites(sites []r2.Vec) error {
	if om == nil {
		return nil
	}

	records := make([]SiteRecord, len(sites))
	for i, p := range sites {
		records[i] = SiteRecord{Site: i, X: p.X, Y: p.Y}
	}

	f, err := os.Create(filepath.Join(om.dir, "sites.csv"))
	if err != nil {
		return fmt.Errorf("creating sites.csv: %w", err)
	}
	if err := gocsv.MarshalFile(&records, f); err != nil {
		f.Close()
		return fmt.Errorf("writing sites: %w", err)
	}
	return f.Close()
}

// WriteConvergencePlot renders the recorded convergence series to
// convergence.png. It is a no-op before the first iteration.
func (om *OutputManager) WriteConvergencePlot() error {
	if om == nil || len(om.series) == 0 {
		return nil
	}
	return SaveConvergencePlot(om.series, filepath.Join(om.dir, "convergence.png"))
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil || om.iterationsFile == nil {
		return nil
	}
	err := om.iterationsFile.Close()
	om.iterationsFile = nil
	return err
}

// ReadSites loads positions previously written by WriteSites.
func ReadSites(path string) ([]r2.Vec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening sites file: %w", err)
	}
	defer f.Close()

	var records []SiteRecord
	if err := gocsv.UnmarshalFile(f, &records); err != nil {
		return nil, fmt.Errorf("parsing sites file: %w", err)
	}
	sites := make([]r2.Vec, len(records))
	for i, r := range records {
		sites[i] = r2.Vec{X: r.X, Y: r.Y}
	}
	return sites, nil
}
