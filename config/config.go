// Package config provides configuration loading and access for stippling runs.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/stipple/field"
	"github.com/pthm-cable/stipple/spatial"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all run configuration parameters.
type Config struct {
	Field     FieldConfig     `yaml:"field"`
	Sampler   SamplerConfig   `yaml:"sampler"`
	Relax     RelaxConfig     `yaml:"relax"`
	Screen    ScreenConfig    `yaml:"screen"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// FieldConfig controls how the source image becomes a density field.
type FieldConfig struct {
	Model        string  `yaml:"model"`         // darkness, luminance, lightness, neg_lightness, alpha
	MaxDimension int     `yaml:"max_dimension"` // Longest field side in cells (0 = image size)
	Gamma        float64 `yaml:"gamma"`         // Weight exponent applied after the model

	Synthetic     string `yaml:"synthetic"`      // Field used without an image: radial, rings
	SyntheticSize int    `yaml:"synthetic_size"` // Side of the synthetic field in cells
}

// SamplerConfig holds initial placement parameters.
type SamplerConfig struct {
	Sites      int `yaml:"sites"`
	MaxRetries int `yaml:"max_retries"` // Rejection attempts per site before uniform fallback
}

// RelaxConfig holds iteration parameters.
type RelaxConfig struct {
	Index         string  `yaml:"index"`          // grid, kdtree, linear
	Tolerance     float64 `yaml:"tolerance"`      // Stop when max squared displacement drops below (0 = never)
	MaxIterations int     `yaml:"max_iterations"` // Headless iteration cap (0 = unlimited)
	Workers       int     `yaml:"workers"`        // Sweep goroutines (0 = one per CPU)
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	TargetFPS   int     `yaml:"target_fps"`
	PointRadius float64 `yaml:"point_radius"`
}

// TelemetryConfig holds logging and timing parameters.
type TelemetryConfig struct {
	LogEvery   int `yaml:"log_every"`   // Log a stats line every N iterations
	PerfWindow int `yaml:"perf_window"` // Iterations averaged by the perf collector
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Model     field.Model // Resolved Field.Model
	ScreenW32 float32     // Screen.Width as float32
	ScreenH32 float32     // Screen.Height as float32
	Workers   int         // Relax.Workers with 0 resolved to GOMAXPROCS
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Compute derived values
	cfg.computeDerived()

	return cfg, nil
}

// Validate reports the first nonsensical value in the configuration.
func (c *Config) Validate() error {
	if _, ok := field.ModelByName(c.Field.Model); !ok {
		return fmt.Errorf("config: unknown field model %q", c.Field.Model)
	}
	if c.Field.MaxDimension < 0 {
		return fmt.Errorf("config: field.max_dimension must be >= 0, got %d", c.Field.MaxDimension)
	}
	if c.Field.Gamma < 0 {
		return fmt.Errorf("config: field.gamma must be >= 0, got %v", c.Field.Gamma)
	}
	switch c.Field.Synthetic {
	case "radial", "rings":
	default:
		return fmt.Errorf("config: unknown synthetic field %q", c.Field.Synthetic)
	}
	if c.Field.SyntheticSize <= 0 {
		return fmt.Errorf("config: field.synthetic_size must be positive, got %d", c.Field.SyntheticSize)
	}
	if c.Sampler.Sites <= 0 {
		return fmt.Errorf("config: sampler.sites must be positive, got %d", c.Sampler.Sites)
	}
	if c.Sampler.MaxRetries < 0 {
		return fmt.Errorf("config: sampler.max_retries must be >= 0, got %d", c.Sampler.MaxRetries)
	}
	if _, err := spatial.NewBuilder(c.Relax.Index, 1, 1); err != nil {
		return fmt.Errorf("config: relax.index: %w", err)
	}
	if c.Relax.Tolerance < 0 || c.Relax.MaxIterations < 0 || c.Relax.Workers < 0 {
		return fmt.Errorf("config: relax.tolerance, relax.max_iterations and relax.workers must be >= 0")
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.Model, _ = field.ModelByName(c.Field.Model)
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)
	c.Derived.Workers = c.Relax.Workers
	if c.Derived.Workers == 0 {
		c.Derived.Workers = runtime.GOMAXPROCS(0)
	}

	if c.Telemetry.LogEvery <= 0 {
		c.Telemetry.LogEvery = 1
	}
	if c.Telemetry.PerfWindow <= 0 {
		c.Telemetry.PerfWindow = 60
	}
}

// SetWorkers overrides relax.workers and recomputes the derived count.
func (c *Config) SetWorkers(n int) {
	c.Relax.Workers = n
	c.computeDerived()
}

// ImageOptions returns the field conversion options.
func (c *Config) ImageOptions() field.ImageOptions {
	return field.ImageOptions{
		MaxDimension: c.Field.MaxDimension,
		Gamma:        c.Field.Gamma,
	}
}

// BuildField loads the field from imagePath, or builds the configured
// synthetic field when imagePath is empty.
func (c *Config) BuildField(imagePath string) (*field.Field, error) {
	if imagePath != "" {
		return field.Load(imagePath, c.Derived.Model, c.ImageOptions())
	}
	n := c.Field.SyntheticSize
	if c.Field.Synthetic == "rings" {
		return field.Rings(n, n, 5)
	}
	return field.Radial(n, n)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
