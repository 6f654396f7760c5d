package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/stipple/config"
	"github.com/pthm-cable/stipple/session"
	"github.com/pthm-cable/stipple/viewer"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	imagePath := flag.String("image", "", "Source image (empty = synthetic field from config)")
	sites := flag.Int("sites", 0, "Number of stipple sites (0 = use config)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	headless := flag.Bool("headless", false, "Run without graphics")
	maxIters := flag.Int("max-iters", 0, "Stop after N iterations (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, sites, plot and config snapshot")
	index := flag.String("index", "", "Nearest-site index: grid, kdtree or linear (empty = use config)")
	logStats := flag.Bool("log-stats", false, "Output iteration stats via slog")
	workers := flag.Int("workers", -1, "Sweep goroutines (0 = one per CPU, -1 = use config)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *workers >= 0 {
		cfg.SetWorkers(*workers)
	}

	// Set up seed
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	opts := session.Options{
		Seed:          rngSeed,
		ImagePath:     *imagePath,
		Sites:         *sites,
		Index:         *index,
		MaxIterations: *maxIters,
		OutputDir:     *outputDir,
		LogStats:      *logStats,
	}

	s, err := session.New(cfg, opts)
	if err != nil {
		slog.Error("failed to create session", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *headless {
		slog.Info("starting headless relaxation",
			"seed", rngSeed,
			"sites", s.Sites(),
			"max_iters", *maxIters,
			"output_dir", *outputDir,
		)
		if err := s.RunHeadless(ctx); err != nil && ctx.Err() == nil {
			slog.Error("relaxation failed", "error", err)
			os.Exit(1)
		}
		return
	}

	// Graphical mode
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Stipple")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	v := viewer.New(s)
	defer v.Unload()

	if err := v.Start(ctx); err != nil {
		slog.Error("failed to start run", "error", err)
		return
	}

	for !rl.WindowShouldClose() && ctx.Err() == nil {
		v.Update()
		v.Draw()
	}
}
