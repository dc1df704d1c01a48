// Command hearthfall runs the colony simulation server.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pkg/profile"

	"github.com/talgya/hearthfall/internal/api"
	"github.com/talgya/hearthfall/internal/config"
	"github.com/talgya/hearthfall/internal/game"
	"github.com/talgya/hearthfall/internal/persistence"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML tuning file (optional)")
		seed       = flag.Int64("seed", 0, "world seed override (0 keeps the config value)")
		dbPath     = flag.String("db", "", "database path override")
		port       = flag.Int("port", 0, "HTTP API port override")
		fresh      = flag.Bool("fresh", false, "ignore saved snapshots and generate a new world")
		profiling  = flag.Bool("profile", false, "write a CPU profile on exit")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if *profiling {
		defer profile.Start(profile.ProfilePath(".")).Stop()
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			slog.Error("failed to load config", "path", *configPath, "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *port != 0 {
		cfg.APIPort = *port
	}

	os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755)
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	sim := game.New(cfg)

	restored := false
	if !*fresh {
		snap, err := db.LoadLatest()
		if err != nil {
			slog.Error("failed to load snapshot", "error", err)
			os.Exit(1)
		}
		if snap != nil {
			if err := sim.Restore(snap); err != nil {
				slog.Error("failed to restore snapshot", "error", err)
				os.Exit(1)
			}
			restored = true
		}
	}
	if !restored {
		slog.Info("no saved state, generating world", "seed", cfg.Seed)
		sim.GenerateWorld()
	}

	adminKey := os.Getenv("HEARTHFALL_ADMIN_KEY")
	if adminKey == "" {
		slog.Warn("HEARTHFALL_ADMIN_KEY not set, admin POST endpoints disabled")
	}
	server := &api.Server{
		Sim:      sim,
		DB:       db,
		Port:     cfg.APIPort,
		AdminKey: adminKey,
	}
	server.Start()

	interval := time.Duration(cfg.TickInterval * float64(time.Second))
	runner := game.NewRunner(sim, interval)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		runner.Stop()
	}()

	fmt.Printf("Hearthfall is running. API: http://localhost:%d/api/v1/status\n", cfg.APIPort)
	if restored {
		fmt.Printf("Resumed from tick %d\n", sim.Tick())
	}
	fmt.Println("Ctrl+C to stop.")

	runner.Run()

	snap, err := sim.Snapshot()
	if err != nil {
		slog.Error("final snapshot failed", "error", err)
		return
	}
	if err := db.SaveSnapshot(snap); err != nil {
		slog.Error("final save failed", "error", err)
		return
	}
	fmt.Println("Simulation stopped. Colony saved.")
}
