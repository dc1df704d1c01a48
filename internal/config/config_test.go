package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/talgya/hearthfall/internal/components"
)

func TestDefaultIsPlayable(t *testing.T) {
	cfg := Default()

	if cfg.TimeScale <= 0 || cfg.TickInterval <= 0 {
		t.Fatalf("clock defaults unusable: scale=%v interval=%v", cfg.TimeScale, cfg.TickInterval)
	}
	if cfg.Tuning.CitizenSpeed <= 0 || cfg.Tuning.GatherDuration <= 0 {
		t.Fatal("movement and gather defaults must be positive")
	}
	if cfg.Tuning.RespawnDelayMin > cfg.Tuning.RespawnDelayMax {
		t.Fatal("respawn delay range inverted")
	}

	store := cfg.Building(components.BuildingStorehouse)
	if store.StorageCapacity <= 0 {
		t.Fatal("a storehouse without storage capacity cannot accept deliveries")
	}
	if store.Cost.Get(components.ResourceWood) == 0 {
		t.Fatal("storehouse should cost wood")
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	raw := []byte(`
seed: 7
time_scale: 4.0
tuning:
  citizen_speed: 5.5
buildings:
  storehouse:
    cost:
      wood: 25
    build_time: 15
    storage_capacity: 300
`)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Seed != 7 || cfg.TimeScale != 4.0 {
		t.Fatalf("top-level overrides not applied: %+v", cfg)
	}
	if cfg.Tuning.CitizenSpeed != 5.5 {
		t.Fatalf("tuning override not applied: %v", cfg.Tuning.CitizenSpeed)
	}
	// Untouched values keep their defaults.
	if cfg.Tuning.GatherDuration != Default().Tuning.GatherDuration {
		t.Fatalf("unset tuning value lost its default: %v", cfg.Tuning.GatherDuration)
	}

	store := cfg.Building(components.BuildingStorehouse)
	if store.Cost.Get(components.ResourceWood) != 25 || store.StorageCapacity != 300 {
		t.Fatalf("building override not applied: %+v", store)
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestUnknownBuildingFallback(t *testing.T) {
	cfg := Default()
	spec := cfg.Building(components.BuildingType("shrine"))
	if spec.Cost.Total() != 0 || spec.BuildTime != 0 {
		t.Fatalf("unknown building should get a zero-cost spec, got %+v", spec)
	}
}
