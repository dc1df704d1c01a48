// Package config loads simulation tuning from YAML. Default() is a playable
// baseline; Load overlays a tuning file on top of it, so a file only needs to
// name the values it changes.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/talgya/hearthfall/internal/components"
)

// Config is the full runtime configuration.
type Config struct {
	Seed         int64   `yaml:"seed"`
	TickInterval float64 `yaml:"tick_interval"` // seconds of real time per tick
	TimeScale    float64 `yaml:"time_scale"`
	DBPath       string  `yaml:"db_path"`
	APIPort      int     `yaml:"api_port"`

	Tuning    Tuning                                        `yaml:"tuning"`
	Buildings map[components.BuildingType]BuildingSpec      `yaml:"buildings"`
	WorldGen  WorldGen                                      `yaml:"worldgen"`
}

// Tuning holds the gameplay constants the systems consult every tick.
type Tuning struct {
	CitizenSpeed     float64 `yaml:"citizen_speed"`
	CarrySpeedFactor float64 `yaml:"carry_speed_factor"`
	ArriveRadius     float64 `yaml:"arrive_radius"`
	ProximityRadius  float64 `yaml:"proximity_radius"`

	GatherDuration float64 `yaml:"gather_duration"`

	WanderRadiusMin float64 `yaml:"wander_radius_min"`
	WanderRadiusMax float64 `yaml:"wander_radius_max"`
	WanderCooldown  float64 `yaml:"wander_cooldown"`

	RespawnDelayMin    float64 `yaml:"respawn_delay_min"`
	RespawnDelayMax    float64 `yaml:"respawn_delay_max"`
	RespawnRetryDelay  float64 `yaml:"respawn_retry_delay"`
	RespawnBlockRadius float64 `yaml:"respawn_block_radius"`

	HungerRate      float64 `yaml:"hunger_rate"`
	FatigueWorkRate float64 `yaml:"fatigue_work_rate"`
	FatigueRestRate float64 `yaml:"fatigue_rest_rate"`
	EatThreshold    float64 `yaml:"eat_threshold"`
	FoodValue       float64 `yaml:"food_value"`
}

// BuildingSpec is one catalog entry: what a building costs and what it can do
// once constructed.
type BuildingSpec struct {
	Cost            components.ResourceAmounts `yaml:"cost"`
	BuildTime       float64                    `yaml:"build_time"`
	StorageCapacity int                        `yaml:"storage_capacity"`
	WorkerSlots     int                        `yaml:"worker_slots"`
}

// WorldGen holds resource-node seeding parameters.
type WorldGen struct {
	Size           int     `yaml:"size"`            // half extent of the square region
	NodeSpacing    float64 `yaml:"node_spacing"`    // grid step between candidate positions
	WoodThreshold  float64 `yaml:"wood_threshold"`  // forest noise above this places a wood node
	StoneThreshold float64 `yaml:"stone_threshold"` // rock noise above this places a stone node
	NodeAmount     int     `yaml:"node_amount"`     // starting units per node
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		Seed:         42,
		TickInterval: 0.1,
		TimeScale:    1.0,
		DBPath:       "data/hearthfall.db",
		APIPort:      8080,
		Tuning: Tuning{
			CitizenSpeed:     3.0,
			CarrySpeedFactor: 0.75,
			ArriveRadius:     0.25,
			ProximityRadius:  1.5,

			GatherDuration: 3.0,

			WanderRadiusMin: 2.0,
			WanderRadiusMax: 8.0,
			WanderCooldown:  4.0,

			RespawnDelayMin:    20.0,
			RespawnDelayMax:    60.0,
			RespawnRetryDelay:  5.0,
			RespawnBlockRadius: 2.0,

			HungerRate:      0.004,
			FatigueWorkRate: 0.006,
			FatigueRestRate: 0.010,
			EatThreshold:    0.7,
			FoodValue:       0.5,
		},
		Buildings: map[components.BuildingType]BuildingSpec{
			components.BuildingStorehouse: {
				Cost:            components.ResourceAmounts{components.ResourceWood: 10},
				BuildTime:       20,
				StorageCapacity: 200,
				WorkerSlots:     2,
			},
			components.BuildingFarm: {
				Cost:            components.ResourceAmounts{components.ResourceWood: 15, components.ResourceStone: 5},
				BuildTime:       30,
				WorkerSlots:     3,
			},
			components.BuildingHouse: {
				Cost:      components.ResourceAmounts{components.ResourceWood: 20, components.ResourceStone: 10},
				BuildTime: 40,
			},
		},
		WorldGen: WorldGen{
			Size:           40,
			NodeSpacing:    4.0,
			WoodThreshold:  0.62,
			StoneThreshold: 0.70,
			NodeAmount:     5,
		},
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Building returns the catalog entry for a building type. Unknown types get a
// zero-cost instant build so a stale save cannot wedge placement.
func (c *Config) Building(t components.BuildingType) BuildingSpec {
	if spec, ok := c.Buildings[t]; ok {
		return spec
	}
	return BuildingSpec{Cost: components.ResourceAmounts{}}
}
