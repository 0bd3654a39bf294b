// Package scenario loads the external inputs a simulation run needs: the
// station catalog, the POI database, the hourly weight tables, and the
// run configuration file.
package scenario

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the YAML run configuration read by cmd/simulator.
type Config struct {
	// StartHour is the hour of simulated day the run begins at.
	StartHour int `yaml:"start_hour"`
	// DurationMinutes is the simulated length of the run.
	DurationMinutes int `yaml:"duration_minutes"`

	MaxWalkKm        float64 `yaml:"max_walk_km"`
	WalkingSpeedKmph float64 `yaml:"walking_speed_kmph"`
	CyclingSpeedKmph float64 `yaml:"cycling_speed_kmph"`
	// DetourFactor scales crow-flight distance up to street distance when
	// the route table is built from estimates.
	DetourFactor float64 `yaml:"detour_factor"`

	Seed int64 `yaml:"seed"`

	Data struct {
		Stations       string `yaml:"stations"`
		POIDatabase    string `yaml:"poi_database"`
		POIWeights     string `yaml:"poi_weights"`
		TimeWeights    string `yaml:"time_weights"`
		RouteCache     string `yaml:"route_cache"`
		RouteCacheMeta string `yaml:"route_cache_meta"`
	} `yaml:"data"`

	ResultsDir string `yaml:"results_dir"`
}

// DefaultConfig mirrors the historical defaults: a full day starting at
// 06:00, a 1 km walking budget, 5 km/h walking and 15 km/h cycling.
func DefaultConfig() Config {
	cfg := Config{
		StartHour:        6,
		DurationMinutes:  24 * 60,
		MaxWalkKm:        1.0,
		WalkingSpeedKmph: 5.0,
		CyclingSpeedKmph: 15.0,
		DetourFactor:     1.3,
		Seed:             1,
		ResultsDir:       "./generated",
	}
	cfg.Data.Stations = "./data/stations.geojson"
	cfg.Data.POIDatabase = "./data/poi_database.json"
	cfg.Data.POIWeights = "./data/poi_weights.csv"
	cfg.Data.TimeWeights = "./data/time_weights.csv"
	cfg.Data.RouteCache = "./cache/station_routes.json"
	cfg.Data.RouteCacheMeta = "./cache/station_routes_meta.json"
	return cfg
}

// LoadConfig reads a YAML config file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %q: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations the simulation cannot run with.
func (c Config) Validate() error {
	if c.StartHour < 0 || c.StartHour > 23 {
		return fmt.Errorf("start_hour %d outside 0-23", c.StartHour)
	}
	if c.DurationMinutes <= 0 {
		return fmt.Errorf("duration_minutes must be positive, got %d", c.DurationMinutes)
	}
	if c.MaxWalkKm <= 0 {
		return fmt.Errorf("max_walk_km must be positive, got %v", c.MaxWalkKm)
	}
	if c.WalkingSpeedKmph <= 0 {
		return fmt.Errorf("walking_speed_kmph must be positive, got %v", c.WalkingSpeedKmph)
	}
	if c.CyclingSpeedKmph <= 0 {
		return fmt.Errorf("cycling_speed_kmph must be positive, got %v", c.CyclingSpeedKmph)
	}
	if c.DetourFactor < 1 {
		return fmt.Errorf("detour_factor must be >= 1, got %v", c.DetourFactor)
	}
	return nil
}

// StartTime returns the run start as an offset from simulated midnight.
func (c Config) StartTime() time.Duration {
	return time.Duration(c.StartHour) * time.Hour
}

// Duration returns the simulated run length.
func (c Config) Duration() time.Duration {
	return time.Duration(c.DurationMinutes) * time.Minute
}
