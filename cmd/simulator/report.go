package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/antoniguss/bikesharing-simulation/model"
	"github.com/antoniguss/bikesharing-simulation/scenario"
	"github.com/antoniguss/bikesharing-simulation/sim"
)

// printSummary writes the post-run console report: totals, success rate,
// and the top stations by usage and by failures.
func printSummary(cfg scenario.Config, registry *sim.Registry, stats *sim.Stats, initialBikes int) {
	totals := stats.Totals()
	totalTrips := totals.SuccessfulTrips + totals.FailedTrips
	successRate := 0.0
	if totalTrips > 0 {
		successRate = float64(totals.SuccessfulTrips) / float64(totalTrips) * 100
	}

	fmt.Println("=== Simulation Results ===")
	fmt.Printf("Successful trips: %d\n", totals.SuccessfulTrips)
	fmt.Printf("Failed trips: %d (Success rate: %.1f%%)\n", totals.FailedTrips, successRate)
	fmt.Printf("Total walking distance: %.1f km\n", totals.TotalWalkingKm)
	fmt.Printf("Total cycling distance: %.1f km\n", totals.TotalCyclingKm)
	if totals.SkippedArrivals > 0 {
		fmt.Printf("Arrivals skipped for missing POI data: %d\n", totals.SkippedArrivals)
	}
	if totals.RouteLookupMisses > 0 {
		fmt.Printf("Route table misses: %d\n", totals.RouteLookupMisses)
	}

	// Journeys cut off by the horizon keep their bike: it is neither
	// docked nor lost, just still on the road when the run ends.
	docked := registry.TotalBikes()
	fmt.Printf("Bikes docked at end: %d", docked)
	if inTransit := initialBikes - docked; inTransit > 0 {
		fmt.Printf(" (%d still in transit at the horizon)", inTransit)
	}
	fmt.Println()

	usage := registry.Usage()
	failures := registry.Failures()
	stations := registry.Stations()

	fmt.Println("\n=== Station Usage Statistics ===")
	fmt.Println("\nMost Used Stations:")
	for _, s := range topStations(stations, usage) {
		fmt.Printf("Station %s: %d trips\n", s.Neighbourhood, usage[s.ID])
	}
	fmt.Println("\nStations with Most Failures:")
	for _, s := range topStations(stations, failures) {
		fmt.Printf("Station %s: %d failures\n", s.Neighbourhood, failures[s.ID])
	}
}

// topStations returns up to five stations ordered by descending tally,
// ties by ascending ID.
func topStations(stations []*model.Station, tally map[int]int) []*model.Station {
	sorted := make([]*model.Station, len(stations))
	copy(sorted, stations)
	sort.Slice(sorted, func(i, j int) bool {
		if tally[sorted[i].ID] != tally[sorted[j].ID] {
			return tally[sorted[i].ID] > tally[sorted[j].ID]
		}
		return sorted[i].ID < sorted[j].ID
	})
	if len(sorted) > 5 {
		sorted = sorted[:5]
	}
	return sorted
}

// Results bundle shapes consumed by the visualization tooling.
type stationResultJSON struct {
	ID            int     `json:"id"`
	Lon           float64 `json:"lon"`
	Lat           float64 `json:"lat"`
	Capacity      int     `json:"capacity"`
	Bikes         int     `json:"bikes"`
	Neighbourhood string  `json:"neighbourhood"`
	Usage         int     `json:"usage"`
	Failures      int     `json:"failures"`
}

type resultsJSON struct {
	RunID          string              `json:"run_id"`
	StartHour      int                 `json:"start_hour"`
	DurationMin    int                 `json:"duration_minutes"`
	Seed           int64               `json:"seed"`
	Totals         sim.Totals          `json:"totals"`
	BikesDocked    int                 `json:"bikes_docked"`
	BikesInTransit int                 `json:"bikes_in_transit"`
	Stations       []stationResultJSON `json:"stations"`
	TripLog        []model.TripRecord  `json:"trip_log"`
	HourlyBikes    map[int]map[int]int `json:"hourly_bikes"`
}

// writeResults dumps the final station states, totals, trip log, and
// hourly snapshots as one JSON bundle under the configured results
// directory, named by run ID.
func writeResults(cfg scenario.Config, engine *sim.Engine, registry *sim.Registry, stats *sim.Stats, initialBikes int) (string, error) {
	usage := registry.Usage()
	failures := registry.Failures()
	docked := registry.TotalBikes()

	bundle := resultsJSON{
		RunID:          engine.RunID,
		StartHour:      cfg.StartHour,
		DurationMin:    cfg.DurationMinutes,
		Seed:           cfg.Seed,
		Totals:         stats.Totals(),
		BikesDocked:    docked,
		BikesInTransit: initialBikes - docked,
		TripLog:        stats.TripLog(),
		HourlyBikes:    stats.HourlyBikes(),
	}
	for _, s := range registry.Stations() {
		bundle.Stations = append(bundle.Stations, stationResultJSON{
			ID:            s.ID,
			Lon:           s.Position[0],
			Lat:           s.Position[1],
			Capacity:      s.Capacity,
			Bikes:         s.Bikes,
			Neighbourhood: s.Neighbourhood,
			Usage:         usage[s.ID],
			Failures:      failures[s.ID],
		})
	}

	if err := os.MkdirAll(cfg.ResultsDir, 0o755); err != nil {
		return "", fmt.Errorf("create results dir: %w", err)
	}
	path := filepath.Join(cfg.ResultsDir, fmt.Sprintf("run_%s.json", engine.RunID))
	raw, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode results: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("write results: %w", err)
	}
	return path, nil
}
