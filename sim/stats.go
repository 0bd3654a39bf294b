package sim

import (
	"sync"

	"github.com/antoniguss/bikesharing-simulation/model"
)

// Stats accumulates run-wide counters and the trip log. Trips only ever
// write to it; nothing in the simulation reads it back to make decisions.
// It is injected into the engine rather than global so independent runs
// can execute side by side in tests.
type Stats struct {
	mu sync.Mutex

	successfulTrips int
	failedTrips     int
	spawnedTrips    int

	totalWalkingKm  float64
	totalCyclingKm  float64
	totalTripMinute float64

	skippedArrivals   int
	routeLookupMisses int

	tripLog    []model.TripRecord
	routeUsage map[[2]int]int

	// hourlyBikes[h][stationID] is the docked-bike count observed at the
	// start of simulated hour h.
	hourlyBikes map[int]map[int]int
}

// NewStats returns an empty statistics record.
func NewStats() *Stats {
	return &Stats{
		routeUsage:  make(map[[2]int]int),
		hourlyBikes: make(map[int]map[int]int),
	}
}

// TripSpawned counts a user handed to a new trip process.
func (st *Stats) TripSpawned() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.spawnedTrips++
}

// TripFailed counts a trip that ended in any failure state.
func (st *Stats) TripFailed() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.failedTrips++
}

// TripSucceeded records a completed journey: counters, cumulative
// distances and time, per-route usage, and the trip log entry.
func (st *Stats) TripSucceeded(rec model.TripRecord) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.successfulTrips++
	st.totalWalkingKm += rec.WalkingKm
	st.totalCyclingKm += rec.CyclingKm
	st.totalTripMinute += rec.DurationMinute
	st.routeUsage[[2]int{rec.OriginStationID, rec.DestStationID}]++
	st.tripLog = append(st.tripLog, rec)
}

// ArrivalSkipped counts an arrival dropped because a POI pool was empty.
func (st *Stats) ArrivalSkipped() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.skippedArrivals++
}

// RouteLookupMissed counts a station pair absent from the route table.
func (st *Stats) RouteLookupMissed() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.routeLookupMisses++
}

// SnapshotBikes stores the per-station docked-bike counts for an hour.
func (st *Stats) SnapshotBikes(hour int, counts map[int]int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.hourlyBikes[hour] = counts
}

// Totals returns the scalar counters in one shot.
func (st *Stats) Totals() Totals {
	st.mu.Lock()
	defer st.mu.Unlock()
	return Totals{
		SuccessfulTrips:   st.successfulTrips,
		FailedTrips:       st.failedTrips,
		SpawnedTrips:      st.spawnedTrips,
		TotalWalkingKm:    st.totalWalkingKm,
		TotalCyclingKm:    st.totalCyclingKm,
		TotalTripMinutes:  st.totalTripMinute,
		SkippedArrivals:   st.skippedArrivals,
		RouteLookupMisses: st.routeLookupMisses,
	}
}

// Totals is a point-in-time copy of the scalar counters.
type Totals struct {
	SuccessfulTrips   int     `json:"successful_trips"`
	FailedTrips       int     `json:"failed_trips"`
	SpawnedTrips      int     `json:"spawned_trips"`
	TotalWalkingKm    float64 `json:"total_walking_km"`
	TotalCyclingKm    float64 `json:"total_cycling_km"`
	TotalTripMinutes  float64 `json:"total_trip_minutes"`
	SkippedArrivals   int     `json:"skipped_arrivals"`
	RouteLookupMisses int     `json:"route_lookup_misses"`
}

// TripLog returns a copy of the ordered trip log.
func (st *Stats) TripLog() []model.TripRecord {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]model.TripRecord, len(st.tripLog))
	copy(out, st.tripLog)
	return out
}

// RouteUsage returns a copy of the per-route success tallies.
func (st *Stats) RouteUsage() map[[2]int]int {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make(map[[2]int]int, len(st.routeUsage))
	for k, v := range st.routeUsage {
		out[k] = v
	}
	return out
}

// HourlyBikes returns a copy of the hourly bike-count snapshots.
func (st *Stats) HourlyBikes() map[int]map[int]int {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make(map[int]map[int]int, len(st.hourlyBikes))
	for h, counts := range st.hourlyBikes {
		out[h] = copyCounts(counts)
	}
	return out
}
