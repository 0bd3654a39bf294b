package sim

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/antoniguss/bikesharing-simulation/model"
)

var (
	// ErrNoStations indicates the scenario provided no stations at all.
	ErrNoStations = errors.New("no stations in scenario")
	// ErrNoCapacity indicates the scenario's total dock capacity is zero.
	ErrNoCapacity = errors.New("stations have zero total capacity")
)

// Registry is the single source of truth for station state. Lookups are
// read-only; bike counts change only through TakeBike/ReturnBike, which
// uphold 0 <= bikes <= capacity. The registry also keeps the per-station
// usage and failure tallies the reporting layer consumes.
//
// The simulation itself is single-threaded, but the registry is guarded
// by a mutex so a metrics endpoint or report writer can read final state
// from another goroutine, the same way the knowledge-base stores in this
// codebase's lineage are guarded.
type Registry struct {
	mu       sync.RWMutex
	stations []*model.Station // ascending ID order
	usage    map[int]int
	failures map[int]int
}

// NewRegistry builds a registry from the loaded station catalog. It fails
// fast on the two fatal configuration cases: an empty catalog and a
// catalog with zero total capacity.
func NewRegistry(stations []*model.Station) (*Registry, error) {
	if len(stations) == 0 {
		return nil, ErrNoStations
	}

	sorted := make([]*model.Station, len(stations))
	copy(sorted, stations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	total := 0
	for i, s := range sorted {
		if s.Capacity <= 0 {
			return nil, fmt.Errorf("station %d: capacity must be positive, got %d", s.ID, s.Capacity)
		}
		if s.Bikes < 0 || s.Bikes > s.Capacity {
			return nil, fmt.Errorf("station %d: initial bikes %d outside [0, %d]", s.ID, s.Bikes, s.Capacity)
		}
		if i > 0 && sorted[i-1].ID == s.ID {
			return nil, fmt.Errorf("duplicate station ID %d", s.ID)
		}
		total += s.Capacity
	}
	if total == 0 {
		return nil, ErrNoCapacity
	}

	r := &Registry{
		stations: sorted,
		usage:    make(map[int]int, len(sorted)),
		failures: make(map[int]int, len(sorted)),
	}
	for _, s := range sorted {
		r.usage[s.ID] = 0
		r.failures[s.ID] = 0
	}
	return r, nil
}

// FindNearestWithBike returns the station closest to location that has at
// least one bike docked. Ties break toward the lowest station ID. When no
// station qualifies, every empty station's failure tally is incremented
// once and ok is false.
func (r *Registry) FindNearestWithBike(location orb.Point) (*model.Station, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nearestLocked(location, (*model.Station).HasBike)
}

// FindNearestWithSpace is the symmetric lookup for a free dock.
func (r *Registry) FindNearestWithSpace(location orb.Point) (*model.Station, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nearestLocked(location, (*model.Station).HasSpace)
}

func (r *Registry) nearestLocked(location orb.Point, qualifies func(*model.Station) bool) (*model.Station, bool) {
	var best *model.Station
	bestDist := 0.0
	for _, s := range r.stations {
		if !qualifies(s) {
			continue
		}
		d := DistanceKm(location, s.Position)
		// Strict < over an ascending-ID scan makes the lowest ID win ties.
		if best == nil || d < bestDist {
			best, bestDist = s, d
		}
	}
	if best == nil {
		for _, s := range r.stations {
			if !qualifies(s) {
				r.failures[s.ID]++
			}
		}
		return nil, false
	}
	return best, true
}

// TakeBike atomically removes a bike from s, reporting success.
func (r *Registry) TakeBike(s *model.Station) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return s.TakeBike()
}

// ReturnBike atomically docks a bike at s, reporting success.
func (r *Registry) ReturnBike(s *model.Station) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return s.ReturnBike()
}

// RecordFailure charges a failed take/return against a station.
func (r *Registry) RecordFailure(stationID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[stationID]++
}

// RecordUsage credits a completed trip leg to a station.
func (r *Registry) RecordUsage(stationID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.usage[stationID]++
}

// Stations returns the stations in ascending ID order. The slice is
// shared; callers must not mutate it.
func (r *Registry) Stations() []*model.Station {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stations
}

// TotalBikes returns the number of bikes currently docked anywhere.
func (r *Registry) TotalBikes() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := 0
	for _, s := range r.stations {
		total += s.Bikes
	}
	return total
}

// BikeCounts returns a snapshot of docked bikes per station.
func (r *Registry) BikeCounts() map[int]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[int]int, len(r.stations))
	for _, s := range r.stations {
		counts[s.ID] = s.Bikes
	}
	return counts
}

// Usage returns a copy of the per-station usage tallies.
func (r *Registry) Usage() map[int]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return copyCounts(r.usage)
}

// Failures returns a copy of the per-station failure tallies.
func (r *Registry) Failures() map[int]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return copyCounts(r.failures)
}

func copyCounts(m map[int]int) map[int]int {
	out := make(map[int]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// DistanceKm is the great-circle distance between two lon/lat points in
// kilometres. It is the one walking/search metric used everywhere a
// proximity decision is made.
func DistanceKm(a, b orb.Point) float64 {
	return geo.DistanceHaversine(a, b) / 1000.0
}
