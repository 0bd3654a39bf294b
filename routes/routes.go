// Package routes provides the station-to-station cycling route table:
// for every ordered pair of distinct stations, a distance, a duration,
// and a path geometry. The table is built once per scenario and is
// read-only for the whole run.
package routes

import (
	"github.com/paulmach/orb"

	"github.com/antoniguss/bikesharing-simulation/model"
	"github.com/antoniguss/bikesharing-simulation/sim"
)

type pairKey struct {
	Origin int
	Dest   int
}

// Table maps ordered station pairs to cycling routes.
type Table struct {
	routes map[pairKey]model.Route
}

// NewTable builds an empty table.
func NewTable() *Table {
	return &Table{routes: make(map[pairKey]model.Route)}
}

// Lookup returns the route from origin to dest, if the table has one.
func (t *Table) Lookup(originID, destID int) (model.Route, bool) {
	route, ok := t.routes[pairKey{originID, destID}]
	return route, ok
}

// Add inserts or replaces the route for an ordered station pair.
func (t *Table) Add(originID, destID int, route model.Route) {
	t.routes[pairKey{originID, destID}] = route
}

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.routes) }

// EstimatorConfig shapes the crow-flight route estimator.
type EstimatorConfig struct {
	// CyclingSpeedKmph converts estimated distance to duration.
	CyclingSpeedKmph float64
	// DetourFactor scales great-circle distance up to an approximate
	// street distance.
	DetourFactor float64
}

// Build fills a table with estimated routes for every ordered pair of
// distinct stations: haversine distance scaled by the detour factor, a
// duration from the configured cycling speed, and a straight-line
// geometry. It stands in for a street-network or routing-service
// precompute, which plugs in through the same table.
func Build(stations []*model.Station, cfg EstimatorConfig) *Table {
	t := NewTable()
	for _, origin := range stations {
		for _, dest := range stations {
			if origin.ID == dest.ID {
				continue
			}
			km := sim.DistanceKm(origin.Position, dest.Position) * cfg.DetourFactor
			t.Add(origin.ID, dest.ID, model.Route{
				DistanceKm:  km,
				DurationMin: km / cfg.CyclingSpeedKmph * 60,
				Geometry:    orb.LineString{origin.Position, dest.Position},
			})
		}
	}
	return t
}
