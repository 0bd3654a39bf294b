package sim

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/paulmach/orb"

	"github.com/antoniguss/bikesharing-simulation/internal/logging"
	"github.com/antoniguss/bikesharing-simulation/model"
)

// fakeRoutes is an in-memory route table for tests.
type fakeRoutes map[[2]int]model.Route

func (f fakeRoutes) Lookup(originID, destID int) (model.Route, bool) {
	r, ok := f[[2]int{originID, destID}]
	return r, ok
}

// fakeWeights returns a flat arrival rate and a single POI category.
type fakeWeights struct {
	rates      [24]float64
	categories []string
}

func (f fakeWeights) ArrivalRate(hour int) float64 { return f.rates[hour] }

func (f fakeWeights) SamplePOICategory(hour int, rng *rand.Rand) string {
	if len(f.categories) == 0 {
		return ""
	}
	return f.categories[rng.Intn(len(f.categories))]
}

func newTestEngine(t *testing.T, stations []*model.Station, routes RouteTable, maxWalkKm float64) *Engine {
	t.Helper()
	reg, err := NewRegistry(stations)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if routes == nil {
		routes = fakeRoutes{}
	}
	e, err := NewEngine(Config{
		StartTime:        6 * time.Hour,
		Duration:         24 * time.Hour,
		MaxWalkKm:        maxWalkKm,
		WalkingSpeedKmph: 5.0,
		Seed:             1,
	}, reg, routes, fakeWeights{}, nil, NewStats(), logging.Noop(), nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestTrip_SuccessfulJourney(t *testing.T) {
	// A full of bikes, B empty, colocated; the user starts at A and ends
	// at B, so both walks are zero-length.
	p := orb.Point{5.47, 51.44}
	a := &model.Station{ID: 0, Position: p, Capacity: 5, Bikes: 5}
	b := &model.Station{ID: 1, Position: p, Capacity: 5, Bikes: 0}
	table := fakeRoutes{{0, 1}: {DistanceKm: 2.5, DurationMin: 10}}

	e := newTestEngine(t, []*model.Station{a, b}, table, 1.0)
	e.StartTrip(context.Background(), model.User{ID: 1, Origin: p, Destination: p})
	e.sched.Run()

	if a.Bikes != 4 {
		t.Errorf("origin station bikes = %d, want 4", a.Bikes)
	}
	if b.Bikes != 1 {
		t.Errorf("destination station bikes = %d, want 1", b.Bikes)
	}

	totals := e.stats.Totals()
	if totals.SuccessfulTrips != 1 || totals.FailedTrips != 0 {
		t.Errorf("trips = %d success / %d failed, want 1/0", totals.SuccessfulTrips, totals.FailedTrips)
	}
	log := e.stats.TripLog()
	if len(log) != 1 {
		t.Fatalf("trip log has %d entries, want 1", len(log))
	}
	if log[0].CyclingKm != 2.5 {
		t.Errorf("logged cycling distance = %v, want 2.5", log[0].CyclingKm)
	}
	if log[0].DurationMinute != 10 {
		t.Errorf("logged duration = %v min, want 10", log[0].DurationMinute)
	}

	usage := e.reg.Usage()
	if usage[0] != 1 || usage[1] != 1 {
		t.Errorf("usage tallies = %v, want 1 for both stations", usage)
	}
}

func TestTrip_CompensationWhenDestinationFills(t *testing.T) {
	p := orb.Point{5.47, 51.44}
	a := &model.Station{ID: 0, Position: p, Capacity: 5, Bikes: 5}
	b := &model.Station{ID: 1, Position: p, Capacity: 5, Bikes: 0}
	table := fakeRoutes{{0, 1}: {DistanceKm: 2.5, DurationMin: 10}}

	e := newTestEngine(t, []*model.Station{a, b}, table, 1.0)
	e.StartTrip(context.Background(), model.User{ID: 1, Origin: p, Destination: p})

	// Fill the destination while the cyclist is en route.
	e.sched.After(5*time.Minute, func() { b.Bikes = b.Capacity })
	e.sched.Run()

	if a.Bikes != 5 {
		t.Errorf("origin bikes = %d after compensation, want 5", a.Bikes)
	}
	totals := e.stats.Totals()
	if totals.FailedTrips != 1 || totals.SuccessfulTrips != 0 {
		t.Errorf("trips = %d success / %d failed, want 0/1", totals.SuccessfulTrips, totals.FailedTrips)
	}
	if got := e.reg.Failures()[1]; got != 1 {
		t.Errorf("destination failure tally = %d, want 1", got)
	}
	if len(e.stats.TripLog()) != 0 {
		t.Errorf("failed trip must not reach the trip log")
	}
}

func TestTrip_FailsWhenOriginEmptiedDuringWalk(t *testing.T) {
	origin := orb.Point{5.47, 51.44}
	// Station ~0.55 km away so the walk takes simulated time.
	a := &model.Station{ID: 0, Position: orb.Point{5.47, 51.445}, Capacity: 5, Bikes: 1}
	b := &model.Station{ID: 1, Position: orb.Point{5.48, 51.46}, Capacity: 5, Bikes: 0}

	e := newTestEngine(t, []*model.Station{a, b}, nil, 10.0)
	e.StartTrip(context.Background(), model.User{ID: 1, Origin: origin, Destination: b.Position})

	// Drain the origin station before the walker gets there.
	e.sched.After(time.Minute, func() { a.Bikes = 0 })
	e.sched.Run()

	totals := e.stats.Totals()
	if totals.FailedTrips != 1 {
		t.Errorf("failed trips = %d, want 1", totals.FailedTrips)
	}
	if got := e.reg.Failures()[0]; got != 1 {
		t.Errorf("origin failure tally = %d, want 1", got)
	}
	if a.Bikes != 0 {
		t.Errorf("origin bikes = %d, want 0 (nothing taken)", a.Bikes)
	}
}

func TestTrip_FailsWhenNoStationHasBikes(t *testing.T) {
	p := orb.Point{5.47, 51.44}
	a := &model.Station{ID: 0, Position: p, Capacity: 5, Bikes: 0}

	e := newTestEngine(t, []*model.Station{a}, nil, 1.0)
	e.StartTrip(context.Background(), model.User{ID: 1, Origin: p, Destination: p})
	e.sched.Run()

	totals := e.stats.Totals()
	if totals.FailedTrips != 1 {
		t.Errorf("failed trips = %d, want 1", totals.FailedTrips)
	}
	if got := e.reg.Failures()[0]; got != 1 {
		t.Errorf("station failure tally = %d, want 1", got)
	}
}

func TestTrip_FailsWhenBothLookupsResolveToSameStation(t *testing.T) {
	p := orb.Point{5.47, 51.44}
	// One station with both a bike and space: both lookups return it.
	a := &model.Station{ID: 0, Position: p, Capacity: 5, Bikes: 2}

	e := newTestEngine(t, []*model.Station{a}, nil, 1.0)
	e.StartTrip(context.Background(), model.User{ID: 1, Origin: p, Destination: p})
	e.sched.Run()

	totals := e.stats.Totals()
	if totals.FailedTrips != 1 {
		t.Errorf("failed trips = %d, want 1", totals.FailedTrips)
	}
	if a.Bikes != 2 {
		t.Errorf("station bikes = %d, want 2 (no mutation)", a.Bikes)
	}
}

func TestTrip_FailsOnWalkingBudget(t *testing.T) {
	// Stations ~2.2 km from the user's endpoints; budget is 1 km total.
	a := &model.Station{ID: 0, Position: orb.Point{5.47, 51.44}, Capacity: 5, Bikes: 5}
	b := &model.Station{ID: 1, Position: orb.Point{5.47, 51.50}, Capacity: 5, Bikes: 0}

	e := newTestEngine(t, []*model.Station{a, b}, nil, 1.0)
	e.StartTrip(context.Background(), model.User{
		ID:          1,
		Origin:      orb.Point{5.47, 51.42}, // ~2.2 km south of a
		Destination: orb.Point{5.47, 51.52}, // ~2.2 km north of b
	})
	e.sched.Run()

	totals := e.stats.Totals()
	if totals.FailedTrips != 1 {
		t.Errorf("failed trips = %d, want 1", totals.FailedTrips)
	}
	failures := e.reg.Failures()
	if failures[0] != 0 || failures[1] != 0 {
		t.Errorf("failure tallies = %v, want none (no station at fault)", failures)
	}
	if a.Bikes != 5 || b.Bikes != 0 {
		t.Errorf("station state mutated by a budget failure")
	}
}

func TestTrip_MissingRouteEntryDegradesToZero(t *testing.T) {
	p := orb.Point{5.47, 51.44}
	a := &model.Station{ID: 0, Position: p, Capacity: 5, Bikes: 5}
	b := &model.Station{ID: 1, Position: p, Capacity: 5, Bikes: 0}

	e := newTestEngine(t, []*model.Station{a, b}, fakeRoutes{}, 1.0)
	e.StartTrip(context.Background(), model.User{ID: 1, Origin: p, Destination: p})
	e.sched.Run()

	totals := e.stats.Totals()
	if totals.SuccessfulTrips != 1 {
		t.Errorf("successful trips = %d, want 1 despite missing route", totals.SuccessfulTrips)
	}
	if totals.RouteLookupMisses != 1 {
		t.Errorf("route lookup misses = %d, want 1", totals.RouteLookupMisses)
	}
	log := e.stats.TripLog()
	if len(log) != 1 || log[0].CyclingKm != 0 {
		t.Errorf("expected a logged trip with zero cycling distance, got %+v", log)
	}
}

// Bike conservation: across any mix of successes, failures, and
// compensations, no trip ever creates or destroys a bike. All journeys
// here resolve before the horizon, so in-flight loss does not apply.
func TestTrip_BikeCountConserved(t *testing.T) {
	stations := []*model.Station{
		{ID: 0, Position: orb.Point{5.47, 51.440}, Capacity: 3, Bikes: 3},
		{ID: 1, Position: orb.Point{5.47, 51.445}, Capacity: 3, Bikes: 1},
		{ID: 2, Position: orb.Point{5.47, 51.450}, Capacity: 2, Bikes: 0},
		{ID: 3, Position: orb.Point{5.47, 51.455}, Capacity: 4, Bikes: 4},
	}
	table := fakeRoutes{}
	for _, o := range stations {
		for _, d := range stations {
			if o.ID != d.ID {
				table[[2]int{o.ID, d.ID}] = model.Route{DistanceKm: 1, DurationMin: 4}
			}
		}
	}

	e := newTestEngine(t, stations, table, 5.0)
	before := e.reg.TotalBikes()

	rng := rand.New(rand.NewSource(7))
	points := []orb.Point{
		{5.47, 51.440}, {5.47, 51.445}, {5.47, 51.450}, {5.47, 51.455},
	}
	for i := 0; i < 40; i++ {
		user := model.User{
			ID:          i,
			Origin:      points[rng.Intn(len(points))],
			Destination: points[rng.Intn(len(points))],
		}
		delay := time.Duration(rng.Intn(120)) * time.Minute
		e.sched.After(delay, func() { e.StartTrip(context.Background(), user) })
	}
	e.sched.Run()

	if after := e.reg.TotalBikes(); after != before {
		t.Errorf("total bikes = %d after run, want %d conserved", after, before)
	}
	for _, s := range stations {
		if s.Bikes < 0 || s.Bikes > s.Capacity {
			t.Errorf("station %d bikes = %d outside [0, %d]", s.ID, s.Bikes, s.Capacity)
		}
	}

	totals := e.stats.Totals()
	if totals.SuccessfulTrips+totals.FailedTrips != totals.SpawnedTrips {
		t.Errorf("success %d + failed %d != spawned %d",
			totals.SuccessfulTrips, totals.FailedTrips, totals.SpawnedTrips)
	}
	if totals.SpawnedTrips != 40 {
		t.Errorf("spawned trips = %d, want 40", totals.SpawnedTrips)
	}
}

// Every logged trip must respect the walking budget.
func TestTrip_LoggedWalksWithinBudget(t *testing.T) {
	stations := []*model.Station{
		{ID: 0, Position: orb.Point{5.47, 51.440}, Capacity: 5, Bikes: 5},
		{ID: 1, Position: orb.Point{5.47, 51.460}, Capacity: 5, Bikes: 2},
	}
	e := newTestEngine(t, stations, nil, 1.0)

	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 25; i++ {
		user := model.User{
			ID:          i,
			Origin:      orb.Point{5.47, 51.43 + rng.Float64()*0.04},
			Destination: orb.Point{5.47, 51.43 + rng.Float64()*0.04},
		}
		e.sched.After(time.Duration(i)*time.Minute, func() { e.StartTrip(context.Background(), user) })
	}
	e.sched.Run()

	for i, rec := range e.stats.TripLog() {
		if rec.WalkingKm > 1.0 {
			t.Errorf("trip %d walked %.3f km, above the 1.0 km budget", i, rec.WalkingKm)
		}
	}
}
