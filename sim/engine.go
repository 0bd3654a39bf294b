package sim

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"github.com/antoniguss/bikesharing-simulation/internal/logging"
	"github.com/antoniguss/bikesharing-simulation/internal/observability"
	"github.com/antoniguss/bikesharing-simulation/model"
)

// WeightModel supplies the time-of-day demand shape: how often users
// appear and which POI categories they travel between, per hour 0-23.
type WeightModel interface {
	// ArrivalRate returns the expected user arrivals per minute.
	ArrivalRate(hour int) float64
	// SamplePOICategory draws a POI category from the hour's weighted
	// distribution using the provided RNG.
	SamplePOICategory(hour int, rng *rand.Rand) string
}

// RouteTable supplies the precomputed cycling leg between an ordered pair
// of stations. A missing entry is an expected data-quality case.
type RouteTable interface {
	Lookup(originID, destID int) (model.Route, bool)
}

// Config carries the simulation parameters. All times are simulated.
type Config struct {
	// StartTime is the offset from simulated midnight at which the run
	// begins; Duration is how long it lasts.
	StartTime time.Duration
	Duration  time.Duration

	// MaxWalkKm is the combined walking distance a user tolerates before
	// giving up on the trip.
	MaxWalkKm float64

	// WalkingSpeedKmph converts walking distance to duration.
	WalkingSpeedKmph float64

	// SnapshotInterval is how often station bike counts are recorded for
	// reporting. Zero disables snapshots.
	SnapshotInterval time.Duration

	// Seed fixes the run's randomness. Two runs with equal seeds and
	// equal inputs produce identical trip logs and final station states.
	Seed int64
}

func (c Config) validate() error {
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %v", c.Duration)
	}
	if c.MaxWalkKm <= 0 {
		return fmt.Errorf("max walking distance must be positive, got %v", c.MaxWalkKm)
	}
	if c.WalkingSpeedKmph <= 0 {
		return fmt.Errorf("walking speed must be positive, got %v", c.WalkingSpeedKmph)
	}
	return nil
}

// Engine wires the registry, route table, weight model, and POI pools
// into one simulation run driven by the discrete-event scheduler.
type Engine struct {
	RunID string

	cfg     Config
	sched   *Scheduler
	reg     *Registry
	routes  RouteTable
	weights WeightModel
	pois    map[string][]model.POI
	stats   *Stats
	rng     *rand.Rand
	log     logging.Logger
	metrics *observability.SimCollector

	nextUserID int
}

// NewEngine validates the configuration and collaborators and assembles a
// run. Fatal configuration problems (no stations, zero capacity, bad
// parameters) surface here, before any simulated time passes.
func NewEngine(
	cfg Config,
	reg *Registry,
	routes RouteTable,
	weights WeightModel,
	pois map[string][]model.POI,
	stats *Stats,
	log logging.Logger,
	metrics *observability.SimCollector,
) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("simulation config: %w", err)
	}
	if reg == nil {
		return nil, fmt.Errorf("station registry is required")
	}
	if routes == nil {
		return nil, fmt.Errorf("route table is required")
	}
	if weights == nil {
		return nil, fmt.Errorf("weight model is required")
	}
	if stats == nil {
		stats = NewStats()
	}
	if log == nil {
		log = logging.Noop()
	}

	runID := uuid.NewString()
	return &Engine{
		RunID:   runID,
		cfg:     cfg,
		sched:   NewScheduler(cfg.StartTime, cfg.Duration),
		reg:     reg,
		routes:  routes,
		weights: weights,
		pois:    pois,
		stats:   stats,
		rng:     rand.New(rand.NewSource(cfg.Seed)),
		log:     log.With(logging.String("run_id", runID)),
		metrics: metrics,
	}, nil
}

// Run executes the simulation to its horizon and returns the statistics
// record. The context is used for logging only; the run itself is not
// cancellable mid-flight, matching the single-cancellation-point model
// (the horizon).
func (e *Engine) Run(ctx context.Context) *Stats {
	e.log.Info(ctx, "starting simulation",
		logging.String("start", e.cfg.StartTime.String()),
		logging.String("duration", e.cfg.Duration.String()),
		logging.Int("stations", len(e.reg.Stations())),
		logging.Int("docked_bikes", e.reg.TotalBikes()),
	)

	e.startArrivals(ctx)
	if e.cfg.SnapshotInterval > 0 {
		e.snapshotBikes(ctx)
	}

	dispatched := e.sched.Run()

	e.metrics.SetDockedBikes(e.reg.TotalBikes())
	totals := e.stats.Totals()
	e.log.Info(ctx, "simulation finished",
		logging.Int("events_dispatched", dispatched),
		logging.Int("successful_trips", totals.SuccessfulTrips),
		logging.Int("failed_trips", totals.FailedTrips),
		logging.Int("abandoned_events", e.sched.Pending()),
	)
	return e.stats
}

// Clock exposes the engine's simulated clock.
func (e *Engine) Clock() Clock { return e.sched }

// Registry exposes the station registry for reporting.
func (e *Engine) Registry() *Registry { return e.reg }

// snapshotBikes records per-station bike counts now and again every
// snapshot interval. It only observes; it never mutates station state.
func (e *Engine) snapshotBikes(ctx context.Context) {
	hour := int(e.sched.Now() / time.Hour)
	e.stats.SnapshotBikes(hour, e.reg.BikeCounts())
	e.metrics.SetDockedBikes(e.reg.TotalBikes())
	e.sched.After(e.cfg.SnapshotInterval, func() { e.snapshotBikes(ctx) })
}

// walkingInfo converts a straight-line walk into distance and duration.
func (e *Engine) walkingInfo(from, to orb.Point) (float64, time.Duration) {
	km := DistanceKm(from, to)
	minutes := km / e.cfg.WalkingSpeedKmph * 60
	return km, time.Duration(minutes * float64(time.Minute))
}

// cyclingInfo resolves the cycling leg between two stations. A missing
// route entry degrades to a zero-length leg so the trip stays
// completable; the miss is counted for visibility.
func (e *Engine) cyclingInfo(ctx context.Context, originID, destID int) model.Route {
	route, ok := e.routes.Lookup(originID, destID)
	if !ok {
		e.stats.RouteLookupMissed()
		e.metrics.RouteMiss()
		e.log.Debug(ctx, "no route table entry",
			logging.Int("origin_station", originID),
			logging.Int("dest_station", destID),
		)
		return model.Route{}
	}
	return route
}
