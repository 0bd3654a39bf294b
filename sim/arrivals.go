package sim

import (
	"context"
	"time"

	"github.com/antoniguss/bikesharing-simulation/internal/logging"
	"github.com/antoniguss/bikesharing-simulation/model"
)

// startArrivals kicks off the user arrival process. Arrivals form a
// Poisson process whose rate is piecewise-constant per hour of day: the
// gap to the next user is exponentially distributed around the current
// hour's rate. Hours with zero rate sleep to the next hour boundary.
// The process never terminates on its own; it is abandoned with
// everything else when the scheduler reaches the horizon.
func (e *Engine) startArrivals(ctx context.Context) {
	e.scheduleNextArrival(ctx)
}

func (e *Engine) scheduleNextArrival(ctx context.Context) {
	hour := hourOfDay(e.sched.Now())
	rate := e.weights.ArrivalRate(hour)

	if rate <= 0 {
		e.sched.After(untilNextHour(e.sched.Now()), func() { e.scheduleNextArrival(ctx) })
		return
	}

	gapMinutes := e.rng.ExpFloat64() / rate
	e.sched.After(time.Duration(gapMinutes*float64(time.Minute)), func() {
		e.metrics.Arrival()
		if user, ok := e.generateUser(ctx); ok {
			e.StartTrip(ctx, user)
		}
		e.scheduleNextArrival(ctx)
	})
}

// generateUser synthesizes a trip request for the current simulated hour.
// Origin and destination categories are sampled independently from the
// hour's POI weights, then a concrete coordinate is drawn from each
// category's pool. An empty pool skips this arrival: no user, no failure
// recorded, the generator just moves on.
func (e *Engine) generateUser(ctx context.Context) (model.User, bool) {
	hour := hourOfDay(e.sched.Now())
	originType := e.weights.SamplePOICategory(hour, e.rng)
	destType := e.weights.SamplePOICategory(hour, e.rng)

	originPOI, okO := e.pickPOI(originType)
	destPOI, okD := e.pickPOI(destType)
	if !okO || !okD {
		e.stats.ArrivalSkipped()
		e.metrics.ArrivalSkipped()
		e.log.Debug(ctx, "arrival skipped, empty POI pool",
			logging.String("origin_type", originType),
			logging.String("dest_type", destType),
		)
		return model.User{}, false
	}

	e.nextUserID++
	return model.User{
		ID:              e.nextUserID,
		Origin:          originPOI.Sample(e.rng),
		Destination:     destPOI.Sample(e.rng),
		OriginType:      originType,
		DestinationType: destType,
	}, true
}

func (e *Engine) pickPOI(category string) (model.POI, bool) {
	pool := e.pois[category]
	if len(pool) == 0 {
		return model.POI{}, false
	}
	return pool[e.rng.Intn(len(pool))], true
}
