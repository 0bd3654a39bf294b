package sim

import (
	"context"
	"time"

	"github.com/antoniguss/bikesharing-simulation/internal/logging"
	"github.com/antoniguss/bikesharing-simulation/model"
)

// trip is one user's journey: walk to a station, cycle, walk on. Each
// stage is a scheduler callback; between callbacks the trip is suspended
// and other journeys may drain or fill its stations, which is why bike
// availability is re-checked at each physical arrival rather than locked
// in up front.
type trip struct {
	e    *Engine
	user model.User

	origin *model.Station
	dest   *model.Station

	walkToKm    float64
	walkFromKm  float64
	walkToDur   time.Duration
	walkFromDur time.Duration
	cycling     model.Route

	startedAt time.Duration
}

// StartTrip spawns a journey for the user. It runs the read-only search
// and the walking-budget check immediately; any station mutation happens
// later, when the user physically reaches a station.
func (e *Engine) StartTrip(ctx context.Context, user model.User) {
	e.stats.TripSpawned()

	t := &trip{e: e, user: user, startedAt: e.sched.Now()}
	t.search(ctx)
}

// search resolves both stations before anything is committed. Either
// lookup failing, or both resolving to the same station, fails the trip
// with no mutation to roll back.
func (t *trip) search(ctx context.Context) {
	e := t.e

	origin, okO := e.reg.FindNearestWithBike(t.user.Origin)
	dest, okD := e.reg.FindNearestWithSpace(t.user.Destination)
	if !okO || !okD || origin.ID == dest.ID {
		t.fail(ctx, "no usable station pair")
		return
	}
	t.origin, t.dest = origin, dest

	t.walkToKm, t.walkToDur = e.walkingInfo(t.user.Origin, origin.Position)
	t.walkFromKm, t.walkFromDur = e.walkingInfo(dest.Position, t.user.Destination)
	t.cycling = e.cyclingInfo(ctx, origin.ID, dest.ID)

	if t.walkToKm+t.walkFromKm > e.cfg.MaxWalkKm {
		// The user gives up before touching any station, so no station
		// is charged with a failure.
		t.fail(ctx, "walking budget exceeded")
		return
	}

	e.sched.After(t.walkToDur, func() { t.arriveAtOrigin(ctx) })
}

// arriveAtOrigin fires when the user reaches the origin station. The
// station may have been emptied by other journeys during the walk.
func (t *trip) arriveAtOrigin(ctx context.Context) {
	e := t.e

	if !e.reg.TakeBike(t.origin) {
		e.reg.RecordFailure(t.origin.ID)
		t.fail(ctx, "origin station emptied during walk")
		return
	}

	cycleDur := time.Duration(t.cycling.DurationMin * float64(time.Minute))
	e.sched.After(cycleDur, func() { t.arriveAtDestination(ctx) })
}

// arriveAtDestination fires when the cyclist reaches the destination
// station. A full station triggers compensation: the bike taken at the
// origin goes back, keeping the system-wide bike count intact.
func (t *trip) arriveAtDestination(ctx context.Context) {
	e := t.e

	if !e.reg.ReturnBike(t.dest) {
		// The origin had a free slot the instant the bike left it, and
		// nothing else ran since this callback started, so the
		// compensating return cannot fail.
		e.reg.ReturnBike(t.origin)
		e.reg.RecordFailure(t.dest.ID)
		t.fail(ctx, "destination station filled during ride")
		return
	}

	e.sched.After(t.walkFromDur, func() { t.complete(ctx) })
}

// complete fires when the user reaches their final destination.
func (t *trip) complete(ctx context.Context) {
	e := t.e

	rec := model.TripRecord{
		UserID:          t.user.ID,
		UserOrigin:      t.user.Origin,
		OriginStation:   t.origin.Position,
		DestStation:     t.dest.Position,
		UserDestination: t.user.Destination,
		OriginStationID: t.origin.ID,
		DestStationID:   t.dest.ID,
		WalkingKm:       t.walkToKm + t.walkFromKm,
		CyclingKm:       t.cycling.DistanceKm,
		Geometry:        t.cycling.Geometry,
		StartMinute:     t.startedAt.Minutes(),
		DurationMinute:  (e.sched.Now() - t.startedAt).Minutes(),
	}
	e.stats.TripSucceeded(rec)
	e.reg.RecordUsage(t.origin.ID)
	e.reg.RecordUsage(t.dest.ID)
	e.metrics.TripFinished("succeeded", rec.DurationMinute)

	e.log.Debug(ctx, "trip succeeded",
		logging.Int("user_id", t.user.ID),
		logging.Int("origin_station", t.origin.ID),
		logging.Int("dest_station", t.dest.ID),
	)
}

func (t *trip) fail(ctx context.Context, reason string) {
	e := t.e
	e.stats.TripFailed()
	e.metrics.TripFinished("failed", (e.sched.Now() - t.startedAt).Minutes())
	e.log.Debug(ctx, "trip failed",
		logging.Int("user_id", t.user.ID),
		logging.String("reason", reason),
	)
}
