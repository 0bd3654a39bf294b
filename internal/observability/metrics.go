package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SimCollector bundles the Prometheus metrics the simulation engine
// drives: trip outcomes, arrival activity, and the system-wide docked
// bike count. All record methods tolerate a nil collector so the engine
// can run without metrics wired.
type SimCollector struct {
	gatherer prometheus.Gatherer

	TripsTotal   *prometheus.CounterVec
	TripDuration prometheus.Histogram

	ArrivalsTotal        prometheus.Counter
	ArrivalsSkippedTotal prometheus.Counter
	RouteMissesTotal     prometheus.Counter

	DockedBikes prometheus.Gauge
}

// NewSimCollector registers the simulation metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewSimCollector(reg prometheus.Registerer) (*SimCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	trips := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_trips_total",
		Help: "Total number of resolved trips, labeled by outcome (succeeded or failed).",
	}, []string{"outcome"})
	trips, err := registerCounterVec(reg, trips, "sim_trips_total")
	if err != nil {
		return nil, err
	}

	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sim_trip_duration_minutes",
		Help:    "Door-to-door duration of successful trips in simulated minutes.",
		Buckets: []float64{2, 5, 10, 15, 20, 30, 45, 60, 90, 120},
	})
	duration, err = registerHistogram(reg, duration, "sim_trip_duration_minutes")
	if err != nil {
		return nil, err
	}

	arrivals, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_arrivals_total",
		Help: "Total user arrivals produced by the arrival process.",
	}), "sim_arrivals_total")
	if err != nil {
		return nil, err
	}
	skipped, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_arrivals_skipped_total",
		Help: "Arrivals dropped because a sampled POI category had no entries.",
	}), "sim_arrivals_skipped_total")
	if err != nil {
		return nil, err
	}
	misses, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_route_lookup_misses_total",
		Help: "Station pairs requested from the route table with no entry.",
	}), "sim_route_lookup_misses_total")
	if err != nil {
		return nil, err
	}

	docked, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_docked_bikes",
		Help: "Bikes currently docked across all stations.",
	}), "sim_docked_bikes")
	if err != nil {
		return nil, err
	}

	return &SimCollector{
		gatherer:             gatherer,
		TripsTotal:           trips,
		TripDuration:         duration,
		ArrivalsTotal:        arrivals,
		ArrivalsSkippedTotal: skipped,
		RouteMissesTotal:     misses,
		DockedBikes:          docked,
	}, nil
}

// TripFinished records a resolved trip. Duration is only observed for
// successful trips; failures resolve at whatever point they gave up.
func (c *SimCollector) TripFinished(outcome string, durationMinutes float64) {
	if c == nil {
		return
	}
	if c.TripsTotal != nil {
		c.TripsTotal.WithLabelValues(outcome).Inc()
	}
	if outcome == "succeeded" && c.TripDuration != nil {
		c.TripDuration.Observe(durationMinutes)
	}
}

// Arrival records one user arrival.
func (c *SimCollector) Arrival() {
	if c == nil || c.ArrivalsTotal == nil {
		return
	}
	c.ArrivalsTotal.Inc()
}

// ArrivalSkipped records an arrival dropped for lack of POI data.
func (c *SimCollector) ArrivalSkipped() {
	if c == nil || c.ArrivalsSkippedTotal == nil {
		return
	}
	c.ArrivalsSkippedTotal.Inc()
}

// RouteMiss records a route-table lookup with no entry.
func (c *SimCollector) RouteMiss() {
	if c == nil || c.RouteMissesTotal == nil {
		return
	}
	c.RouteMissesTotal.Inc()
}

// SetDockedBikes updates the docked-bike gauge.
func (c *SimCollector) SetDockedBikes(n int) {
	if c == nil || c.DockedBikes == nil {
		return
	}
	c.DockedBikes.Set(float64(n))
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SimCollector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
