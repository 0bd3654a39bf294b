package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestSimCollectorRecordsTripOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewSimCollector(reg)
	if err != nil {
		t.Fatalf("NewSimCollector: %v", err)
	}

	collector.TripFinished("succeeded", 17.5)
	collector.TripFinished("succeeded", 8.0)
	collector.TripFinished("failed", 3.0)

	if got := testutil.ToFloat64(collector.TripsTotal.WithLabelValues("succeeded")); got != 2 {
		t.Errorf("sim_trips_total{outcome=succeeded} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.TripsTotal.WithLabelValues("failed")); got != 1 {
		t.Errorf("sim_trips_total{outcome=failed} = %v, want 1", got)
	}

	// Duration is only observed for successes.
	metric := &dto.Metric{}
	if err := collector.TripDuration.Write(metric); err != nil {
		t.Fatalf("write histogram: %v", err)
	}
	if got := metric.GetHistogram().GetSampleCount(); got != 2 {
		t.Errorf("sim_trip_duration_minutes sample count = %d, want 2", got)
	}
}

func TestSimCollectorArrivalAndGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewSimCollector(reg)
	if err != nil {
		t.Fatalf("NewSimCollector: %v", err)
	}

	collector.Arrival()
	collector.Arrival()
	collector.ArrivalSkipped()
	collector.RouteMiss()
	collector.SetDockedBikes(42)

	if got := testutil.ToFloat64(collector.ArrivalsTotal); got != 2 {
		t.Errorf("sim_arrivals_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.ArrivalsSkippedTotal); got != 1 {
		t.Errorf("sim_arrivals_skipped_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.RouteMissesTotal); got != 1 {
		t.Errorf("sim_route_lookup_misses_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.DockedBikes); got != 42 {
		t.Errorf("sim_docked_bikes = %v, want 42", got)
	}
}

func TestSimCollectorNilSafe(t *testing.T) {
	var collector *SimCollector
	collector.TripFinished("succeeded", 1)
	collector.Arrival()
	collector.ArrivalSkipped()
	collector.RouteMiss()
	collector.SetDockedBikes(5)
	if collector.Handler() == nil {
		t.Errorf("nil collector should still return a usable handler")
	}
}

func TestSimCollectorHandlerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewSimCollector(reg)
	if err != nil {
		t.Fatalf("NewSimCollector: %v", err)
	}
	collector.SetDockedBikes(7)

	srv := httptest.NewServer(collector.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(body), "sim_docked_bikes 7") {
		t.Errorf("metrics output missing sim_docked_bikes gauge:\n%s", body)
	}
}
