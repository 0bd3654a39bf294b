package model

import (
	"math/rand"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

func TestPOI_SamplePoint(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	p := POI{Point: orb.Point{5.47, 51.44}}

	if p.IsArea() {
		t.Fatalf("point POI reported as area")
	}
	if got := p.Sample(rng); got != p.Point {
		t.Errorf("Sample = %v, want fixed point %v", got, p.Point)
	}
}

func TestPOI_SampleAreaStaysInsidePolygon(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	// L-shaped polygon so bounding-box rejection actually has to reject.
	poly := orb.Polygon{orb.Ring{
		{0, 0}, {2, 0}, {2, 1}, {1, 1}, {1, 2}, {0, 2}, {0, 0},
	}}
	p := POI{Name: "campus", Area: poly}

	if !p.IsArea() {
		t.Fatalf("area POI not reported as area")
	}
	for i := 0; i < 200; i++ {
		pt := p.Sample(rng)
		if !planar.PolygonContains(poly, pt) {
			t.Fatalf("sample %d fell outside the polygon: %v", i, pt)
		}
	}
}
