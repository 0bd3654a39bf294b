package model

import (
	"math/rand"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// POI is a categorized trip endpoint. It is a tagged variant: either a
// concrete point (a shop, a school) or an area polygon (a campus, a
// station district) from which a point is sampled per visit.
type POI struct {
	Name  string
	Point orb.Point
	Area  orb.Polygon // nil for point POIs
}

// IsArea reports whether the POI is an area polygon rather than a point.
func (p POI) IsArea() bool { return p.Area != nil }

// Sample returns a concrete coordinate for the POI. Point POIs return
// their fixed coordinate; area POIs draw uniformly from the polygon's
// bounding box, rejecting draws that fall outside the polygon.
func (p POI) Sample(rng *rand.Rand) orb.Point {
	if !p.IsArea() {
		return p.Point
	}
	bound := p.Area.Bound()
	for {
		pt := orb.Point{
			bound.Min[0] + rng.Float64()*(bound.Max[0]-bound.Min[0]),
			bound.Min[1] + rng.Float64()*(bound.Max[1]-bound.Min[1]),
		}
		if planar.PolygonContains(p.Area, pt) {
			return pt
		}
	}
}
