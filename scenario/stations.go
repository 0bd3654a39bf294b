package scenario

import (
	"fmt"
	"io"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/antoniguss/bikesharing-simulation/model"
)

// Defaults applied to station features that carry no explicit
// capacity/bikes properties, matching the historical data set.
const (
	defaultStationCapacity = 20
	defaultStationBikes    = 10
)

// LoadStations reads a GeoJSON FeatureCollection of stations. Point
// features are used as-is; polygon features collapse to their centroid.
// IDs are assigned in feature order and stay stable for the whole run.
//
// Recognised feature properties, all optional: "name" (string),
// "capacity" (int), "bikes" (int).
func LoadStations(r io.Reader) ([]*model.Station, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read stations: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("decode stations geojson: %w", err)
	}

	stations := make([]*model.Station, 0, len(fc.Features))
	for i, feat := range fc.Features {
		if feat.Geometry == nil {
			return nil, fmt.Errorf("station feature %d has no geometry", i)
		}

		var position orb.Point
		switch g := feat.Geometry.(type) {
		case orb.Point:
			position = g
		default:
			centroid, _ := planar.CentroidArea(g)
			position = centroid
		}

		capacity := feat.Properties.MustInt("capacity", defaultStationCapacity)
		bikes := feat.Properties.MustInt("bikes", defaultStationBikes)
		name := feat.Properties.MustString("name", fmt.Sprintf("Station_%d", i))

		if capacity <= 0 {
			return nil, fmt.Errorf("station feature %d (%s): capacity %d must be positive", i, name, capacity)
		}
		if bikes < 0 || bikes > capacity {
			return nil, fmt.Errorf("station feature %d (%s): bikes %d outside [0, %d]", i, name, bikes, capacity)
		}

		stations = append(stations, &model.Station{
			ID:            i,
			Position:      position,
			Capacity:      capacity,
			Bikes:         bikes,
			Neighbourhood: name,
		})
	}
	return stations, nil
}
