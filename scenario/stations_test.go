package scenario

import (
	"math"
	"strings"
	"testing"
)

const stationsGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "geometry": {"type": "Point", "coordinates": [5.47, 51.44]},
      "properties": {"name": "Centrum", "capacity": 30, "bikes": 12}
    },
    {
      "type": "Feature",
      "geometry": {"type": "Point", "coordinates": [5.48, 51.45]},
      "properties": {}
    },
    {
      "type": "Feature",
      "geometry": {
        "type": "Polygon",
        "coordinates": [[[5.0, 51.0], [5.2, 51.0], [5.2, 51.2], [5.0, 51.2], [5.0, 51.0]]]
      },
      "properties": {"name": "Plein"}
    }
  ]
}`

func TestLoadStations(t *testing.T) {
	stations, err := LoadStations(strings.NewReader(stationsGeoJSON))
	if err != nil {
		t.Fatalf("LoadStations: %v", err)
	}
	if len(stations) != 3 {
		t.Fatalf("loaded %d stations, want 3", len(stations))
	}

	s := stations[0]
	if s.ID != 0 || s.Neighbourhood != "Centrum" || s.Capacity != 30 || s.Bikes != 12 {
		t.Errorf("station 0 = %+v, want Centrum 12/30", s)
	}
	if s.Position[0] != 5.47 || s.Position[1] != 51.44 {
		t.Errorf("station 0 position = %v", s.Position)
	}

	// Missing properties take the defaults, including a generated name.
	s = stations[1]
	if s.Capacity != defaultStationCapacity || s.Bikes != defaultStationBikes {
		t.Errorf("station 1 = %d/%d, want defaults %d/%d",
			s.Bikes, s.Capacity, defaultStationBikes, defaultStationCapacity)
	}
	if s.Neighbourhood != "Station_1" {
		t.Errorf("station 1 name = %q, want generated Station_1", s.Neighbourhood)
	}

	// A polygon feature collapses to its centroid.
	s = stations[2]
	if math.Abs(s.Position[0]-5.1) > 1e-9 || math.Abs(s.Position[1]-51.1) > 1e-9 {
		t.Errorf("polygon station centroid = %v, want (5.1, 51.1)", s.Position)
	}
}

func TestLoadStations_Errors(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"not geojson", `{"type": 12}`},
		{
			"no geometry",
			`{"type": "FeatureCollection", "features": [{"type": "Feature", "properties": {}}]}`,
		},
		{
			"zero capacity",
			`{"type": "FeatureCollection", "features": [{
				"type": "Feature",
				"geometry": {"type": "Point", "coordinates": [5.47, 51.44]},
				"properties": {"capacity": 0}
			}]}`,
		},
		{
			"bikes above capacity",
			`{"type": "FeatureCollection", "features": [{
				"type": "Feature",
				"geometry": {"type": "Point", "coordinates": [5.47, 51.44]},
				"properties": {"capacity": 10, "bikes": 11}
			}]}`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadStations(strings.NewReader(tc.body)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
