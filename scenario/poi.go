package scenario

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/antoniguss/bikesharing-simulation/internal/logging"
	"github.com/antoniguss/bikesharing-simulation/model"
)

// internal JSON shapes - kept unexported so the file format can evolve
// without touching the model types.
type poiJSON struct {
	Name     string            `json:"name,omitempty"`
	Lon      *float64          `json:"lon,omitempty"`
	Lat      *float64          `json:"lat,omitempty"`
	Geometry *geojson.Geometry `json:"geometry,omitempty"`
}

// LoadPOIDatabase reads the category -> POI list JSON database. Each
// record is either a point ("lon"/"lat") or an area (a GeoJSON polygon
// under "geometry"); records with neither are rejected.
func LoadPOIDatabase(r io.Reader) (map[string][]model.POI, error) {
	var payload map[string][]poiJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode POI database: %w", err)
	}

	pools := make(map[string][]model.POI, len(payload))
	for category, records := range payload {
		pool := make([]model.POI, 0, len(records))
		for i, rec := range records {
			switch {
			case rec.Geometry != nil:
				poly, ok := rec.Geometry.Geometry().(orb.Polygon)
				if !ok {
					return nil, fmt.Errorf("POI %q[%d]: geometry must be a polygon", category, i)
				}
				pool = append(pool, model.POI{Name: rec.Name, Area: poly})
			case rec.Lon != nil && rec.Lat != nil:
				pool = append(pool, model.POI{
					Name:  rec.Name,
					Point: orb.Point{*rec.Lon, *rec.Lat},
				})
			default:
				return nil, fmt.Errorf("POI %q[%d]: needs lon/lat or a polygon geometry", category, i)
			}
		}
		pools[category] = pool
	}
	return pools, nil
}

// SavePOIDatabase writes the pools back out in the same JSON format.
func SavePOIDatabase(w io.Writer, pools map[string][]model.POI) error {
	payload := make(map[string][]poiJSON, len(pools))
	for category, pool := range pools {
		records := make([]poiJSON, 0, len(pool))
		for _, p := range pool {
			if p.IsArea() {
				records = append(records, poiJSON{
					Name:     p.Name,
					Geometry: geojson.NewGeometry(p.Area),
				})
				continue
			}
			lon, lat := p.Point[0], p.Point[1]
			records = append(records, poiJSON{Name: p.Name, Lon: &lon, Lat: &lat})
		}
		payload[category] = records
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

// SummarizePOIDatabase logs per-category pool sizes, flagging empty
// categories. Empty pools are tolerated at run time (arrivals that sample
// them are skipped), but they are worth surfacing up front.
func SummarizePOIDatabase(ctx context.Context, log logging.Logger, pools map[string][]model.POI) {
	categories := make([]string, 0, len(pools))
	for c := range pools {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	for _, c := range categories {
		n := len(pools[c])
		if n == 0 {
			log.Warn(ctx, "POI category is empty; arrivals sampling it will be skipped",
				logging.String("category", c))
			continue
		}
		log.Info(ctx, "POI category loaded",
			logging.String("category", c),
			logging.Int("pois", n))
	}
}
