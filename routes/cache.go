package routes

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/antoniguss/bikesharing-simulation/model"
)

// Cache file shapes, unexported so the on-disk format can evolve.
type cacheEntryJSON struct {
	Origin      int               `json:"origin"`
	Dest        int               `json:"dest"`
	DistanceKm  float64           `json:"distance_km"`
	DurationMin float64           `json:"duration_min"`
	Geometry    *geojson.Geometry `json:"geometry,omitempty"`
}

type cacheMetaJSON struct {
	StationFileHash string `json:"station_file_hash"`
}

// HashFile returns the MD5 hex digest of a file, or "" if it cannot be
// read. The hash only guards cache freshness, it is not a security
// boundary.
func HashFile(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return ""
	}
	return hex.EncodeToString(h.Sum(nil))
}

// LoadCache reads a previously saved table, but only when the sidecar
// meta file records the same station-file hash; a mismatch means the
// station catalog changed and the cache is stale. ok is false when the
// cache is absent, stale, or unreadable - all of which just mean
// "rebuild".
func LoadCache(cachePath, metaPath, stationHash string) (*Table, bool) {
	rawMeta, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, false
	}
	var meta cacheMetaJSON
	if err := json.Unmarshal(rawMeta, &meta); err != nil {
		return nil, false
	}
	if stationHash == "" || meta.StationFileHash != stationHash {
		return nil, false
	}

	raw, err := os.ReadFile(cachePath)
	if err != nil {
		return nil, false
	}
	var entries []cacheEntryJSON
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false
	}

	t := NewTable()
	for _, e := range entries {
		route := model.Route{
			DistanceKm:  e.DistanceKm,
			DurationMin: e.DurationMin,
		}
		if e.Geometry != nil {
			if ls, ok := e.Geometry.Geometry().(orb.LineString); ok {
				route.Geometry = ls
			}
		}
		t.Add(e.Origin, e.Dest, route)
	}
	return t, true
}

// SaveCache writes the table and its meta sidecar, creating parent
// directories as needed.
func SaveCache(t *Table, cachePath, metaPath, stationHash string) error {
	entries := make([]cacheEntryJSON, 0, len(t.routes))
	for key, route := range t.routes {
		e := cacheEntryJSON{
			Origin:      key.Origin,
			Dest:        key.Dest,
			DistanceKm:  route.DistanceKm,
			DurationMin: route.DurationMin,
		}
		if route.Geometry != nil {
			e.Geometry = geojson.NewGeometry(route.Geometry)
		}
		entries = append(entries, e)
	}

	if err := os.MkdirAll(filepath.Dir(cachePath), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode route cache: %w", err)
	}
	if err := os.WriteFile(cachePath, raw, 0o644); err != nil {
		return fmt.Errorf("write route cache: %w", err)
	}

	rawMeta, err := json.Marshal(cacheMetaJSON{StationFileHash: stationHash})
	if err != nil {
		return fmt.Errorf("encode cache meta: %w", err)
	}
	if err := os.WriteFile(metaPath, rawMeta, 0o644); err != nil {
		return fmt.Errorf("write cache meta: %w", err)
	}
	return nil
}
