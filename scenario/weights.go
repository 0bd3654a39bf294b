package scenario

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"
)

// fallbackRatePerMinute is used for hours absent from the time-weight
// table, matching the historical data set's behavior.
const fallbackRatePerMinute = 0.01

// WeightTable implements the simulation's weight model from two CSV
// tables: per-hour POI category weights and per-hour expected trip
// counts. It is immutable once loaded.
type WeightTable struct {
	categories []string
	// weights[h] is aligned with categories and normalized to sum to 1;
	// nil marks an hour whose raw weights summed to zero.
	weights [24][]float64
	rates   [24]float64
}

// LoadWeightTable parses both CSV tables.
//
// The POI weight table has a header row of hour labels (0-23, optionally
// prefixed "hour_") and one row per category. The time weight table has
// columns "hour" (hour_N) and "estimated_trips"; the arrival rate is
// trips per minute.
func LoadWeightTable(poiWeights, timeWeights io.Reader) (*WeightTable, error) {
	wt := &WeightTable{}
	for h := range wt.rates {
		wt.rates[h] = fallbackRatePerMinute
	}

	if err := wt.loadPOIWeights(poiWeights); err != nil {
		return nil, fmt.Errorf("poi weights: %w", err)
	}
	if err := wt.loadTimeWeights(timeWeights); err != nil {
		return nil, fmt.Errorf("time weights: %w", err)
	}
	return wt, nil
}

func (wt *WeightTable) loadPOIWeights(r io.Reader) error {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return err
	}
	if len(records) < 2 {
		return fmt.Errorf("table needs a header and at least one category row")
	}

	header := records[0]
	hourOf := make(map[int]int, len(header)-1) // column index -> hour
	for col := 1; col < len(header); col++ {
		hour, err := parseHourLabel(header[col])
		if err != nil {
			return fmt.Errorf("column %d: %w", col, err)
		}
		hourOf[col] = hour
	}

	raw := make(map[int][]float64, 24) // hour -> per-category weights
	for _, row := range records[1:] {
		if len(row) != len(header) {
			return fmt.Errorf("row for %q has %d columns, header has %d", row[0], len(row), len(header))
		}
		wt.categories = append(wt.categories, row[0])
		for col := 1; col < len(row); col++ {
			w, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64)
			if err != nil {
				return fmt.Errorf("category %q, hour %d: %w", row[0], hourOf[col], err)
			}
			if w < 0 {
				return fmt.Errorf("category %q, hour %d: negative weight %v", row[0], hourOf[col], w)
			}
			raw[hourOf[col]] = append(raw[hourOf[col]], w)
		}
	}

	for hour, ws := range raw {
		sum := 0.0
		for _, w := range ws {
			sum += w
		}
		if sum == 0 {
			// Leave nil: sampling falls back to a uniform choice.
			continue
		}
		normalized := make([]float64, len(ws))
		for i, w := range ws {
			normalized[i] = w / sum
		}
		wt.weights[hour] = normalized
	}
	return nil
}

func (wt *WeightTable) loadTimeWeights(r io.Reader) error {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("empty table")
	}

	tripsCol := -1
	for i, name := range records[0] {
		if strings.TrimSpace(name) == "estimated_trips" {
			tripsCol = i
		}
	}
	if tripsCol < 0 {
		return fmt.Errorf("missing estimated_trips column")
	}

	for _, row := range records[1:] {
		hour, err := parseHourLabel(row[0])
		if err != nil {
			return err
		}
		trips, err := strconv.ParseFloat(strings.TrimSpace(row[tripsCol]), 64)
		if err != nil {
			return fmt.Errorf("hour %d: %w", hour, err)
		}
		if trips < 0 {
			return fmt.Errorf("hour %d: negative trip count %v", hour, trips)
		}
		wt.rates[hour] = trips / 60.0
	}
	return nil
}

// ArrivalRate returns expected user arrivals per minute for the hour.
func (wt *WeightTable) ArrivalRate(hour int) float64 {
	return wt.rates[((hour%24)+24)%24]
}

// SamplePOICategory draws a category from the hour's normalized weights.
// Hours whose weights sum to zero fall back to a uniform draw over all
// known categories.
func (wt *WeightTable) SamplePOICategory(hour int, rng *rand.Rand) string {
	if len(wt.categories) == 0 {
		return ""
	}
	ws := wt.weights[((hour%24)+24)%24]
	if ws == nil {
		return wt.categories[rng.Intn(len(wt.categories))]
	}

	r := rng.Float64()
	cum := 0.0
	for i, w := range ws {
		cum += w
		if r <= cum {
			return wt.categories[i]
		}
	}
	// Floating-point slack: the cumulative sum can land a hair under 1.
	return wt.categories[len(wt.categories)-1]
}

// Categories returns the known POI categories in table order.
func (wt *WeightTable) Categories() []string {
	out := make([]string, len(wt.categories))
	copy(out, wt.categories)
	return out
}

func parseHourLabel(label string) (int, error) {
	s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(label), "hour_"))
	hour, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("bad hour label %q", label)
	}
	if hour < 0 || hour > 23 {
		return 0, fmt.Errorf("hour label %q outside 0-23", label)
	}
	return hour, nil
}
