package stats

import (
	"math"
	"sort"

	"github.com/soltixdb/popstats/internal/dataset"
)

// PeakYear is the year in which a series reached its largest summed value
type PeakYear struct {
	SeriesID string  `json:"series_id"`
	Year     int     `json:"year"`
	Value    float64 `json:"value"`
}

type seriesYear struct {
	seriesID string
	year     int
}

// PeakYears sums Value per (series_id, year) and keeps, for every series,
// the year with the largest sum. NaN and infinite values are left out of
// the sum, so a year holding only such values sums to zero.
//
// Groups are ordered by series_id then year. They are stably sorted by sum
// descending and the first group per series wins, so ties resolve to the
// earliest year. The result is ordered by series_id.
func PeakYears(records []dataset.SeriesRecord) []PeakYear {
	sums := make(map[seriesYear]float64)
	for _, r := range records {
		v := r.Value
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		sums[seriesYear{r.SeriesID, r.Year}] += v
	}

	groups := make([]PeakYear, 0, len(sums))
	for k, v := range sums {
		groups = append(groups, PeakYear{SeriesID: k.seriesID, Year: k.year, Value: v})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].SeriesID != groups[j].SeriesID {
			return groups[i].SeriesID < groups[j].SeriesID
		}
		return groups[i].Year < groups[j].Year
	})

	byValue := make([]PeakYear, len(groups))
	copy(byValue, groups)
	sort.SliceStable(byValue, func(i, j int) bool {
		return byValue[i].Value > byValue[j].Value
	})

	best := make(map[string]PeakYear, len(groups))
	for _, g := range byValue {
		if _, seen := best[g.SeriesID]; !seen {
			best[g.SeriesID] = g
		}
	}

	out := make([]PeakYear, 0, len(best))
	for _, g := range groups {
		if b, ok := best[g.SeriesID]; ok && b.Year == g.Year {
			out = append(out, b)
		}
	}
	return out
}
