package stats

import "github.com/soltixdb/popstats/internal/dataset"

// JoinedRow pairs a series row with one population row of the same year.
// Population is nil when no population row matches.
type JoinedRow struct {
	Series     dataset.SeriesRecord
	Population *dataset.PopulationRecord
}

// JoinByYear left-joins series rows to population rows on year. Each series
// row yields one row per matching population row, in population order, so a
// population row is repeated for every series row sharing its year. Series
// rows without a match yield a single row with a nil Population.
func JoinByYear(series []dataset.SeriesRecord, population []dataset.PopulationRecord) []JoinedRow {
	byYear := make(map[int][]int, len(population))
	for i, p := range population {
		byYear[p.Year] = append(byYear[p.Year], i)
	}

	out := make([]JoinedRow, 0, len(series))
	for _, s := range series {
		matches := byYear[s.Year]
		if len(matches) == 0 {
			out = append(out, JoinedRow{Series: s})
			continue
		}
		for _, idx := range matches {
			out = append(out, JoinedRow{Series: s, Population: &population[idx]})
		}
	}
	return out
}
