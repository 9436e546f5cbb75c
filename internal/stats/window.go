package stats

import (
	"github.com/montanaflynn/stats"

	"github.com/soltixdb/popstats/internal/dataset"
)

// Window is an inclusive year range
type Window struct {
	Start int
	End   int
}

// Contains reports whether year falls inside the window
func (w Window) Contains(year int) bool {
	return year >= w.Start && year <= w.End
}

// Summary holds the population statistics of one window. Mean is nil when
// the window is empty; StdDev is nil when it holds fewer than two rows,
// since the sample standard deviation is undefined there.
type Summary struct {
	Window Window
	Count  int
	Mean   *float64
	StdDev *float64
}

// FilterWindow returns the rows whose year falls inside w, in input order
func FilterWindow(records []dataset.PopulationRecord, w Window) []dataset.PopulationRecord {
	var out []dataset.PopulationRecord
	for _, r := range records {
		if w.Contains(r.Year) {
			out = append(out, r)
		}
	}
	return out
}

// SummarizePopulation computes the arithmetic mean and the sample standard
// deviation (n-1 denominator) of Population over the rows inside w.
func SummarizePopulation(records []dataset.PopulationRecord, w Window) Summary {
	inWindow := FilterWindow(records, w)

	values := make(stats.Float64Data, len(inWindow))
	for i, r := range inWindow {
		values[i] = float64(r.Population)
	}

	summary := Summary{Window: w, Count: len(values)}
	if len(values) == 0 {
		return summary
	}

	if mean, err := stats.Mean(values); err == nil {
		summary.Mean = &mean
	}
	if len(values) >= 2 {
		if sd, err := stats.StandardDeviationSample(values); err == nil {
			summary.StdDev = &sd
		}
	}
	return summary
}
