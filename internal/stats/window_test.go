package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/popstats/internal/dataset"
)

func pop(year int, n int64) dataset.PopulationRecord {
	return dataset.PopulationRecord{Nation: "United States", Year: year, Population: n}
}

func TestSummarizePopulation_MatchesReferenceComputation(t *testing.T) {
	records := []dataset.PopulationRecord{
		pop(2012, 311000000),
		pop(2013, 311536594),
		pop(2014, 314107084),
		pop(2015, 316515021),
		pop(2016, 318558162),
		pop(2017, 321004407),
		pop(2018, 322903030),
		pop(2019, 324697795),
	}
	w := Window{Start: 2013, End: 2018}

	// Reference: manual filter, then textbook mean and n-1 variance
	var ref []float64
	for _, r := range records {
		if r.Year >= 2013 && r.Year <= 2018 {
			ref = append(ref, float64(r.Population))
		}
	}
	var sum float64
	for _, v := range ref {
		sum += v
	}
	mean := sum / float64(len(ref))
	var sq float64
	for _, v := range ref {
		sq += (v - mean) * (v - mean)
	}
	std := math.Sqrt(sq / float64(len(ref)-1))

	summary := SummarizePopulation(records, w)
	require.NotNil(t, summary.Mean)
	require.NotNil(t, summary.StdDev)
	assert.Equal(t, 6, summary.Count)
	assert.InDelta(t, mean, *summary.Mean, 1e-6)
	assert.InDelta(t, std, *summary.StdDev, 1e-6)
	assert.InDelta(t, 317437383.0, *summary.Mean, 1.0)
}

func TestSummarizePopulation_EmptyWindowIsUndefined(t *testing.T) {
	summary := SummarizePopulation([]dataset.PopulationRecord{pop(2019, 1), pop(2020, 2)}, Window{Start: 2013, End: 2018})

	assert.Equal(t, 0, summary.Count)
	assert.Nil(t, summary.Mean, "empty window must not report a zero mean")
	assert.Nil(t, summary.StdDev)
}

func TestSummarizePopulation_SingleRow(t *testing.T) {
	summary := SummarizePopulation([]dataset.PopulationRecord{pop(2015, 42)}, Window{Start: 2013, End: 2018})

	require.NotNil(t, summary.Mean)
	assert.Equal(t, 42.0, *summary.Mean)
	assert.Nil(t, summary.StdDev)
}

func TestWindow_Inclusive(t *testing.T) {
	w := Window{Start: 2013, End: 2018}
	assert.True(t, w.Contains(2013))
	assert.True(t, w.Contains(2018))
	assert.False(t, w.Contains(2012))
	assert.False(t, w.Contains(2019))
}
