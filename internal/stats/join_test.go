package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/popstats/internal/dataset"
)

func TestJoinByYear_LeftJoinDuplicatesPopulation(t *testing.T) {
	series := []dataset.SeriesRecord{
		row("PRS1", 2015, 1),
		row("PRS2", 2015, 2),
		row("PRS1", 1990, 3),
	}
	population := []dataset.PopulationRecord{
		{Nation: "United States", Year: 2015, Population: 100},
		{Nation: "Canada", Year: 2015, Population: 10},
		{Nation: "United States", Year: 2016, Population: 101},
	}

	joined := JoinByYear(series, population)
	require.Len(t, joined, 5)

	assert.Equal(t, "PRS1", joined[0].Series.SeriesID)
	assert.Equal(t, "United States", joined[0].Population.Nation)
	assert.Equal(t, "PRS1", joined[1].Series.SeriesID)
	assert.Equal(t, "Canada", joined[1].Population.Nation)
	assert.Equal(t, "PRS2", joined[2].Series.SeriesID)
	assert.Equal(t, "United States", joined[2].Population.Nation)
	assert.Equal(t, "PRS2", joined[3].Series.SeriesID)
	assert.Equal(t, "Canada", joined[3].Population.Nation)

	// Unmatched series row is kept with no population
	assert.Equal(t, 1990, joined[4].Series.Year)
	assert.Nil(t, joined[4].Population)
}

func TestJoinByYear_NoPopulation(t *testing.T) {
	joined := JoinByYear([]dataset.SeriesRecord{row("PRS1", 2015, 1)}, nil)
	require.Len(t, joined, 1)
	assert.Nil(t, joined[0].Population)
}
