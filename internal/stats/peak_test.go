package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/popstats/internal/dataset"
)

func row(id string, year int, value float64) dataset.SeriesRecord {
	return dataset.SeriesRecord{SeriesID: id, Year: year, Period: "Q01", Value: value}
}

func TestPeakYears_SumsPerYear(t *testing.T) {
	records := []dataset.SeriesRecord{
		row("PRS30006011", 2012, 5),
		row("PRS30006011", 2012, 3),
		row("PRS30006011", 2013, 1),
	}

	got := PeakYears(records)
	assert.Equal(t, []PeakYear{{SeriesID: "PRS30006011", Year: 2012, Value: 8}}, got)
}

func TestPeakYears_OnePerSeriesOrderedByID(t *testing.T) {
	records := []dataset.SeriesRecord{
		row("PRS2", 2000, 1),
		row("PRS1", 1999, 4),
		row("PRS2", 2001, 7),
		row("PRS1", 2000, 2),
		row("PRS3", 2010, -1),
		row("PRS3", 2011, -3),
	}

	got := PeakYears(records)
	assert.Equal(t, []PeakYear{
		{SeriesID: "PRS1", Year: 1999, Value: 4},
		{SeriesID: "PRS2", Year: 2001, Value: 7},
		{SeriesID: "PRS3", Year: 2010, Value: -1},
	}, got)
}

func TestPeakYears_TieKeepsEarliestYear(t *testing.T) {
	records := []dataset.SeriesRecord{
		row("PRS1", 2005, 3),
		row("PRS1", 2001, 1),
		row("PRS1", 2001, 2),
		row("PRS1", 2003, 3),
	}

	got := PeakYears(records)
	assert.Equal(t, []PeakYear{{SeriesID: "PRS1", Year: 2001, Value: 3}}, got)
}

func TestPeakYears_Empty(t *testing.T) {
	assert.Empty(t, PeakYears(nil))
}

func TestPeakYears_NonFiniteValuesSumToZero(t *testing.T) {
	records, err := dataset.ParseSeries([]byte("series_id\tyear\tperiod\tvalue\n" +
		"A\t2010\tQ01\t1\n" +
		"A\t2011\tQ01\tNaN\n" +
		"A\t2012\tQ01\t5\n" +
		"B\t2010\tQ01\t-2\n" +
		"B\t2011\tQ01\t+Inf\n" +
		"B\t2011\tQ02\t-Inf\n" +
		"C\t2010\tQ01\tNaN\n"))
	require.NoError(t, err)

	got := PeakYears(records)
	assert.Equal(t, []PeakYear{
		{SeriesID: "A", Year: 2012, Value: 5},
		{SeriesID: "B", Year: 2011, Value: 0},
		{SeriesID: "C", Year: 2010, Value: 0},
	}, got)
}
