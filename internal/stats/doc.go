// Package stats holds the reductions the analysis function runs over the
// staged datasets: windowed population statistics, the per-series peak-year
// reduction and the year join that feeds the chart.
package stats
