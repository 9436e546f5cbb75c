package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const seriesDataset = "series"

// Series column names after header normalisation
const (
	ColSeriesID  = "series_id"
	ColYear      = "year"
	ColPeriod    = "period"
	ColValue     = "value"
	ColFootnotes = "footnote_codes"
)

// SeriesRecord is one row of the labor-statistics time series.
// (SeriesID, Year) is not unique: each year carries several periods.
type SeriesRecord struct {
	SeriesID  string
	Year      int
	Period    string
	Value     float64
	Footnotes string
}

// ParseSeries decodes the tab-delimited series file. Header names and cells
// are trimmed, since the upstream file pads both with spaces.
func ParseSeries(data []byte) ([]SeriesRecord, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = '\t'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.ReuseRecord = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, &ParseError{Dataset: seriesDataset, Reason: "empty input"}
	}
	if err != nil {
		return nil, &ParseError{Dataset: seriesDataset, Reason: "read header", Err: err}
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{ColSeriesID, ColYear, ColPeriod, ColValue} {
		if _, ok := cols[required]; !ok {
			return nil, &ParseError{Dataset: seriesDataset, Reason: fmt.Sprintf("missing column %q", required)}
		}
	}
	footIdx, hasFoot := cols[ColFootnotes]

	var records []SeriesRecord
	for row := 0; ; row++ {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Dataset: seriesDataset, Reason: fmt.Sprintf("read row %d", row), Err: err}
		}
		if isBlank(fields) {
			row--
			continue
		}

		cell := func(idx int) string {
			if idx < len(fields) {
				return strings.TrimSpace(fields[idx])
			}
			return ""
		}

		rec := SeriesRecord{
			SeriesID: cell(cols[ColSeriesID]),
			Period:   cell(cols[ColPeriod]),
		}

		yearStr := cell(cols[ColYear])
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			return nil, &CoercionError{Dataset: seriesDataset, Field: ColYear, Row: row, Value: yearStr}
		}
		rec.Year = year

		valueStr := cell(cols[ColValue])
		value, err := strconv.ParseFloat(valueStr, 64)
		if err != nil {
			return nil, &CoercionError{Dataset: seriesDataset, Field: ColValue, Row: row, Value: valueStr}
		}
		rec.Value = value

		if hasFoot {
			rec.Footnotes = cell(footIdx)
		}
		records = append(records, rec)
	}

	return records, nil
}

// WriteSeries encodes records in the normalised tab-delimited layout with
// trimmed headers. ParseSeries reads the output back unchanged.
func WriteSeries(w io.Writer, records []SeriesRecord) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	if err := cw.Write([]string{ColSeriesID, ColYear, ColPeriod, ColValue, ColFootnotes}); err != nil {
		return err
	}
	for _, rec := range records {
		row := []string{
			rec.SeriesID,
			strconv.Itoa(rec.Year),
			rec.Period,
			strconv.FormatFloat(rec.Value, 'f', -1, 64),
			rec.Footnotes,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
