package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const populationDataset = "population"

// Population field names as published by the upstream API
const (
	FieldNationID   = "ID Nation"
	FieldNation     = "Nation"
	FieldYear       = "Year"
	FieldPopulation = "Population"
	FieldSlugNation = "Slug Nation"
)

// PopulationRecord is one (nation, year) population figure
type PopulationRecord struct {
	NationID   string
	Nation     string
	Year       int
	Population int64
	SlugNation string
}

// PopulationShape identifies the top-level layout of a population document
type PopulationShape int

const (
	// ShapeEnvelope is an object whose "data" field holds the rows
	ShapeEnvelope PopulationShape = iota + 1
	// ShapeArray is a bare array of rows
	ShapeArray
)

func (s PopulationShape) String() string {
	switch s {
	case ShapeEnvelope:
		return "envelope"
	case ShapeArray:
		return "array"
	default:
		return "unknown"
	}
}

// PopulationDocument is a decoded population document before row coercion
type PopulationDocument struct {
	Shape PopulationShape
	Rows  []map[string]json.RawMessage
}

// ErrUnexpectedStructure is the reason carried by a ParseError when the
// document is neither an envelope nor a bare array
const ErrUnexpectedStructure = "unexpected JSON structure"

// DecodePopulationDocument classifies and decodes the top level of data.
// Only the two accepted shapes are recognised; any other document is a
// *ParseError with reason ErrUnexpectedStructure.
func DecodePopulationDocument(data []byte) (*PopulationDocument, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, &ParseError{Dataset: populationDataset, Reason: "empty input"}
	}
	if !json.Valid(trimmed) {
		return nil, &ParseError{Dataset: populationDataset, Reason: "invalid JSON"}
	}

	switch trimmed[0] {
	case '{':
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, &ParseError{Dataset: populationDataset, Reason: ErrUnexpectedStructure, Err: err}
		}
		if len(envelope.Data) == 0 || bytes.Equal(envelope.Data, []byte("null")) {
			return nil, &ParseError{Dataset: populationDataset, Reason: ErrUnexpectedStructure,
				Err: fmt.Errorf("object has no %q field", "data")}
		}
		rows, err := decodeRows(envelope.Data)
		if err != nil {
			return nil, err
		}
		return &PopulationDocument{Shape: ShapeEnvelope, Rows: rows}, nil

	case '[':
		rows, err := decodeRows(trimmed)
		if err != nil {
			return nil, err
		}
		return &PopulationDocument{Shape: ShapeArray, Rows: rows}, nil

	default:
		return nil, &ParseError{Dataset: populationDataset, Reason: ErrUnexpectedStructure,
			Err: fmt.Errorf("top-level value is neither an object nor an array")}
	}
}

func decodeRows(raw json.RawMessage) ([]map[string]json.RawMessage, error) {
	var rows []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, &ParseError{Dataset: populationDataset, Reason: "rows must be an array of objects", Err: err}
	}
	return rows, nil
}

// ParsePopulation decodes data and coerces Year and Population to integers.
// Both accepted shapes carrying the same rows produce the same records.
func ParsePopulation(data []byte) ([]PopulationRecord, error) {
	doc, err := DecodePopulationDocument(data)
	if err != nil {
		return nil, err
	}
	return doc.Records()
}

// Records coerces every row. The first non-numeric Year or Population aborts.
func (d *PopulationDocument) Records() ([]PopulationRecord, error) {
	records := make([]PopulationRecord, 0, len(d.Rows))
	for i, row := range d.Rows {
		year, err := coerceInt(row, FieldYear, i)
		if err != nil {
			return nil, err
		}
		pop, err := coerceInt(row, FieldPopulation, i)
		if err != nil {
			return nil, err
		}

		records = append(records, PopulationRecord{
			NationID:   coerceString(row[FieldNationID]),
			Nation:     coerceString(row[FieldNation]),
			Year:       int(year),
			Population: pop,
			SlugNation: coerceString(row[FieldSlugNation]),
		})
	}
	return records, nil
}

// coerceInt accepts a JSON number or a string holding one. Fractional
// numbers are truncated toward zero.
func coerceInt(row map[string]json.RawMessage, field string, idx int) (int64, error) {
	raw, ok := row[field]
	if !ok {
		return 0, &CoercionError{Dataset: populationDataset, Field: field, Row: idx, Value: "<missing>"}
	}

	text := strings.TrimSpace(string(raw))
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		text = strings.TrimSpace(s)
	}

	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return n, nil
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) &&
		f >= math.MinInt64 && f < math.MaxInt64 {
		return int64(f), nil
	}
	return 0, &CoercionError{Dataset: populationDataset, Field: field, Row: idx, Value: string(raw)}
}

func coerceString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
