package models

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Bucket    string `json:"bucket"`
	Storage   string `json:"storage"`
}

// DatasetStatus is the outcome of syncing one dataset
type DatasetStatus struct {
	Key     string `json:"key"`
	Outcome string `json:"outcome"` // stored, skipped, failed
	Error   string `json:"error,omitempty"`
}

// IngestResponse is the body of an ingest envelope
type IngestResponse struct {
	Message      string          `json:"message"`
	InvocationID string          `json:"invocation_id"`
	Partial      bool            `json:"partial"`
	Datasets     []DatasetStatus `json:"datasets"`
}

// PeakYearView is one row of the peak-year table
type PeakYearView struct {
	SeriesID string  `json:"series_id"`
	Year     int     `json:"year"`
	Value    float64 `json:"value"`
}

// AnalysisResponse is the body of a successful analysis envelope.
// Statistics are null when the window holds too few rows.
type AnalysisResponse struct {
	MeanPopulation *float64       `json:"mean_population"`
	StdPopulation  *float64       `json:"std_population"`
	PlotURL        string         `json:"s3_plot_url"`
	WindowStart    int            `json:"window_start"`
	WindowEnd      int            `json:"window_end"`
	WindowCount    int            `json:"window_count"`
	PeakYears      []PeakYearView `json:"peak_years"`
}

// ErrorResponse represents error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Path    string                 `json:"path,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}
