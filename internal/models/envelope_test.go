package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope_JSONShape(t *testing.T) {
	data, err := Failure("Failed to load data").JSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"statusCode":500,"body":"Failed to load data"}`, string(data))

	data, err = OK(IngestResponse{Message: "Data sync completed", InvocationID: "abc", Datasets: []DatasetStatus{
		{Key: "pr.data.0.Current", Outcome: "skipped"},
	}}).JSON()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 200.0, decoded["statusCode"])
	body := decoded["body"].(map[string]interface{})
	assert.Equal(t, false, body["partial"])
	assert.Len(t, body["datasets"], 1)
}

func TestEnvelope_NullStatistics(t *testing.T) {
	data, err := json.Marshal(AnalysisResponse{WindowStart: 2013, WindowEnd: 2018})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"mean_population":null`)
	assert.Contains(t, string(data), `"std_population":null`)
}

func TestEnvelope_Failed(t *testing.T) {
	assert.True(t, Failure("x").Failed())
	assert.False(t, OK(nil).Failed())
}
