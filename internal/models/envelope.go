package models

import (
	"encoding/json"
	"net/http"
)

// Envelope is the result of one function invocation
type Envelope struct {
	StatusCode int         `json:"statusCode"`
	Body       interface{} `json:"body"`
}

// OK wraps body in a 200 envelope
func OK(body interface{}) Envelope {
	return Envelope{StatusCode: http.StatusOK, Body: body}
}

// Failure wraps a human readable message in a 500 envelope
func Failure(message string) Envelope {
	return Envelope{StatusCode: http.StatusInternalServerError, Body: message}
}

// Failed reports whether the invocation failed
func (e Envelope) Failed() bool {
	return e.StatusCode >= http.StatusInternalServerError
}

// JSON encodes the envelope
func (e Envelope) JSON() ([]byte, error) {
	return json.Marshal(e)
}
