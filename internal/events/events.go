// Package events announces stored objects on a message bus and lets the
// invoker react to them.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// TypeObjectCreated marks an object written to the bucket
const TypeObjectCreated = "object.created"

// ObjectEvent describes one stored object
type ObjectEvent struct {
	Type         string    `json:"type"`
	Bucket       string    `json:"bucket"`
	Key          string    `json:"key"`
	Size         int       `json:"size"`
	InvocationID string    `json:"invocation_id,omitempty"`
	Time         time.Time `json:"time"`
}

// Encode serialises an event
func Encode(e ObjectEvent) ([]byte, error) {
	return json.Marshal(e)
}

// Decode parses an event published by Encode
func Decode(data []byte) (ObjectEvent, error) {
	var e ObjectEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return ObjectEvent{}, fmt.Errorf("decode object event: %w", err)
	}
	if e.Key == "" {
		return ObjectEvent{}, fmt.Errorf("decode object event: missing key")
	}
	return e, nil
}

// Publisher publishes messages to a subject
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
	Close() error
}

// MessageHandler handles one message. Returning an error asks the backend
// to redeliver when it supports redelivery.
type MessageHandler func(data []byte) error

// Subscriber delivers messages of a subject to a handler
type Subscriber interface {
	Subscribe(subject string, handler MessageHandler) error
	Unsubscribe(subject string) error
	Close() error
}

// Bus combines Publisher and Subscriber
type Bus interface {
	Publisher
	Subscriber
}
