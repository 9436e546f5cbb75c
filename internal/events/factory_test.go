package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/popstats/internal/config"
)

func TestNewBus(t *testing.T) {
	bus, err := NewBus(config.EventsConfig{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryBus{}, bus)
	_ = bus.Close()

	bus, err = NewBus(config.EventsConfig{Type: "KAFKA", KafkaBrokers: []string{"127.0.0.1:1"}})
	require.NoError(t, err)
	assert.IsType(t, &KafkaBus{}, bus)
	_ = bus.Close()

	bus, err = NewBus(config.EventsConfig{Type: "nats", URL: setupTestNATS(t)})
	require.NoError(t, err)
	assert.IsType(t, &NATSBus{}, bus)
	_ = bus.Close()

	bus, err = NewBus(config.EventsConfig{Type: "sqs"})
	assert.Error(t, err)
	assert.Nil(t, bus)

	bus, err = NewBus(config.EventsConfig{Type: "nats", URL: "nats://127.0.0.1:1"})
	assert.Error(t, err)
	assert.Nil(t, bus)
}
