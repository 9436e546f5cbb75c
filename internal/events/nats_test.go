package events

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestNATS creates an embedded JetStream-enabled NATS server
func setupTestNATS(t *testing.T) string {
	t.Helper()
	ns, err := server.NewServer(&server.Options{
		Host:      "127.0.0.1",
		Port:      -1,
		JetStream: true,
		StoreDir:  t.TempDir(),
	})
	require.NoError(t, err)

	go ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		t.Fatal("NATS server not ready")
	}
	t.Cleanup(func() {
		ns.Shutdown()
		ns.WaitForShutdown()
	})
	return ns.ClientURL()
}

func TestNATSBus_PublishSubscribe(t *testing.T) {
	url := setupTestNATS(t)

	bus, err := NewNATSBus(url, "")
	require.NoError(t, err)
	defer func() { _ = bus.Close() }()

	received := make(chan string, 4)
	require.NoError(t, bus.Subscribe(testSubject, func(data []byte) error {
		received <- string(data)
		return nil
	}))
	assert.Error(t, bus.Subscribe(testSubject, func([]byte) error { return nil }))

	require.NoError(t, bus.Publish(context.Background(), testSubject, []byte("hello")))

	select {
	case got := <-received:
		assert.Equal(t, "hello", got)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
	}

	require.NoError(t, bus.Unsubscribe(testSubject))
	assert.Error(t, bus.Unsubscribe(testSubject))
}

func TestNATSBus_RedeliversOnHandlerError(t *testing.T) {
	url := setupTestNATS(t)

	bus, err := NewNATSBus(url, "")
	require.NoError(t, err)
	defer func() { _ = bus.Close() }()

	attempts := make(chan struct{}, 4)
	require.NoError(t, bus.Subscribe(testSubject, func(data []byte) error {
		attempts <- struct{}{}
		if len(attempts) < 2 {
			return assert.AnError
		}
		return nil
	}))
	require.NoError(t, bus.Publish(context.Background(), testSubject, []byte("retry me")))

	assert.Eventually(t, func() bool { return len(attempts) >= 2 }, 5*time.Second, 20*time.Millisecond)
}

func TestNATSBus_SharedConnection(t *testing.T) {
	url := setupTestNATS(t)
	conn, err := nats.Connect(url)
	require.NoError(t, err)
	defer conn.Close()

	bus, err := newNATSBusWithConn(conn)
	require.NoError(t, err)
	require.NoError(t, bus.Publish(context.Background(), testSubject, []byte("x")))
	require.NoError(t, bus.Close())

	// The connection belongs to the caller
	assert.True(t, conn.IsConnected())
}

func TestNewNATSBus_InvalidURL(t *testing.T) {
	_, err := NewNATSBus("nats://127.0.0.1:1", "")
	assert.Error(t, err)
}
