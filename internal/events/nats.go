package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSBus carries events on NATS JetStream. Each subject gets a file-backed
// stream and subscribers share a durable consumer, so one process handles
// each event and unacknowledged events are redelivered.
type NATSBus struct {
	conn          *nats.Conn
	js            nats.JetStreamContext
	ownsConn      bool
	streams       map[string]bool
	subscriptions map[string]*nats.Subscription
	mu            sync.Mutex
}

// NewNATSBus connects to url with JetStream enabled
func NewNATSBus(url, password string) (*NATSBus, error) {
	var opts []nats.Option
	if password != "" {
		opts = append(opts, nats.Token(password))
	}
	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	b, err := newNATSBusWithConn(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	b.ownsConn = true
	return b, nil
}

// newNATSBusWithConn reuses an existing connection (used in tests)
func newNATSBusWithConn(conn *nats.Conn) (*NATSBus, error) {
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}
	return &NATSBus{
		conn:          conn,
		js:            js,
		streams:       make(map[string]bool),
		subscriptions: make(map[string]*nats.Subscription),
	}, nil
}

// ensureStream creates the stream backing subject. Caller holds mu.
func (b *NATSBus) ensureStream(subject string) (string, error) {
	name := "popstats-" + sanitizeName(subject)
	if b.streams[name] {
		return name, nil
	}
	if _, err := b.js.StreamInfo(name); err != nil {
		_, err = b.js.AddStream(&nats.StreamConfig{
			Name:     name,
			Subjects: []string{subject},
			Storage:  nats.FileStorage,
		})
		if err != nil {
			return "", fmt.Errorf("failed to create stream for subject %s: %w", subject, err)
		}
	}
	b.streams[name] = true
	return name, nil
}

// Publish stores the message in the subject's stream and waits for the ack
func (b *NATSBus) Publish(ctx context.Context, subject string, data []byte) error {
	b.mu.Lock()
	_, err := b.ensureStream(subject)
	b.mu.Unlock()
	if err != nil {
		return err
	}

	if _, err := b.js.Publish(subject, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("failed to publish to subject %s: %w", subject, err)
	}
	return nil
}

// Subscribe attaches handler to the subject's durable consumer. A handler
// error NAKs the message for redelivery, up to three attempts.
func (b *NATSBus) Subscribe(subject string, handler MessageHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscriptions[subject]; exists {
		return fmt.Errorf("already subscribed to subject: %s", subject)
	}

	stream, err := b.ensureStream(subject)
	if err != nil {
		return err
	}

	sub, err := b.js.Subscribe(subject, func(msg *nats.Msg) {
		if err := handler(msg.Data); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.BindStream(stream),
		nats.Durable("consumer-"+sanitizeName(subject)),
		nats.ManualAck(),
		nats.AckWait(2*time.Minute),
		nats.MaxDeliver(3),
		nats.DeliverNew(),
	)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", subject, err)
	}

	b.subscriptions[subject] = sub
	return nil
}

// Unsubscribe detaches from subject. The durable consumer is kept.
func (b *NATSBus) Unsubscribe(subject string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, exists := b.subscriptions[subject]
	if !exists {
		return fmt.Errorf("not subscribed to subject: %s", subject)
	}
	delete(b.subscriptions, subject)
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("failed to unsubscribe from subject %s: %w", subject, err)
	}
	return nil
}

// Close drains subscriptions and closes an owned connection
func (b *NATSBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for subject, sub := range b.subscriptions {
		_ = sub.Drain()
		delete(b.subscriptions, subject)
	}
	if b.ownsConn {
		b.conn.Close()
	}
	return nil
}

// sanitizeName maps a subject to the characters allowed in stream and
// consumer names: A-Z, a-z, 0-9, dash and underscore.
func sanitizeName(subject string) string {
	result := make([]byte, 0, len(subject))
	for i := 0; i < len(subject); i++ {
		c := subject[i]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' || c == '_' {
			result = append(result, c)
		} else {
			result = append(result, '_')
		}
	}
	return string(result)
}
