package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaConfig represents Apache Kafka configuration
type KafkaConfig struct {
	Brokers      []string      // Broker addresses
	GroupID      string        // Consumer group ID (default: "popstats-group")
	BatchTimeout time.Duration // Producer batch timeout (default: 10ms)
	MaxAttempts  int           // Producer attempts per message (default: 3)
	RetryBackoff time.Duration // Backoff between commit retries (default: 100ms)
}

// KafkaBus carries events on Kafka topics, one topic per subject
type KafkaBus struct {
	config        KafkaConfig
	writers       map[string]*kafka.Writer
	readers       map[string]*kafka.Reader
	subscriptions map[string]context.CancelFunc
	wg            sync.WaitGroup
	mu            sync.Mutex
}

// NewKafkaBus creates a bus. Brokers are contacted lazily on first use.
func NewKafkaBus(cfg KafkaConfig) (*KafkaBus, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers not configured")
	}
	if cfg.GroupID == "" {
		cfg.GroupID = "popstats-group"
	}
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = 10 * time.Millisecond
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = 100 * time.Millisecond
	}

	return &KafkaBus{
		config:        cfg,
		writers:       make(map[string]*kafka.Writer),
		readers:       make(map[string]*kafka.Reader),
		subscriptions: make(map[string]context.CancelFunc),
	}, nil
}

func (b *KafkaBus) writer(topic string) *kafka.Writer {
	b.mu.Lock()
	defer b.mu.Unlock()

	if w, ok := b.writers[topic]; ok {
		return w
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(b.config.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           b.config.BatchTimeout,
		RequiredAcks:           kafka.RequireOne,
		MaxAttempts:            b.config.MaxAttempts,
		AllowAutoTopicCreation: true,
	}
	b.writers[topic] = w
	return w
}

// Publish writes the message synchronously. Events of the same subject
// share a partition key, which keeps them ordered.
func (b *KafkaBus) Publish(ctx context.Context, subject string, data []byte) error {
	err := b.writer(subject).WriteMessages(ctx, kafka.Message{
		Key:   []byte(subject),
		Value: data,
		Time:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to publish to kafka topic %s: %w", subject, err)
	}
	return nil
}

// Subscribe consumes the topic through the consumer group. Offsets are
// committed only after the handler succeeds.
func (b *KafkaBus) Subscribe(subject string, handler MessageHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscriptions[subject]; exists {
		return fmt.Errorf("already subscribed to topic: %s", subject)
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     b.config.Brokers,
		GroupID:     b.config.GroupID,
		Topic:       subject,
		MinBytes:    1,
		MaxBytes:    1e6,
		MaxWait:     time.Second,
		StartOffset: kafka.LastOffset,
	})
	ctx, cancel := context.WithCancel(context.Background())
	b.readers[subject] = reader
	b.subscriptions[subject] = cancel

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.consume(ctx, reader, handler)
	}()
	return nil
}

func (b *KafkaBus) consume(ctx context.Context, reader *kafka.Reader, handler MessageHandler) {
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			time.Sleep(b.config.RetryBackoff)
			continue
		}

		if err := handler(msg.Value); err != nil {
			continue
		}

		for attempt := 0; attempt < 3; attempt++ {
			if err := reader.CommitMessages(ctx, msg); err == nil || ctx.Err() != nil {
				break
			}
			time.Sleep(b.config.RetryBackoff)
		}
	}
}

// Unsubscribe stops consuming the topic
func (b *KafkaBus) Unsubscribe(subject string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	cancel, exists := b.subscriptions[subject]
	if !exists {
		return fmt.Errorf("not subscribed to topic: %s", subject)
	}
	cancel()
	delete(b.subscriptions, subject)
	if r, ok := b.readers[subject]; ok {
		_ = r.Close()
		delete(b.readers, subject)
	}
	return nil
}

// Close stops all consumers and flushes the writers
func (b *KafkaBus) Close() error {
	b.mu.Lock()
	for subject, cancel := range b.subscriptions {
		cancel()
		delete(b.subscriptions, subject)
	}
	b.mu.Unlock()
	b.wg.Wait()

	b.mu.Lock()
	defer b.mu.Unlock()

	var lastErr error
	for subject, r := range b.readers {
		if err := r.Close(); err != nil {
			lastErr = err
		}
		delete(b.readers, subject)
	}
	for topic, w := range b.writers {
		if err := w.Close(); err != nil {
			lastErr = err
		}
		delete(b.writers, topic)
	}
	return lastErr
}

// Stats returns producer stats for a topic
func (b *KafkaBus) Stats(topic string) kafka.WriterStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	if w, ok := b.writers[topic]; ok {
		return w.Stats()
	}
	return kafka.WriterStats{}
}
