package events

import (
	"context"
	"fmt"
	"sync"
)

const memoryBufferSize = 1024

// MemoryBus delivers messages through buffered channels inside one process
type MemoryBus struct {
	channels      map[string]chan []byte
	subscriptions map[string]context.CancelFunc
	closed        bool
	wg            sync.WaitGroup
	mu            sync.Mutex
}

// NewMemoryBus creates an in-process bus
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		channels:      make(map[string]chan []byte),
		subscriptions: make(map[string]context.CancelFunc),
	}
}

// channel returns the channel of subject, creating it. Caller holds mu.
func (b *MemoryBus) channel(subject string) chan []byte {
	ch, ok := b.channels[subject]
	if !ok {
		ch = make(chan []byte, memoryBufferSize)
		b.channels[subject] = ch
	}
	return ch
}

// Publish queues a copy of data. It fails instead of blocking when the
// subject's buffer is full.
func (b *MemoryBus) Publish(ctx context.Context, subject string, data []byte) error {
	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("memory bus closed")
	}

	select {
	case b.channel(subject) <- dataCopy:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("channel full for subject: %s", subject)
	}
}

// Subscribe starts delivering subject's messages to handler. A message whose
// handler fails is dropped.
func (b *MemoryBus) Subscribe(subject string, handler MessageHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("memory bus closed")
	}
	if _, exists := b.subscriptions[subject]; exists {
		return fmt.Errorf("already subscribed to subject: %s", subject)
	}

	ch := b.channel(subject)
	ctx, cancel := context.WithCancel(context.Background())
	b.subscriptions[subject] = cancel

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case data := <-ch:
				_ = handler(data)
			}
		}
	}()
	return nil
}

// Unsubscribe stops delivery for subject
func (b *MemoryBus) Unsubscribe(subject string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	cancel, exists := b.subscriptions[subject]
	if !exists {
		return fmt.Errorf("not subscribed to subject: %s", subject)
	}
	cancel()
	delete(b.subscriptions, subject)
	return nil
}

// Close stops every subscription and waits for running handlers
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	b.closed = true
	for subject, cancel := range b.subscriptions {
		cancel()
		delete(b.subscriptions, subject)
	}
	b.mu.Unlock()

	b.wg.Wait()
	return nil
}

// Pending returns the number of queued messages for subject (for testing)
func (b *MemoryBus) Pending(subject string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.channels[subject]; ok {
		return len(ch)
	}
	return 0
}
