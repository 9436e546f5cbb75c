package events

import (
	"context"
	"sync"
	"time"

	"github.com/soltixdb/popstats/internal/logging"
	"github.com/soltixdb/popstats/internal/models"
)

// Invoker runs one function invocation to completion
type Invoker interface {
	Invoke(ctx context.Context) models.Envelope
}

// Trigger runs an invocation whenever an object.created event for Key in
// Bucket arrives. Invocations never overlap.
type Trigger struct {
	sub      Subscriber
	subject  string
	bucket   string
	key      string
	function string
	inv      Invoker
	timeout  time.Duration
	logger   *logging.Logger
	mu       sync.Mutex
}

// NewTrigger creates a trigger that runs inv, tagged as function, when key
// is stored in bucket
func NewTrigger(sub Subscriber, subject, bucket, key, function string, inv Invoker,
	timeout time.Duration, logger *logging.Logger,
) *Trigger {
	return &Trigger{
		sub:      sub,
		subject:  subject,
		bucket:   bucket,
		key:      key,
		function: function,
		inv:      inv,
		timeout:  timeout,
		logger:   logger,
	}
}

// Start subscribes to the event subject
func (t *Trigger) Start() error {
	t.logger.Info("Watching for stored objects", "subject", t.subject, "bucket", t.bucket,
		"key", t.key, "function", t.function)
	return t.sub.Subscribe(t.subject, t.Handle)
}

// Stop unsubscribes
func (t *Trigger) Stop() error {
	return t.sub.Unsubscribe(t.subject)
}

// Handle processes one message. Events for any other object are acknowledged
// and ignored, as are malformed events; a failed invocation is logged, not retried.
func (t *Trigger) Handle(data []byte) error {
	ev, err := Decode(data)
	if err != nil {
		t.logger.Warn("Dropping malformed object event", "error", err)
		return nil
	}
	if ev.Type != TypeObjectCreated || ev.Bucket != t.bucket || ev.Key != t.key {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()
	ctx = logging.WithInvocation(ctx, t.function, "")

	log := t.logger.WithContext(ctx)
	log.Info("Object event received, invoking", "key", ev.Key, "source_invocation_id", ev.InvocationID)
	env := t.inv.Invoke(ctx)
	if env.Failed() {
		log.Error("Triggered invocation failed", "status_code", env.StatusCode, "body", env.Body)
		return nil
	}
	log.Info("Triggered invocation finished", "status_code", env.StatusCode)
	return nil
}
