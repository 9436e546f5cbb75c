package events

import (
	"context"
	"time"

	"github.com/soltixdb/popstats/internal/logging"
)

// Notifier announces stored objects of one bucket on a subject
type Notifier struct {
	pub     Publisher
	subject string
	bucket  string
	now     func() time.Time
}

// NewNotifier creates a notifier publishing on subject
func NewNotifier(pub Publisher, subject, bucket string) *Notifier {
	return &Notifier{pub: pub, subject: subject, bucket: bucket, now: time.Now}
}

// ObjectCreated publishes an object.created event for key
func (n *Notifier) ObjectCreated(ctx context.Context, key string, size int) error {
	data, err := Encode(ObjectEvent{
		Type:         TypeObjectCreated,
		Bucket:       n.bucket,
		Key:          key,
		Size:         size,
		InvocationID: logging.InvocationID(ctx),
		Time:         n.now().UTC(),
	})
	if err != nil {
		return err
	}
	return n.pub.Publish(ctx, n.subject, data)
}
