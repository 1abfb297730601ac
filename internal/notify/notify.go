package notify

import "context"

// Notifier delivers an opaque payload to a named destination. The group key
// orders related messages within the destination so they are not interleaved.
type Notifier interface {
	Send(ctx context.Context, destination string, body []byte, groupKey string) error
}
