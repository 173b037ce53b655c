package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// StreamNotifier appends each event to a Redis stream so that the backend, or
// any other consumer group, can pick the update up and save it.
type StreamNotifier struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewStreamNotifier constructs a StreamNotifier. maxLen caps the stream
// length approximately; zero leaves it unbounded.
func NewStreamNotifier(client *redis.Client, stream string, maxLen int64) *StreamNotifier {
	return &StreamNotifier{client: client, stream: stream, maxLen: maxLen}
}

// Notify publishes ev as JSON under the "data" field.
func (n *StreamNotifier) Notify(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	args := &redis.XAddArgs{
		Stream: n.stream,
		Values: map[string]interface{}{
			"session_id":    ev.SessionID,
			"head_guest_id": ev.HeadGuestID,
			"op":            ev.Op,
			"data":          string(payload),
		},
	}
	if n.maxLen > 0 {
		args.MaxLen = n.maxLen
		args.Approx = true
	}
	if err := n.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("publish to stream %s: %w", n.stream, err)
	}
	return nil
}
