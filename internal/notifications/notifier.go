package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"lukeblog/internal/middleware"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// EventsChannel is the Redis channel carrying admin events between instances.
const EventsChannel = "blog:events"

// Event is the message format sent to admin clients.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Notifier publishes admin events. With a Redis client every instance's hub
// receives them; without one they are delivered to the local hub only.
type Notifier struct {
	rdb *redis.Client

	mu    sync.RWMutex
	local func([]byte)
}

// NewNotifier creates a Notifier. rdb may be nil.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Distributed reports whether events travel through Redis.
func (n *Notifier) Distributed() bool {
	return n != nil && n.rdb != nil
}

func (n *Notifier) deliverLocal(fn func([]byte)) {
	n.mu.Lock()
	n.local = fn
	n.mu.Unlock()
}

// Publish encodes an event and sends it to every connected admin client.
func (n *Notifier) Publish(ctx context.Context, eventType string, payload any) error {
	if n == nil {
		return nil
	}
	data, err := json.Marshal(Event{Type: eventType, Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if n.rdb != nil {
		return n.rdb.Publish(ctx, EventsChannel, data).Err()
	}

	n.mu.RLock()
	local := n.local
	n.mu.RUnlock()
	if local != nil {
		local(data)
	}
	return nil
}

// Subscribe calls onMessage for every event published on EventsChannel
// until ctx is done. It returns once the subscription is confirmed.
func (n *Notifier) Subscribe(ctx context.Context, onMessage func(payload []byte)) error {
	if !n.Distributed() {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, EventsChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", EventsChannel, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in event subscriber",
								slog.Any("panic", r),
								slog.String("stack", string(debug.Stack())),
							)
						}
					}()
					onMessage([]byte(msg.Payload))
				}()
			}
		}
	}()

	return nil
}
