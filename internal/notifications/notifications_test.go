package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTimeout = time.Second

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg := <-c.Send:
		return msg
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestHub_RegisterLimits(t *testing.T) {
	hub := NewHub()
	defer func() { _ = hub.Shutdown(context.Background()) }()

	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register(1, nil)
		require.NoError(t, err)
	}
	_, err := hub.Register(1, nil)
	assert.Error(t, err)

	other, err := hub.Register(2, nil)
	require.NoError(t, err)
	assert.Equal(t, maxConnsPerUser+1, hub.Count())

	hub.UnregisterClient(other)
	hub.UnregisterClient(other)
	assert.Equal(t, maxConnsPerUser, hub.Count())
	_, open := <-other.Send
	assert.False(t, open)
}

func TestHub_ShutdownRejectsNewClients(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(1, nil)
	require.NoError(t, err)

	require.NoError(t, hub.Shutdown(context.Background()))
	assert.Equal(t, 0, hub.Count())
	_, open := <-c.Send
	assert.False(t, open)

	_, err = hub.Register(1, nil)
	assert.ErrorIs(t, err, ErrHubClosed)
	assert.NoError(t, hub.Shutdown(context.Background()))
}

func TestClient_TrySendDropsWhenFull(t *testing.T) {
	hub := NewHub()
	defer func() { _ = hub.Shutdown(context.Background()) }()
	c, err := hub.Register(1, nil)
	require.NoError(t, err)

	for i := 0; i < sendBuffer+10; i++ {
		c.TrySend([]byte("x"))
	}
	assert.Len(t, c.Send, sendBuffer)
}

func TestNotifier_LocalDelivery(t *testing.T) {
	hub := NewHub()
	defer func() { _ = hub.Shutdown(context.Background()) }()
	n := NewNotifier(nil)
	require.NoError(t, hub.StartWiring(context.Background(), n))

	a, err := hub.Register(1, nil)
	require.NoError(t, err)
	b, err := hub.Register(2, nil)
	require.NoError(t, err)

	require.NoError(t, n.Publish(context.Background(), "comment.created", map[string]any{"id": 3}))

	for _, c := range []*Client{a, b} {
		var ev struct {
			Type    string         `json:"type"`
			Payload map[string]int `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(receive(t, c), &ev))
		assert.Equal(t, "comment.created", ev.Type)
		assert.Equal(t, 3, ev.Payload["id"])
	}
}

func TestNotifier_RedisDelivery(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	defer func() { _ = hub.Shutdown(context.Background()) }()
	n := NewNotifier(rdb)
	require.True(t, n.Distributed())
	require.NoError(t, hub.StartWiring(ctx, n))

	c, err := hub.Register(7, nil)
	require.NoError(t, err)

	require.NoError(t, n.Publish(ctx, "comment.created", map[string]string{"nickname": "reader"}))
	assert.JSONEq(t, `{"type":"comment.created","payload":{"nickname":"reader"}}`, string(receive(t, c)))
}

func TestNotifier_NilIsNoop(t *testing.T) {
	var n *Notifier
	assert.NoError(t, n.Publish(context.Background(), "comment.created", nil))
	assert.False(t, n.Distributed())
}
