package websocket

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu      sync.Mutex
	written []interface{}
	fail    bool
	closed  bool
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("broken pipe")
	}
	c.written = append(c.written, v)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.written)
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub
}

func TestPublishReachesOnlyOwner(t *testing.T) {
	hub := startHub(t)
	alice, bob := uuid.New(), uuid.New()
	aliceConn, bobConn := &fakeConn{}, &fakeConn{}
	hub.Register(&Client{UserID: alice, Conn: aliceConn})
	hub.Register(&Client{UserID: bob, Conn: bobConn})

	hub.Publish(alice, map[string]string{"type": "wallet.entry"})

	require.Eventually(t, func() bool { return aliceConn.count() == 1 }, time.Second, 5*time.Millisecond)
	require.Zero(t, bobConn.count())
}

func TestFailedWriteDropsClient(t *testing.T) {
	hub := startHub(t)
	user := uuid.New()
	broken := &fakeConn{fail: true}
	hub.Register(&Client{UserID: user, Conn: broken})
	require.Eventually(t, func() bool { return hub.Connected(user) == 1 }, time.Second, 5*time.Millisecond)

	hub.Publish(user, "ping")

	require.Eventually(t, func() bool { return hub.Connected(user) == 0 }, time.Second, 5*time.Millisecond)
	require.True(t, broken.isClosed())
}

func TestUnregister(t *testing.T) {
	hub := startHub(t)
	user := uuid.New()
	first, second := &fakeConn{}, &fakeConn{}
	hub.Register(&Client{UserID: user, Conn: first})
	hub.Register(&Client{UserID: user, Conn: second})
	hub.Unregister(&Client{UserID: user, Conn: first})
	require.Eventually(t, func() bool { return hub.Connected(user) == 1 }, time.Second, 5*time.Millisecond)

	hub.Publish(user, "ping")
	require.Eventually(t, func() bool { return second.count() == 1 }, time.Second, 5*time.Millisecond)
	require.Zero(t, first.count())
}
