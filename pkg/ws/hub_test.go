package ws

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn is an in-process Conn for hub tests.
type fakeConn struct {
	id     string
	userId string
	mu     sync.Mutex
	json   []any
	closed bool
	wrote  chan struct{}
}

func newFakeConn(id, userId string) *fakeConn {
	return &fakeConn{id: id, userId: userId, wrote: make(chan struct{}, 16)}
}

func (f *fakeConn) ID() string                 { return f.id }
func (f *fakeConn) UserID() string             { return f.userId }
func (f *fakeConn) SetUserID(userId string)    { f.userId = userId }
func (f *fakeConn) ReadMessage() (int, []byte, error) {
	return 0, nil, ErrConnectionClosed
}
func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.json = append(f.json, data)
	f.wrote <- struct{}{}
	return nil
}
func (f *fakeConn) WriteJSON(v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.json = append(f.json, v)
	f.wrote <- struct{}{}
	return nil
}
func (f *fakeConn) ReadJSON(v any) error { return ErrConnectionClosed }
func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}
func (f *fakeConn) RemoteAddr() string              { return "127.0.0.1:0" }
func (f *fakeConn) Context() context.Context        { return context.Background() }
func (f *fakeConn) SetContext(ctx context.Context)  {}

func waitWrite(t *testing.T, c *fakeConn) {
	t.Helper()
	select {
	case <-c.wrote:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for write")
	}
}

func TestHubRegisterAndCount(t *testing.T) {
	hub := NewHub()

	a := newFakeConn("c1", "usr_a")
	b := newFakeConn("c2", "usr_a")
	hub.Register(a)
	hub.Register(b)

	assert.Equal(t, 2, hub.Count())
	assert.Len(t, hub.UserConns("usr_a"), 2)

	hub.Unregister(a)
	assert.Equal(t, 1, hub.Count())
	assert.Len(t, hub.UserConns("usr_a"), 1)
	assert.True(t, a.closed)
}

func TestSendToUserFansOutToAllTabs(t *testing.T) {
	hub := NewHub()

	tab1 := newFakeConn("c1", "usr_a")
	tab2 := newFakeConn("c2", "usr_a")
	other := newFakeConn("c3", "usr_b")
	hub.Register(tab1)
	hub.Register(tab2)
	hub.Register(other)

	require.NoError(t, hub.SendToUserJSON("usr_a", map[string]string{"kind": "identity"}))
	waitWrite(t, tab1)
	waitWrite(t, tab2)

	other.mu.Lock()
	assert.Empty(t, other.json)
	other.mu.Unlock()
}

func TestSendToUserWithoutConnections(t *testing.T) {
	hub := NewHub()
	err := hub.SendToUserJSON("usr_missing", "x")
	assert.ErrorIs(t, err, ErrUserNotConnected)
}

func TestUserIndexCleanedUpOnLastUnregister(t *testing.T) {
	hub := NewHub()

	c := newFakeConn("c1", "usr_a")
	hub.Register(c)
	hub.Unregister(c)

	assert.Empty(t, hub.UserConns("usr_a"))
	err := hub.SendToUser("usr_a", TextMessage, []byte("x"))
	assert.ErrorIs(t, err, ErrUserNotConnected)
}
