package stream

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"github.com/plinth-io/plinth/internal/core/model"
	"github.com/plinth-io/plinth/internal/core/service"
	"github.com/plinth-io/plinth/pkg/event"
	"github.com/plinth-io/plinth/pkg/realtime"
	"github.com/plinth-io/plinth/pkg/ws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLoader struct {
	mu         sync.Mutex
	identities map[string]*model.Identity
}

func (f *fakeLoader) Identity(userId string) (*model.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	identity, ok := f.identities[userId]
	if !ok {
		return nil, errors.New("user not found")
	}
	cp := *identity
	return &cp, nil
}

func (f *fakeLoader) set(identity *model.Identity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.identities[identity.UserId] = identity
}

// fakeConn satisfies ws.Conn and the token carrier used on upgrade.
type fakeConn struct {
	mu     sync.Mutex
	id     string
	userId string
	query  map[string]string
	header map[string]string
	sent   []Frame
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id, query: map[string]string{}, header: map[string]string{}}
}

func (f *fakeConn) ID() string     { return f.id }
func (f *fakeConn) UserID() string { f.mu.Lock(); defer f.mu.Unlock(); return f.userId }
func (f *fakeConn) SetUserID(userId string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userId = userId
}
func (f *fakeConn) ReadMessage() (int, []byte, error)  { return 0, nil, errors.New("not implemented") }
func (f *fakeConn) WriteMessage(int, []byte) error     { return nil }
func (f *fakeConn) ReadJSON(any) error                 { return errors.New("not implemented") }
func (f *fakeConn) Close() error                       { return nil }
func (f *fakeConn) RemoteAddr() string                 { return "test:0" }
func (f *fakeConn) Context() context.Context           { return context.Background() }
func (f *fakeConn) SetContext(context.Context)         {}

func (f *fakeConn) WriteJSON(v any) error {
	raw, err := sonic.Marshal(v)
	if err != nil {
		return err
	}
	var frame Frame
	if err := sonic.Unmarshal(raw, &frame); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, frame)
	return nil
}

func (f *fakeConn) Query(key string, defaultValue ...string) string {
	if v, ok := f.query[key]; ok {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (f *fakeConn) Headers(key string, defaultValue ...string) string {
	if v, ok := f.header[key]; ok {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (f *fakeConn) frames() []Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Frame, len(f.sent))
	copy(out, f.sent)
	return out
}

func testRealtimeConf(t *testing.T) realtime.Conf {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	privDER, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	return realtime.Conf{
		Issuer:     "https://plinth.test",
		Audience:   "realtime",
		KeyId:      "test-key",
		PrivateKey: string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})),
		PublicKey:  string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})),
	}
}

type streamEnv struct {
	handler *IdentityHandler
	issuer  *realtime.Issuer
	loader  *fakeLoader
	hub     ws.Hub
}

func newStreamEnv(t *testing.T) *streamEnv {
	t.Helper()
	conf := testRealtimeConf(t)
	issuer, err := realtime.NewIssuer(conf)
	require.NoError(t, err)
	verifier, err := realtime.NewVerifier(conf)
	require.NoError(t, err)

	loader := &fakeLoader{identities: map[string]*model.Identity{}}
	hub := ws.NewHub()
	return &streamEnv{
		handler: NewIdentityHandler(verifier, loader, hub),
		issuer:  issuer,
		loader:  loader,
		hub:     hub,
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestOnConnectSendsInitialIdentity(t *testing.T) {
	env := newStreamEnv(t)
	env.loader.set(&model.Identity{
		UserId: "usr_1", Email: "a@test", Name: "Ada",
		Role: "USER", CurrentOrgId: "org_1",
		OrgRole: "OWNER", Permissions: []string{"org:read"},
	})

	token, err := env.issuer.Mint("usr_1", "a@test", "Ada", "USER", "org_1")
	require.NoError(t, err)

	conn := newFakeConn("c1")
	conn.query["token"] = token

	require.NoError(t, env.handler.OnConnect(conn))
	assert.Equal(t, "usr_1", conn.UserID())

	frames := conn.frames()
	require.Len(t, frames, 1)
	assert.Equal(t, FrameKindIdentity, frames[0].Kind)
	assert.Equal(t, "org_1", frames[0].Identity.OrgId)
	assert.Equal(t, "OWNER", frames[0].Identity.OrgRole)
}

func TestOnConnectAcceptsBearerHeader(t *testing.T) {
	env := newStreamEnv(t)
	env.loader.set(&model.Identity{UserId: "usr_1", Email: "a@test", Role: "USER"})

	token, err := env.issuer.Mint("usr_1", "a@test", "", "USER", "")
	require.NoError(t, err)

	conn := newFakeConn("c1")
	conn.header["Authorization"] = "Bearer " + token

	require.NoError(t, env.handler.OnConnect(conn))
	assert.Equal(t, "usr_1", conn.UserID())
}

func TestOnConnectRejectsBadToken(t *testing.T) {
	env := newStreamEnv(t)

	conn := newFakeConn("c1")
	assert.ErrorIs(t, env.handler.OnConnect(conn), errMissingToken)

	conn.query["token"] = "not-a-token"
	assert.Error(t, env.handler.OnConnect(conn))
	assert.Empty(t, conn.frames())
}

func TestPushIdentityFansOutToUserConns(t *testing.T) {
	env := newStreamEnv(t)
	env.loader.set(&model.Identity{UserId: "usr_1", Email: "a@test", Role: "USER", CurrentOrgId: "org_1"})

	tab1 := newFakeConn("c1")
	tab1.SetUserID("usr_1")
	tab2 := newFakeConn("c2")
	tab2.SetUserID("usr_1")
	other := newFakeConn("c3")
	other.SetUserID("usr_2")

	env.hub.Register(tab1)
	env.hub.Register(tab2)
	env.hub.Register(other)

	env.handler.PushIdentity("usr_1")

	waitFor(t, func() bool {
		return len(tab1.frames()) == 1 && len(tab2.frames()) == 1
	})
	assert.Empty(t, other.frames())
	assert.Equal(t, "org_1", tab1.frames()[0].Identity.OrgId)

	// no connections: a quiet no-op
	env.handler.PushIdentity("usr_ghost_no_identity_either")
}

func TestBindPushesOnIdentityChanged(t *testing.T) {
	env := newStreamEnv(t)
	env.loader.set(&model.Identity{UserId: "usr_1", Email: "a@test", Role: "USER", CurrentOrgId: "org_2"})

	conn := newFakeConn("c1")
	conn.SetUserID("usr_1")
	env.hub.Register(conn)

	bus := event.NewBus()
	env.handler.Bind(bus)

	bus.Publish(service.IdentityChangedEvent{UserId: "usr_1"})

	waitFor(t, func() bool { return len(conn.frames()) == 1 })
	assert.Equal(t, "org_2", conn.frames()[0].Identity.OrgId)
}
