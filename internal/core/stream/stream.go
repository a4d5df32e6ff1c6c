package stream

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/plinth-io/plinth/internal/core/model"
	"github.com/plinth-io/plinth/internal/core/service"
	"github.com/plinth-io/plinth/pkg/event"
	"github.com/plinth-io/plinth/pkg/log"
	"github.com/plinth-io/plinth/pkg/realtime"
	"github.com/plinth-io/plinth/pkg/ws"
)

// Frame kinds pushed to realtime clients.
const (
	FrameKindIdentity = "identity"
)

// Frame is one JSON message on the realtime stream.
type Frame struct {
	Kind     string    `json:"kind"`
	Identity *Identity `json:"identity,omitempty"`
}

// Identity is the wire shape of an identity push. OrgId mirrors the
// user's currently selected org so clients can re-key their state on it.
type Identity struct {
	UserId      string   `json:"userId"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	OrgId       string   `json:"orgId,omitempty"`
	OrgRole     string   `json:"orgRole,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// WireIdentity converts a store identity into its wire shape. The HTTP
// snapshot endpoint and the ws stream share it so clients see one format.
func WireIdentity(identity *model.Identity) *Identity {
	return &Identity{
		UserId:      identity.UserId,
		Email:       identity.Email,
		Name:        identity.Name,
		Role:        identity.Role,
		OrgId:       identity.CurrentOrgId,
		OrgRole:     identity.OrgRole,
		Permissions: identity.Permissions,
	}
}

func identityFrame(identity *model.Identity) Frame {
	return Frame{
		Kind:     FrameKindIdentity,
		Identity: WireIdentity(identity),
	}
}

var errMissingToken = errors.New("stream: missing realtime token")

// tokenCarrier is the slice of the fiber websocket connection the handler
// needs to pull credentials off the upgrade request.
type tokenCarrier interface {
	Query(key string, defaultValue ...string) string
	Headers(key string, defaultValue ...string) string
}

// IdentityLoader is satisfied by the auth service.
type IdentityLoader interface {
	Identity(userId string) (*model.Identity, error)
}

// IdentityHandler authenticates realtime connections with a short-lived
// token and pushes identity frames whenever the subject's identity changes.
// The token only proves who is on the socket; every frame is built from a
// fresh store read.
type IdentityHandler struct {
	verifier   *realtime.Verifier
	identities IdentityLoader
	hub        ws.Hub
}

func NewIdentityHandler(verifier *realtime.Verifier, identities IdentityLoader, hub ws.Hub) *IdentityHandler {
	return &IdentityHandler{
		verifier:   verifier,
		identities: identities,
		hub:        hub,
	}
}

// Bind subscribes the handler to identity change events on the bus.
func (h *IdentityHandler) Bind(bus *event.Bus) {
	bus.SubscribeFunc(service.IdentityChangedEvent{}.EventName(), func(e event.Event) {
		changed, ok := e.(service.IdentityChangedEvent)
		if !ok {
			return
		}
		h.PushIdentity(changed.UserId)
	})
}

// OnConnect verifies the realtime token, binds the connection to its user
// and sends the initial identity frame. A bad token drops the socket.
func (h *IdentityHandler) OnConnect(conn ws.Conn) error {
	token := h.extractToken(conn)
	if token == "" {
		return errMissingToken
	}

	claims, err := h.verifier.Verify(token)
	if err != nil {
		return err
	}
	conn.SetUserID(claims.Subject)

	identity, err := h.identities.Identity(claims.Subject)
	if err != nil {
		return errors.Wrap(err, "stream: load identity")
	}
	return conn.WriteJSON(identityFrame(identity))
}

// OnMessage ignores client frames; the stream is server-push only.
func (h *IdentityHandler) OnMessage(conn ws.Conn, messageType int, data []byte) error {
	return nil
}

func (h *IdentityHandler) OnDisconnect(conn ws.Conn, err error) {
	if err != nil && conn.UserID() != "" {
		log.Debugw("realtime connection closed", "userId", conn.UserID(), "error", err)
	}
}

func (h *IdentityHandler) OnError(conn ws.Conn, err error) {
	log.Warnw("realtime connection error", "connId", conn.ID(), "remote", conn.RemoteAddr(), "error", err)
}

// PushIdentity re-reads the user's identity and fans it out to every live
// connection of that user. Users without a connection are skipped quietly.
func (h *IdentityHandler) PushIdentity(userId string) {
	identity, err := h.identities.Identity(userId)
	if err != nil {
		log.Errorw("failed to build identity push", "userId", userId, "error", err)
		return
	}
	if err := h.hub.SendToUserJSON(userId, identityFrame(identity)); err != nil && err != ws.ErrUserNotConnected {
		log.Warnw("identity push failed", "userId", userId, "error", err)
	}
}

func (h *IdentityHandler) extractToken(conn ws.Conn) string {
	carrier, ok := conn.(tokenCarrier)
	if !ok {
		return ""
	}
	if auth := carrier.Headers("Authorization"); auth != "" {
		if strings.HasPrefix(auth, "Bearer ") {
			return strings.TrimPrefix(auth, "Bearer ")
		}
	}
	return carrier.Query("token")
}
