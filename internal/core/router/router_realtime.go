package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	httpx "github.com/plinth-io/plinth/pkg/http"
	"github.com/plinth-io/plinth/pkg/realtime"
	"github.com/plinth-io/plinth/pkg/ws"
)

func (rt *Router) realtimeRouter(r fiber.Router, auth fiber.Handler) {
	realtimeGroup := r.Group("/realtime")
	{
		realtimeGroup.Get("/token", auth, rt.realtimeToken)

		// the upgrade authenticates itself with the realtime token,
		// not the session cookie
		realtimeGroup.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		realtimeGroup.Get("/ws", ws.Handle(rt.hub, rt.identity))
	}
}

// realtimeToken exchanges a valid session for a short-lived asymmetric
// credential carrying the identity snapshot of the moment.
func (rt *Router) realtimeToken(c *fiber.Ctx) error {
	userId, err := sessionUserId(c)
	if err != nil {
		return errReply(c, err)
	}

	token, err := rt.realtimeService.MintToken(userId)
	if err != nil {
		return errReply(c, err)
	}
	return httpx.WithRepJSON(c, fiber.Map{"token": token})
}

// jwks publishes the active and retired public keys so the realtime tier
// verifies tokens without sharing secrets.
func (rt *Router) jwks(c *fiber.Ctx) error {
	keySet, err := realtime.BuildJWKS(rt.realtimeConf)
	if err != nil {
		c.Status(fiber.StatusInternalServerError)
		return httpx.WithRepErrMsg(c, httpx.ConfigurationError.Code, httpx.ConfigurationError.Msg, c.Path())
	}
	return c.JSON(keySet)
}
