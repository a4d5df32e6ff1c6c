package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/plinth-io/plinth/internal/core/model"
	httpx "github.com/plinth-io/plinth/pkg/http"
)

func (rt *Router) inviteRouter(r fiber.Router, auth fiber.Handler) {
	inviteGroup := r.Group("/invites", auth)
	{
		inviteGroup.Get("/", rt.listInvites)
		inviteGroup.Post("/", rt.createInvite)
		inviteGroup.Post("/accept", rt.acceptInvite)
		inviteGroup.Post("/:id/revoke", rt.revokeInvite)
	}
}

func (rt *Router) listInvites(c *fiber.Ctx) error {
	userId, err := sessionUserId(c)
	if err != nil {
		return errReply(c, err)
	}

	invites, err := rt.inviteService.ListInvites(userId)
	if err != nil {
		return errReply(c, err)
	}
	return httpx.WithRepJSON(c, invites)
}

func (rt *Router) createInvite(c *fiber.Ctx) error {
	userId, err := sessionUserId(c)
	if err != nil {
		return errReply(c, err)
	}

	var req model.CreateInviteReq
	if err := c.BodyParser(&req); err != nil {
		return httpx.WithRepErrMsg(c, httpx.RequestParameterParsingFailed.Code, err.Error(), c.Path())
	}

	invite, err := rt.inviteService.CreateInvite(userId, &req)
	if err != nil {
		return errReply(c, err)
	}
	// the token is stripped from the model's JSON; it is what the
	// invitee receives, so return it once, at creation
	return httpx.WithRepJSON(c, fiber.Map{
		"invite": invite,
		"token":  invite.Token,
	})
}

func (rt *Router) acceptInvite(c *fiber.Ctx) error {
	userId, err := sessionUserId(c)
	if err != nil {
		return errReply(c, err)
	}

	var req model.AcceptInviteReq
	if err := c.BodyParser(&req); err != nil {
		return httpx.WithRepErrMsg(c, httpx.RequestParameterParsingFailed.Code, err.Error(), c.Path())
	}

	orgId, err := rt.inviteService.AcceptInvite(userId, req.Token)
	if err != nil {
		return errReply(c, err)
	}
	return httpx.WithRepJSON(c, fiber.Map{"orgId": orgId})
}

func (rt *Router) revokeInvite(c *fiber.Ctx) error {
	userId, err := sessionUserId(c)
	if err != nil {
		return errReply(c, err)
	}

	if err := rt.inviteService.RevokeInvite(userId, c.Params("id")); err != nil {
		return errReply(c, err)
	}
	return httpx.WithRepNotDetail(c)
}
