package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/plinth-io/plinth/internal/core/model"
	httpx "github.com/plinth-io/plinth/pkg/http"
)

func (rt *Router) memberRouter(r fiber.Router, auth fiber.Handler) {
	memberGroup := r.Group("/members", auth)
	{
		memberGroup.Get("/", rt.listMembers)
		memberGroup.Patch("/:userId", rt.updateMember)
	}
}

func (rt *Router) listMembers(c *fiber.Ctx) error {
	userId, err := sessionUserId(c)
	if err != nil {
		return errReply(c, err)
	}

	members, err := rt.orgService.ListOrgMembers(userId)
	if err != nil {
		return errReply(c, err)
	}
	return httpx.WithRepJSON(c, members)
}

func (rt *Router) updateMember(c *fiber.Ctx) error {
	userId, err := sessionUserId(c)
	if err != nil {
		return errReply(c, err)
	}

	var req model.UpdateMemberReq
	if err := c.BodyParser(&req); err != nil {
		return httpx.WithRepErrMsg(c, httpx.RequestParameterParsingFailed.Code, err.Error(), c.Path())
	}

	if err := rt.orgService.UpdateMember(userId, c.Params("userId"), &req); err != nil {
		return errReply(c, err)
	}
	return httpx.WithRepNotDetail(c)
}
