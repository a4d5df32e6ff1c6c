package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/plinth-io/plinth/internal/core/model"
	httpx "github.com/plinth-io/plinth/pkg/http"
)

func (rt *Router) orgRouter(r fiber.Router, auth fiber.Handler) {
	orgGroup := r.Group("/orgs", auth)
	{
		orgGroup.Get("/", rt.listOrgs)
		orgGroup.Post("/", rt.createOrg)
		orgGroup.Post("/switch", rt.switchOrg)
		orgGroup.Patch("/current", rt.updateCurrentOrg)
		orgGroup.Delete("/current", rt.deleteCurrentOrg)
	}
}

func (rt *Router) listOrgs(c *fiber.Ctx) error {
	userId, err := sessionUserId(c)
	if err != nil {
		return errReply(c, err)
	}

	orgs, err := rt.orgService.ListUserOrgs(userId)
	if err != nil {
		return errReply(c, err)
	}
	return httpx.WithRepJSON(c, orgs)
}

func (rt *Router) createOrg(c *fiber.Ctx) error {
	userId, err := sessionUserId(c)
	if err != nil {
		return errReply(c, err)
	}

	var req model.CreateOrgReq
	if err := c.BodyParser(&req); err != nil {
		return httpx.WithRepErrMsg(c, httpx.RequestParameterParsingFailed.Code, err.Error(), c.Path())
	}
	if req.Name == "" {
		return httpx.WithRepErrMsg(c, httpx.OrgNameIsRequired.Code, httpx.OrgNameIsRequired.Msg, c.Path())
	}

	org, err := rt.orgService.CreateOrganization(userId, &req)
	if err != nil {
		return errReply(c, err)
	}
	return httpx.WithRepJSON(c, org)
}

func (rt *Router) switchOrg(c *fiber.Ctx) error {
	userId, err := sessionUserId(c)
	if err != nil {
		return errReply(c, err)
	}

	var req model.SwitchOrgReq
	if err := c.BodyParser(&req); err != nil {
		return httpx.WithRepErrMsg(c, httpx.RequestParameterParsingFailed.Code, err.Error(), c.Path())
	}

	if err := rt.orgService.SwitchCurrentOrg(userId, req.OrgId); err != nil {
		return errReply(c, err)
	}
	return httpx.WithRepNotDetail(c)
}

func (rt *Router) updateCurrentOrg(c *fiber.Ctx) error {
	userId, err := sessionUserId(c)
	if err != nil {
		return errReply(c, err)
	}

	var req model.UpdateOrgReq
	if err := c.BodyParser(&req); err != nil {
		return httpx.WithRepErrMsg(c, httpx.RequestParameterParsingFailed.Code, err.Error(), c.Path())
	}

	org, err := rt.orgService.UpdateCurrentOrg(userId, &req)
	if err != nil {
		return errReply(c, err)
	}
	return httpx.WithRepJSON(c, org)
}

func (rt *Router) deleteCurrentOrg(c *fiber.Ctx) error {
	userId, err := sessionUserId(c)
	if err != nil {
		return errReply(c, err)
	}

	if err := rt.orgService.DeleteCurrentOrg(userId); err != nil {
		return errReply(c, err)
	}
	return httpx.WithRepNotDetail(c)
}
