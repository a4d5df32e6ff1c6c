package router

import (
	"github.com/gofiber/fiber/v2"
	httpx "github.com/plinth-io/plinth/pkg/http"
)

// adminRouter is the platform-operator surface, gated on the global ADMIN
// role rather than org membership.
func (rt *Router) adminRouter(r fiber.Router, auth fiber.Handler) {
	adminGroup := r.Group("/admin", auth)
	{
		adminGroup.Get("/orgs", rt.adminListOrgs)
		adminGroup.Delete("/orgs/:id", rt.adminDeleteOrg)
		adminGroup.Patch("/users/:id/role", rt.adminUpdateUserRole)
	}
}

func (rt *Router) adminListOrgs(c *fiber.Ctx) error {
	userId, err := sessionUserId(c)
	if err != nil {
		return errReply(c, err)
	}

	orgs, err := rt.orgService.ListAllOrgs(userId)
	if err != nil {
		return errReply(c, err)
	}
	return httpx.WithRepJSON(c, orgs)
}

func (rt *Router) adminDeleteOrg(c *fiber.Ctx) error {
	userId, err := sessionUserId(c)
	if err != nil {
		return errReply(c, err)
	}

	if err := rt.orgService.DeleteOrgAdmin(userId, c.Params("id")); err != nil {
		return errReply(c, err)
	}
	return httpx.WithRepNotDetail(c)
}

func (rt *Router) adminUpdateUserRole(c *fiber.Ctx) error {
	userId, err := sessionUserId(c)
	if err != nil {
		return errReply(c, err)
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := c.BodyParser(&req); err != nil {
		return httpx.WithRepErrMsg(c, httpx.RequestParameterParsingFailed.Code, err.Error(), c.Path())
	}

	if err := rt.orgService.UpdateUserRole(userId, c.Params("id"), req.Role); err != nil {
		return errReply(c, err)
	}
	return httpx.WithRepNotDetail(c)
}
