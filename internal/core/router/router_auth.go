package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/plinth-io/plinth/internal/core/model"
	"github.com/plinth-io/plinth/internal/core/stream"
	httpx "github.com/plinth-io/plinth/pkg/http"
	"github.com/plinth-io/plinth/pkg/http/jwt"
	"github.com/plinth-io/plinth/pkg/http/middleware"
)

func (rt *Router) authRouter(r fiber.Router, auth fiber.Handler, limited fiber.Handler) {
	authGroup := r.Group("/auth")
	{
		authGroup.Post("/signup", limited, rt.signup)
		authGroup.Post("/login", limited, rt.login)

		authGroup.Post("/logout", auth, rt.logout)
		authGroup.Patch("/avatar", auth, rt.updateAvatar)

		// me is deliberately outside the auth middleware: anonymous
		// callers get {user:null}, never a 401
		authGroup.Get("/me", rt.me)
	}
}

func (rt *Router) signup(c *fiber.Ctx) error {
	var req model.SignupReq
	if err := c.BodyParser(&req); err != nil {
		return httpx.WithRepErrMsg(c, httpx.RequestParameterParsingFailed.Code, err.Error(), c.Path())
	}

	user, token, err := rt.authService.Signup(&req, rt.Http.Auth)
	if err != nil {
		return errReply(c, err)
	}

	httpx.SetSessionCookie(c, &rt.Http.Auth, token)
	return httpx.WithRepJSON(c, fiber.Map{
		"user":  user,
		"token": token,
	})
}

func (rt *Router) login(c *fiber.Ctx) error {
	var req model.LoginReq
	if err := c.BodyParser(&req); err != nil {
		return httpx.WithRepErrMsg(c, httpx.RequestParameterParsingFailed.Code, err.Error(), c.Path())
	}

	user, token, err := rt.authService.Login(&req, rt.Http.Auth)
	if err != nil {
		return errReply(c, err)
	}

	httpx.SetSessionCookie(c, &rt.Http.Auth, token)
	return httpx.WithRepJSON(c, fiber.Map{
		"user":  user,
		"token": token,
	})
}

func (rt *Router) logout(c *fiber.Ctx) error {
	userId, err := sessionUserId(c)
	if err != nil {
		return errReply(c, err)
	}

	rt.authService.Logout(userId)
	httpx.ClearSessionCookie(c, &rt.Http.Auth)
	return httpx.WithRepNotDetail(c)
}

func (rt *Router) me(c *fiber.Ctx) error {
	token := middleware.SessionToken(c, &rt.Http.Auth)
	if token == "" {
		return httpx.WithRepJSON(c, fiber.Map{"user": nil})
	}

	claims, err := jwt.ParseSessionToken(token, rt.Http.Auth.SecretKey)
	if err != nil {
		return httpx.WithRepJSON(c, fiber.Map{"user": nil})
	}

	identity, err := rt.authService.Identity(claims.UserId)
	if err != nil {
		return httpx.WithRepJSON(c, fiber.Map{"user": nil})
	}
	return httpx.WithRepJSON(c, fiber.Map{"user": stream.WireIdentity(identity)})
}

func (rt *Router) updateAvatar(c *fiber.Ctx) error {
	userId, err := sessionUserId(c)
	if err != nil {
		return errReply(c, err)
	}

	var req struct {
		Avatar string `json:"avatar"`
	}
	if err := c.BodyParser(&req); err != nil {
		return httpx.WithRepErrMsg(c, httpx.RequestParameterParsingFailed.Code, err.Error(), c.Path())
	}

	if err := rt.authService.UpdateAvatar(userId, req.Avatar); err != nil {
		return errReply(c, err)
	}
	return httpx.WithRepNotDetail(c)
}
