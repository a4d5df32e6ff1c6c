package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// SetSessionCookie writes the HTTP-only session cookie. SameSite stays Lax
// so top-level navigations keep the session while cross-site POSTs drop it.
func SetSessionCookie(c *fiber.Ctx, auth *Auth, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.SessionExpire.Seconds()),
		HTTPOnly: true,
		Secure:   auth.SecureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie immediately.
func ClearSessionCookie(c *fiber.Ctx, auth *Auth) {
	c.Cookie(&fiber.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   auth.SecureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
