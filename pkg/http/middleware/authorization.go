package middleware

import (
	"errors"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	goJwt "github.com/golang-jwt/jwt/v5"
	"github.com/plinth-io/plinth/pkg/http"
	"github.com/plinth-io/plinth/pkg/http/jwt"
	"github.com/plinth-io/plinth/pkg/log"
)

const ClaimsKey = "claims"

// AuthorizationMiddleware authenticates a request from the session cookie,
// falling back to an Authorization bearer header. It fails closed: any
// parse error is treated as unauthenticated.
//
// Browser navigations get a redirect to the login page with the original
// path preserved; API calls get a 401 envelope.
// This function is used as the middleware of fiber.
func AuthorizationMiddleware(auth *http.Auth) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := SessionToken(c, auth)
		if token == "" {
			return reject(c, auth, http.TokenBeEmpty)
		}

		claims, err := jwt.ParseSessionToken(token, auth.SecretKey)
		if err != nil {
			if errors.Is(err, goJwt.ErrTokenExpired) {
				return reject(c, auth, http.TokenExpired)
			}
			log.Debugf("parse session token failed: %v", err)
			return reject(c, auth, http.InvalidToken)
		}

		c.Locals(ClaimsKey, claims)
		return c.Next()
	}
}

// SessionToken extracts the session token from the cookie, falling back to
// an Authorization bearer header. Every route that reads a session token
// goes through this, so cookie and header clients see the same behavior.
func SessionToken(c *fiber.Ctx, auth *http.Auth) string {
	if token := c.Cookies(auth.CookieName); token != "" {
		return token
	}
	header := c.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// GetClaims returns the session claims stashed by AuthorizationMiddleware.
func GetClaims(c *fiber.Ctx) (*jwt.SessionClaims, bool) {
	claims, ok := c.Locals(ClaimsKey).(*jwt.SessionClaims)
	return claims, ok
}

func reject(c *fiber.Ctx, auth *http.Auth, code *http.Response) error {
	if wantsHTML(c) && auth.LoginPath != "" {
		return c.Redirect(auth.LoginPath+"?redirect="+url.QueryEscape(c.OriginalURL()), fiber.StatusFound)
	}
	c.Status(fiber.StatusUnauthorized)
	return http.WithRepErrMsg(c, code.Code, code.Msg, c.Path())
}

func wantsHTML(c *fiber.Ctx) bool {
	accept := c.Get("Accept")
	return strings.Contains(accept, "text/html") && !strings.HasPrefix(c.Path(), "/api/")
}
