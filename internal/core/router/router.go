package router

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/plinth-io/plinth/internal/core/consts"
	"github.com/plinth-io/plinth/internal/core/service"
	"github.com/plinth-io/plinth/internal/core/stream"
	httpx "github.com/plinth-io/plinth/pkg/http"
	"github.com/plinth-io/plinth/pkg/http/middleware"
	"github.com/plinth-io/plinth/pkg/ratelimit"
	"github.com/plinth-io/plinth/pkg/realtime"
	"github.com/plinth-io/plinth/pkg/version"
	"github.com/plinth-io/plinth/pkg/ws"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Router struct {
	Http *httpx.Http

	authService     *service.AuthService
	orgService      *service.OrgService
	inviteService   *service.InviteService
	realtimeService *service.RealtimeService

	realtimeConf realtime.Conf
	identity     *stream.IdentityHandler
	hub          ws.Hub
	authLimiter  *ratelimit.Limiter
}

func NewRouter(
	httpConf *httpx.Http,
	realtimeConf realtime.Conf,
	authService *service.AuthService,
	orgService *service.OrgService,
	inviteService *service.InviteService,
	realtimeService *service.RealtimeService,
	identity *stream.IdentityHandler,
	hub ws.Hub,
) *Router {
	return &Router{
		Http:            httpConf,
		realtimeConf:    realtimeConf,
		authService:     authService,
		orgService:      orgService,
		inviteService:   inviteService,
		realtimeService: realtimeService,
		identity:        identity,
		hub:             hub,
		authLimiter:     ratelimit.NewLimiter(consts.AuthRateLimit, consts.AuthRateWindow),
	}
}

func (rt *Router) Router() *fiber.App {

	app := fiber.New(fiber.Config{
		AppName:               "plinth",
		DisableStartupMessage: rt.Http.Mode == "release",
	})

	app.Use(middleware.ExceptionMiddleware)
	app.Use(middleware.CorsMiddleware(""))
	app.Use(middleware.RealIPMiddleware())

	if rt.Http.AccessLog {
		app.Use(middleware.AccessLogMiddleware(rt.Http))
	}

	if rt.Http.ExposeMetrics {
		prometheus.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "plinth_realtime_connections",
			Help: "Live realtime websocket connections.",
		}, func() float64 {
			return float64(rt.hub.Count())
		}))
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	app.Get("/version", func(c *fiber.Ctx) error {
		return c.JSON(version.GetVersion())
	})

	// the signing keys are public on purpose
	app.Get("/.well-known/jwks.json", rt.jwks)

	auth := middleware.AuthorizationMiddleware(&rt.Http.Auth)
	limited := middleware.RateLimitMiddleware(rt.authLimiter)

	api := app.Group("/api")
	{
		rt.authRouter(api, auth, limited)
		rt.realtimeRouter(api, auth)
		rt.orgRouter(api, auth)
		rt.memberRouter(api, auth)
		rt.inviteRouter(api, auth)
		rt.adminRouter(api, auth)
	}

	return app
}

// errReply maps service errors onto the response envelope. Unknown errors
// stay opaque to the client.
func errReply(c *fiber.Ctx, err error) error {
	var status int
	var code *httpx.Response

	switch err {
	case service.ErrUnauthenticated:
		status, code = fiber.StatusUnauthorized, httpx.Unauthorized
	case service.ErrNoOrgSelected:
		status, code = fiber.StatusForbidden, httpx.NoOrgSelected
	case service.ErrAccessDenied:
		status, code = fiber.StatusForbidden, httpx.AccessDenied
	case service.ErrForbidden:
		status, code = fiber.StatusForbidden, httpx.Forbidden
	case service.ErrInviteInvalid:
		status, code = fiber.StatusBadRequest, httpx.InviteInvalid
	case service.ErrUserExists:
		status, code = fiber.StatusConflict, httpx.UserAlreadyExist
	case service.ErrInvalidCredentials:
		status, code = fiber.StatusUnauthorized, httpx.UserIncorrectPassword
	case service.ErrEmailPasswordRequired:
		status, code = fiber.StatusBadRequest, httpx.EmailAndPasswordAreRequired
	case service.ErrUserNotFound:
		status, code = fiber.StatusNotFound, httpx.UserNotExist
	case service.ErrOrgNotFound:
		status, code = fiber.StatusNotFound, httpx.OrgNotExist
	case service.ErrOrgNameRequired:
		status, code = fiber.StatusBadRequest, httpx.OrgNameIsRequired
	case service.ErrMemberNotFound:
		status, code = fiber.StatusNotFound, httpx.MemberNotExist
	case service.ErrLastOwner:
		status, code = fiber.StatusConflict, httpx.LastOwnerLocked
	case service.ErrInvalidRole:
		status, code = fiber.StatusBadRequest, httpx.BadRequest
	case service.ErrConfigurationError:
		status, code = fiber.StatusInternalServerError, httpx.ConfigurationError
	default:
		status, code = fiber.StatusInternalServerError, httpx.InternalError
	}

	c.Status(status)
	return httpx.WithRepErrMsg(c, code.Code, code.Msg, c.Path())
}

// sessionUserId pulls the authenticated subject from the request.
func sessionUserId(c *fiber.Ctx) (string, error) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return "", service.ErrUnauthenticated
	}
	return claims.UserId, nil
}
