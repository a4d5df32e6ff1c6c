package bootstrap

import (
	"github.com/gofiber/fiber/v2"
	"github.com/plinth-io/plinth/internal/core/config"
	"github.com/plinth-io/plinth/internal/core/repo"
	"github.com/plinth-io/plinth/internal/core/router"
	"github.com/plinth-io/plinth/internal/core/service"
	"github.com/plinth-io/plinth/internal/core/stream"
	"github.com/plinth-io/plinth/pkg/cache"
	"github.com/plinth-io/plinth/pkg/database"
	"github.com/plinth-io/plinth/pkg/event"
	"github.com/plinth-io/plinth/pkg/realtime"
	"github.com/plinth-io/plinth/pkg/ws"
)

// App holds the assembled server.
type App struct {
	HttpApp *fiber.App
	AppConf config.AppConfig
	Hub     ws.Hub
	Bus     *event.Bus
}

// NewApp wires the store, cache, services and router together. Constructor
// wiring on purpose; the object graph is small enough to read in one place.
func NewApp(appConf config.AppConfig) (*App, error) {
	if err := appConf.Validate(); err != nil {
		return nil, err
	}

	gormDB, err := database.NewDatabase(appConf.Database)
	if err != nil {
		return nil, err
	}
	db := database.NewGormDB(gormDB)

	redisClient, err := cache.NewRedis(appConf.Redis)
	if err != nil {
		return nil, err
	}
	redisCache := cache.NewRedisCache(redisClient)

	issuer, err := realtime.NewIssuer(appConf.Realtime)
	if err != nil {
		return nil, err
	}
	verifier, err := realtime.NewVerifier(appConf.Realtime)
	if err != nil {
		return nil, err
	}

	bus := event.NewBus()
	hub := ws.NewHub()

	userRepo := repo.NewUserRepo(db, redisCache)
	orgRepo := repo.NewOrgRepo(db)
	membershipRepo := repo.NewMembershipRepo(db)
	inviteRepo := repo.NewInviteRepo(db)

	guard := service.NewGuard(userRepo, orgRepo, membershipRepo)
	orgService := service.NewOrgService(userRepo, orgRepo, membershipRepo, guard, bus)
	authService := service.NewAuthService(userRepo, membershipRepo, orgService, bus)
	inviteService := service.NewInviteService(userRepo, inviteRepo, guard, bus)
	realtimeService := service.NewRealtimeService(userRepo, issuer)

	identityHandler := stream.NewIdentityHandler(verifier, authService, hub)
	identityHandler.Bind(bus)

	rt := router.NewRouter(
		&appConf.Http,
		appConf.Realtime,
		authService,
		orgService,
		inviteService,
		realtimeService,
		identityHandler,
		hub,
	)

	return &App{
		HttpApp: rt.Router(),
		AppConf: appConf,
		Hub:     hub,
		Bus:     bus,
	}, nil
}
