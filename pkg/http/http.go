package http

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/plinth-io/plinth/pkg/log"
)

type Http struct {
	Host            string
	Port            int
	Mode            string
	ContextPath     string
	ExposeMetrics   bool
	AccessLog       bool
	ReadTimeout     int
	WriteTimeout    int
	IdleTimeout     int
	ShutdownTimeout int
	TLS             TLS
	Auth            Auth
}

type TLS struct {
	CertFile string
	KeyFile  string
}

// Auth holds the symmetric session-token settings. The asymmetric
// realtime-token settings live in pkg/realtime.
type Auth struct {
	SecretKey     string
	SessionExpire time.Duration `mapstructure:"sessionExpire"`
	CookieName    string        `mapstructure:"cookieName"`
	SecureCookie  bool          `mapstructure:"secureCookie"`
	LoginPath     string        `mapstructure:"loginPath"`
}

// NewHttp starts the fiber app and returns a shutdown hook that blocks
// until a termination signal arrives, then drains in-flight requests.
func NewHttp(cfg Http, app *fiber.App) func() {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	go func() {
		log.Infof("http server start at: %s", addr)
		var err error
		if cfg.TLS.CertFile != "" && cfg.TLS.KeyFile != "" {
			err = app.ListenTLS(addr, cfg.TLS.CertFile, cfg.TLS.KeyFile)
		} else {
			err = app.Listen(addr)
		}
		if err != nil {
			log.Errorw("http server error", "error", err)
			os.Exit(1)
		}
	}()

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	return func() {
		<-sc
		log.Info("http server shutting down...")

		timeout := time.Duration(cfg.ShutdownTimeout) * time.Second
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		if err := app.ShutdownWithTimeout(timeout); err != nil {
			log.Errorw("http server shutdown error", "error", err)
			return
		}
		log.Info("http server shut down gracefully")
	}
}
