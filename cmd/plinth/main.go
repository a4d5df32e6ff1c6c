package main

import (
	"flag"

	"github.com/plinth-io/plinth/internal/core/bootstrap"
	"github.com/plinth-io/plinth/internal/core/config"
	httpx "github.com/plinth-io/plinth/pkg/http"
	"github.com/plinth-io/plinth/pkg/log"
	"github.com/plinth-io/plinth/pkg/version"
)

var (
	configFile string
)

func init() {
	flag.StringVar(&configFile, "conf", "conf.d/config.toml", "conf file path, e.g. -conf ./conf.d/config.toml")
}

func main() {
	flag.Parse()

	appConf := config.NewConf(configFile)

	logger, err := log.NewLog(&appConf.Log)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	log.Infow("starting plinth", "version", version.GetVersion().Version)

	app, err := bootstrap.NewApp(appConf)
	if err != nil {
		log.Fatalw("bootstrap failed", "error", err)
	}

	shutdown := httpx.NewHttp(appConf.Http, app.HttpApp)
	shutdown()
}
