package config

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/plinth-io/plinth/internal/core/consts"
	"github.com/plinth-io/plinth/pkg/cache"
	"github.com/plinth-io/plinth/pkg/database"
	"github.com/plinth-io/plinth/pkg/http"
	"github.com/plinth-io/plinth/pkg/log"
	"github.com/plinth-io/plinth/pkg/realtime"
	"github.com/spf13/viper"
)

type AppConfig struct {
	Log      log.Conf
	Http     http.Http
	Database database.Database
	Redis    cache.Redis
	Realtime realtime.Conf
}

var (
	cfg  AppConfig
	once sync.Once
)

func NewConf(confDir string) AppConfig {
	once.Do(func() {
		var err error
		cfg, err = LoadConfigFile(confDir)
		if err != nil {
			panic(fmt.Sprintf("load config file error: %s", err))
		}
	})
	return cfg
}

// LoadConfigFile load config file
func LoadConfigFile(confDir string) (AppConfig, error) {

	config := viper.New()
	config.SetConfigFile(confDir)
	if err := config.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("failed to read configuration file: %v", err)
	}

	config.WatchConfig()
	config.OnConfigChange(func(e fsnotify.Event) {
		log.Infof("The configuration changes, re -analyze the configuration file: %s", e.Name)
		if err := config.Unmarshal(&cfg); err != nil {
			log.Errorw("failed to unmarshal configuration file", "error", err)
		}
	})
	if err := config.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal configuration file: %v", err)
	}
	cfg.setDefaults()
	log.Infow("config file loaded",
		"path", confDir,
	)

	return cfg, nil
}

func (c *AppConfig) setDefaults() {
	if c.Http.Auth.CookieName == "" {
		c.Http.Auth.CookieName = consts.DefaultCookieName
	}
	if c.Http.Auth.SessionExpire == 0 {
		c.Http.Auth.SessionExpire = consts.DefaultSessionExpire
	}
	c.Realtime.SetDefaults()
}

// Validate rejects deployments that would mint unverifiable tokens. These
// are startup failures on purpose: a server that falls back to weak or
// absent keys would hand out sessions nobody can trust.
func (c *AppConfig) Validate() error {
	if c.Http.Auth.SecretKey == "" {
		return errors.New("config: http.auth.secretKey is required")
	}
	if c.Realtime.PrivateKey == "" || c.Realtime.PublicKey == "" {
		return errors.New("config: realtime signing keys are required")
	}
	if _, err := c.Realtime.ParsePrivateKey(); err != nil {
		return errors.Wrap(err, "config: realtime private key")
	}
	if _, err := realtime.ParsePublicKey(c.Realtime.PublicKey); err != nil {
		return errors.Wrap(err, "config: realtime public key")
	}
	if c.Realtime.Issuer == "" || c.Realtime.Audience == "" {
		return errors.New("config: realtime issuer and audience are required")
	}
	return nil
}
