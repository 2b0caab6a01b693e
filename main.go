package main

import (
	"crypto/tls"
	"os"
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"todo-api/api"
	"todo-api/config"
	"todo-api/enhance"
	"todo-api/storage"
)

func main() {
	cfg, err := config.Load(os.Getenv("TODO_CONFIG_DIR"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	store, err := storage.New(cfg.StorageConnectionString, cfg.TodosTable)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	rc := redis.NewClient(redisOptions(cfg.RedisConnectionString))
	seq := storage.NewSequence(rc, "")
	cached := storage.NewCache(store, rc, cfg.CacheTTL)

	logger := log.New()

	var enh api.Enhancer
	if cfg.WebhookURL != "" {
		enh = enhance.New(cfg.WebhookURL, cfg.WebhookTimeout, logger)
	} else {
		logger.Info("no webhook url configured; enhancement disabled")
	}

	e := echo.New()
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))
	e.Use(echoprometheus.NewMiddleware("todoapi"))
	e.GET("/metrics", echoprometheus.NewHandler())

	api.Register(e, cached, seq, enh, logger)

	e.Logger.Fatal(e.Start(cfg.ListenAddr))
}

// redisOptions accepts either a redis URL or the comma-separated
// host,key=value form some managed providers hand out.
func redisOptions(connStr string) *redis.Options {
	opts, err := redis.ParseURL(connStr)
	if err == nil {
		return opts
	}
	parts := strings.Split(connStr, ",")
	opts = &redis.Options{Addr: parts[0]}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(kv[0]) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.ToLower(kv[1]) == "true" {
				opts.TLSConfig = &tls.Config{}
			}
		}
	}
	return opts
}
