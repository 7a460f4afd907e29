package main

import (
	"fmt"
	"log"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/getportico/portico"
	"github.com/getportico/portico/api"
	"github.com/getportico/portico/config"
	"github.com/getportico/portico/guard"
	"github.com/getportico/portico/host"
	"github.com/getportico/portico/impersonate"
	"github.com/getportico/portico/logger"
	"github.com/getportico/portico/session"
	"github.com/getportico/portico/tenant"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	zlog.Info("Starting Portico Edge Gateway",
		zap.Int("port", cfg.Port),
		zap.String("app_domain", cfg.AppDomain),
		zap.String("directory_url", cfg.DirectoryURL),
	)

	// Session store: Redis when configured, in-process otherwise.
	var store session.Store
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		store = session.NewRedisStore(client, "portico:session:")
		zlog.Info("using redis session store", zap.String("addr", cfg.RedisAddr))
	} else {
		store = session.NewMemoryStore()
		zlog.Warn("using in-memory session store; sessions will not survive restarts")
	}

	signer := session.NewCredentialSigner(cfg.SessionSecret, cfg.SessionTTL)
	bridge := session.NewBridge(store, signer, cfg.AppDomain, cfg.SessionTTL, zlog)
	directory := tenant.NewDirectory(cfg.DirectoryURL, zlog)

	urls := &host.URLBuilder{Scheme: cfg.AppScheme, RootDomain: cfg.AppDomain}
	g := guard.New(directory, zlog)
	protect := guard.NewMiddleware(g, bridge, urls, cfg.AppDomain, zlog)

	handoff := impersonate.NewHandoff(bridge, portico.SystemAdminAuthorizer(), urls, cfg.ConsolePath, zlog)
	h := api.NewHandler(directory, bridge, handoff, portico.DirectoryAuthenticator(directory), urls, cfg.AppDomain, zlog)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(handoff.ConsumeMiddleware)

	h.RegisterRoutes(e)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	// Everything else is workspace content behind the guard.
	e.GET("/*", func(c echo.Context) error {
		return c.NoContent(200)
	}, protect.Protect)

	zlog.Info("Server is starting", zap.Int("port", cfg.Port))
	if err := e.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil {
		zlog.Fatal("server failed to start", zap.Error(err))
	}
}
