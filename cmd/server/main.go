package main // Entry point package

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/api-client-manager/internal/config"
	"github.com/iliyamo/api-client-manager/internal/database"
	"github.com/iliyamo/api-client-manager/internal/handler"
	"github.com/iliyamo/api-client-manager/internal/i18n"
	"github.com/iliyamo/api-client-manager/internal/identity"
	"github.com/iliyamo/api-client-manager/internal/manager"
	"github.com/iliyamo/api-client-manager/internal/middleware"
	"github.com/iliyamo/api-client-manager/internal/notify"
	"github.com/iliyamo/api-client-manager/internal/queue"
	"github.com/iliyamo/api-client-manager/internal/repository"
	"github.com/iliyamo/api-client-manager/internal/respond"
	"github.com/iliyamo/api-client-manager/internal/router"
	"github.com/iliyamo/api-client-manager/internal/safego"
	"github.com/iliyamo/api-client-manager/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}
	logger := telemetry.SetupLogger(cfg.LogFormat, cfg.LogLevel)

	db, err := database.Open(cfg.DB.User, cfg.DB.Pass, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name)
	if err != nil {
		logger.Error("database connection failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if cfg.MigrateOnStart {
		if err := database.Migrate(db); err != nil {
			logger.Error("database migration failed", "err", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Alerts: queue first, direct webhook as the fallback.
	slack := notify.NewSlack(cfg.Alerts.SlackWebhook, cfg.Env, cfg.Alerts.Timeout)
	var publisher notify.Publisher
	if cfg.Alerts.RabbitMQURL != "" {
		publisher = queue.NewPublisher(cfg.Alerts.RabbitMQURL)
	}
	alerts := notify.NewDispatcher(slack, publisher, cfg.Env, cfg.Alerts.Timeout)
	if publisher != nil && cfg.Alerts.Consume {
		safego.Go("alert-consumer", func() {
			if err := queue.StartAlertConsumer(ctx, cfg.Alerts.RabbitMQURL, alerts.Deliver); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("alert consumer stopped", "err", err)
			}
		})
	}

	settings := manager.Settings{
		PageCeiling:    cfg.PageCeiling,
		SecretCost:     cfg.BcryptCost,
		PublicIDLength: cfg.ClientIDLength,
		SecretLength:   cfg.ClientSecretLength,
	}
	serviceRepo := repository.NewServiceRepo(db)
	clientRepo := repository.NewClientRepo(db)
	customerRepo := repository.NewCustomerRepo(db)
	alertRepo := repository.NewAlertConfigurationRepo(db)

	services := manager.NewServiceManager(serviceRepo, alerts, settings)
	clients := manager.NewClientManager(clientRepo, serviceRepo, alerts, settings)
	customers := manager.NewCustomerManager(customerRepo, alerts, settings)
	alertConfigs := manager.NewAlertConfigurationManager(alertRepo, serviceRepo, alerts, settings)

	var verifier identity.Verifier
	switch cfg.Identity.Mode {
	case config.IdentityJWT:
		verifier = identity.NewJWTVerifier(cfg.Identity.JWTSecret)
	default:
		verifier = identity.NewUpstreamVerifier(cfg.Identity.BaseURL, cfg.Identity.ClientID, cfg.Identity.ClientSecret, cfg.Identity.Timeout)
	}

	bundle := i18n.MustLoad()
	out := respond.NewWriter(bundle)
	auth := middleware.NewAuth(verifier, customers, bundle)

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		logger.Warn("redis unavailable; rate limiting and response cache disabled", "addr", cfg.Redis.Address())
	} else {
		defer rdb.Close()
	}

	telemetry.StartDBStatsCollector(ctx, db, 15*time.Second)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestID(), middleware.RequestLogger(logger), middleware.Metrics())
	e.Use(middleware.Language(bundle, cfg.Language))

	router.RegisterRoutes(e, db)
	api := router.API{
		Services:            handler.NewServiceHandler(services, out),
		Clients:             handler.NewClientHandler(clients, out),
		Customers:           handler.NewCustomerHandler(customers, out),
		AlertConfigurations: handler.NewAlertConfigurationHandler(alertConfigs, out),
		RateLimit:           middleware.RateLimit(cfg.RateLimit, rdb, out),
		Admin:               auth.RequireAdmin(),
		User:                auth.RequireUser(),
		Cache:               middleware.ResponseCache(cfg.Cache, rdb),
	}
	if cfg.ClientCheckEnabled {
		api.ClientCheck = middleware.ClientCredentials(clientRepo, out, nil)
	}
	router.RegisterAPI(e, api)

	addr := cfg.Addr()
	safego.Go("http-server", func() {
		logger.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "err", err)
			stop()
		}
	})

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	}
	logger.Info("server stopped")
}
