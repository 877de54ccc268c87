package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/natabridge/natabridge/internal/config"
	"github.com/natabridge/natabridge/internal/domain/account"
	"github.com/natabridge/natabridge/internal/domain/chw"
	"github.com/natabridge/natabridge/internal/domain/dashboard"
	"github.com/natabridge/natabridge/internal/domain/education"
	"github.com/natabridge/natabridge/internal/domain/emergency"
	"github.com/natabridge/natabridge/internal/domain/mother"
	"github.com/natabridge/natabridge/internal/domain/nataband"
	"github.com/natabridge/natabridge/internal/domain/notification"
	"github.com/natabridge/natabridge/internal/domain/offlinesync"
	"github.com/natabridge/natabridge/internal/domain/risk"
	"github.com/natabridge/natabridge/internal/domain/triage"
	"github.com/natabridge/natabridge/internal/platform/auth"
	"github.com/natabridge/natabridge/internal/platform/db"
	"github.com/natabridge/natabridge/internal/platform/events"
	"github.com/natabridge/natabridge/internal/platform/middleware"
	"github.com/natabridge/natabridge/internal/platform/telemetry"
	"github.com/natabridge/natabridge/internal/platform/websocket"
)

const (
	version         = "0.1.0"
	requestTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return err
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	tx := db.NewTransactor(pool)
	metrics := telemetry.NewProvider()
	metrics.WatchPool(func() telemetry.PoolStats { return pool.Stat() })

	engine, err := loadEngine(cfg, logger)
	if err != nil {
		return err
	}
	if cfg.RulesFile != "" {
		go func() {
			err := risk.WatchRuleSet(ctx, cfg.RulesFile, logger, func(rs risk.RuleSet) {
				err := engine.Reload(rs)
				metrics.ObserveRulesReload(err == nil)
				if err != nil {
					logger.Error().Err(err).Msg("rules reload rejected")
					return
				}
				logger.Info().Str("path", cfg.RulesFile).Msg("risk rules reloaded")
			})
			if err != nil {
				logger.Error().Err(err).Msg("rules watcher stopped")
			}
		}()
	}

	// Alert delivery
	hub := websocket.NewHub(logger)
	fanout := events.NewFanout(logger, hub)
	closeRedis := attachRedis(ctx, cfg, fanout, logger)
	defer closeRedis()

	// Domain services
	issuer := auth.NewIssuer([]byte(cfg.SessionSecret), cfg.TokenTTL)
	accountSvc := account.NewService(account.NewRepoPG(pool), issuer)
	motherSvc := mother.NewService(mother.NewRepoPG(pool))
	chwSvc := chw.NewService(chw.NewAssignmentRepoPG(pool), chw.NewVisitRepoPG(pool))
	educationSvc := education.NewService(education.NewRepoPG(pool))
	notificationSvc := notification.NewService(notification.NewRepoPG(pool), fanout)

	triageSvc := triage.NewService(engine, triage.NewRepoPG(pool), motherSvc, notificationSvc, chwSvc, tx)
	triageSvc.SetMetrics(metrics)

	emergencySvc := emergency.NewService(emergency.NewAlertRepoPG(pool), emergency.NewReferralRepoPG(pool),
		emergency.NewTransportRepoPG(pool), notificationSvc, tx)

	natabandSvc := nataband.NewService(engine, nataband.NewRepoPG(pool), notificationSvc, tx)
	natabandSvc.SetMetrics(metrics)

	dashboardSvc := dashboard.NewService(dashboard.NewRepoPG(pool))

	syncSvc := offlinesync.NewService(motherSvc, chwSvc, educationSvc, emergencySvc, tx)
	syncSvc.SetMetrics(metrics)

	ingestor := nataband.NewIngestor(natabandSvc, motherSvc, logger)
	ingestor.SetMetrics(metrics)
	closeMQTT := startDeviceIngest(ctx, cfg, ingestor, logger)
	defer closeMQTT()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(metrics.MetricsMiddleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(middleware.SecurityHeaders(cfg.TLSEnabled))
	e.Use(middleware.BodyLimit(cfg.BodyLimit, map[string]string{"/api/sync/push": "10M"}))
	e.Use(middleware.RateLimit(rateLimitConfig(cfg)))
	e.Use(middleware.RequestTimeout(requestTimeout))
	e.Use(auth.JWTMiddleware(issuer.JWTConfig(auth.AuthSkipper)))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": version})
	})
	e.GET("/health/db", db.HealthHandler(pool))
	e.GET("/metrics", metrics.Handler())

	api := e.Group("/api")
	account.NewHandler(accountSvc).RegisterRoutes(api)
	mother.NewHandler(motherSvc).RegisterRoutes(api)
	triage.NewHandler(triageSvc).RegisterRoutes(api)
	chw.NewHandler(chwSvc).RegisterRoutes(api)
	emergency.NewHandler(emergencySvc).RegisterRoutes(api)
	nataband.NewHandler(natabandSvc).RegisterRoutes(api)
	education.NewHandler(educationSvc).RegisterRoutes(api)
	notification.NewHandler(notificationSvc).RegisterRoutes(api)
	dashboard.NewHandler(dashboardSvc).RegisterRoutes(api)
	offlinesync.NewHandler(syncSvc).RegisterRoutes(api)

	wsHandler := websocket.NewHandler(hub, topicAuthorizer(motherSvc, logger), initialTopics, cfg.CORSOrigins)
	wsHandler.RegisterRoutes(e.Group(""))

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Bool("tls", cfg.TLSEnabled).Msg("starting server")
		var err error
		if cfg.TLSEnabled {
			err = e.StartTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = e.Start(addr)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}
	logger.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// loadEngine builds the risk engine from RULES_FILE, or from the built-in
// clinical table when no file is configured.
func loadEngine(cfg *config.Config, logger zerolog.Logger) (*risk.Engine, error) {
	rs := risk.DefaultRuleSet()
	if cfg.RulesFile != "" {
		loaded, err := risk.LoadRuleSet(cfg.RulesFile)
		if err != nil {
			return nil, err
		}
		rs = loaded
		logger.Info().Str("path", cfg.RulesFile).Msg("loaded risk rules")
	}
	return risk.NewEngine(rs)
}

func rateLimitConfig(cfg *config.Config) middleware.RateLimitConfig {
	rl := middleware.DefaultRateLimitConfig()
	if cfg.RateLimitRPS > 0 {
		rl.RequestsPerSecond = cfg.RateLimitRPS
	}
	if cfg.RateLimitBurst > 0 {
		rl.BurstSize = cfg.RateLimitBurst
	}
	return rl
}
