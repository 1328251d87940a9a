package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4" // Echo web framework
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/startup-ecosystem/internal/config" // Internal config loader
	"github.com/iliyamo/startup-ecosystem/internal/database"
	"github.com/iliyamo/startup-ecosystem/internal/handler"
	"github.com/iliyamo/startup-ecosystem/internal/logger"
	"github.com/iliyamo/startup-ecosystem/internal/metrics"
	"github.com/iliyamo/startup-ecosystem/internal/middleware"
	"github.com/iliyamo/startup-ecosystem/internal/queue"
	"github.com/iliyamo/startup-ecosystem/internal/repository"
	"github.com/iliyamo/startup-ecosystem/internal/router" // Internal router setup
	"github.com/iliyamo/startup-ecosystem/internal/service"
)

const serviceName = "startup-ecosystem"

func main() {
	cfg := config.Load() // Load environment config

	if err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
		ServiceName: serviceName,
	}); err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer func() { _ = log.Sync() }()

	// ---- Database ----
	db, err := database.Open(database.Options{
		User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
	})
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()
	if cfg.DBAutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.Migrate(ctx, db)
		cancel()
		if err != nil {
			log.Fatal("schema migration failed", zap.Error(err))
		}
		log.Info("schema applied")
	}

	// ---- Redis (optional) ----
	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		log.Warn("redis unavailable; rate limiting and response cache disabled")
	} else {
		defer rdb.Close()
	}
	cacheCfg := config.LoadCacheConfig()
	invalidate := handler.Invalidator(func(ctx context.Context) {
		if err := middleware.InvalidateCache(ctx, rdb, cacheCfg.Prefix); err != nil {
			logger.FromContext(ctx).Warn("cache invalidation failed", zap.Error(err))
		}
	})

	// ---- Repositories and services ----
	users := repository.NewUserRepo(db)
	profiles := repository.NewProfileRepo(db)
	events := repository.NewEventRepo(db)
	requests := repository.NewRequestRepo(db)
	tokens := repository.NewTokenRepo(db)

	identity, err := service.NewIdentityService(users, cfg.BcryptCost, cfg.SignupPattern, log)
	if err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}
	publisher := queue.NewPublisher(cfg.AMQPURL)
	requestSvc := service.NewRequestService(users, requests, publisher, log)

	if cfg.AdminEmail != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		created, err := identity.EnsureAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword)
		cancel()
		if err != nil {
			log.Fatal("admin seeding failed", zap.Error(err))
		}
		if created {
			log.Info("admin account created", zap.String("email", cfg.AdminEmail))
		}
	}

	// ---- Audit consumer ----
	bg, stopBg := context.WithCancel(context.Background())
	defer stopBg()
	go func() {
		if err := queue.NewConsumer(cfg.AMQPURL, log).Run(bg); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("request event consumer stopped", zap.Error(err))
		}
	}()

	// Expired refresh tokens are useless; sweep them hourly.
	go func() {
		t := time.NewTicker(time.Hour)
		defer t.Stop()
		for {
			select {
			case <-bg.Done():
				return
			case <-t.C:
				ctx, cancel := context.WithTimeout(bg, 30*time.Second)
				n, err := tokens.PurgeExpired(ctx, time.Now())
				cancel()
				if err != nil {
					log.Warn("refresh token purge failed", zap.Error(err))
				} else if n > 0 {
					log.Info("refresh tokens purged", zap.Int64("rows", n))
				}
			}
		}
	}()

	// ---- HTTP ----
	e := echo.New()
	e.HideBanner = true
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestID())
	e.Use(logger.Middleware())
	e.Use(metrics.NewHTTPMetrics(serviceName).Middleware())

	router.RegisterRoutes(e, db, metrics.Handler())
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, identity, tokens, invalidate), cfg.JWTSecret,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	router.RegisterFounder(e, handler.NewFounderHandler(requestSvc, profiles, events), cfg.JWTSecret,
		middleware.NewRedisCache(cacheCfg, rdb))
	router.RegisterSupporters(e, handler.NewSupporterHandler(requestSvc), cfg.JWTSecret)
	router.RegisterProfile(e, handler.NewProfileHandler(profiles, invalidate), cfg.JWTSecret)
	router.RegisterAdmin(e, handler.NewAdminHandler(identity, requestSvc, events, invalidate), cfg.JWTSecret)

	addr := ":" + cfg.Port // Address string with port
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")
	stopBg()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
