package main

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/collabus/transit-admin/internal/config"
	"github.com/collabus/transit-admin/internal/database"
	"github.com/collabus/transit-admin/internal/handler"
	"github.com/collabus/transit-admin/internal/logger"
	"github.com/collabus/transit-admin/internal/mailer"
	"github.com/collabus/transit-admin/internal/queue"
	"github.com/collabus/transit-admin/internal/repository"
	"github.com/collabus/transit-admin/internal/router"
	"github.com/collabus/transit-admin/internal/session"
)

func main() {
	// .env is optional; real deployments inject the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New(cfg.Env)
	defer log.Sync() //nolint:errcheck

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}

	// Sessions live in Redis; when Redis is unreachable the app keeps
	// running on an in-process store so a cache outage never takes the
	// API down with it.
	sessionTTL := time.Duration(cfg.SessionTTLHour) * time.Hour
	rdb := config.NewRedisClient()
	var sessions session.Store
	if rdb != nil {
		sessions = session.NewRedisStore(rdb, sessionTTL)
	} else {
		log.Warn("redis unavailable, falling back to in-memory sessions")
		sessions = session.NewMemoryStore(sessionTTL)
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	companies := repository.NewCompanyRepo(db)
	vehicles := repository.NewVehicleRepo(db)
	routes := repository.NewRouteRepo(db)
	schedules := repository.NewScheduleRepo(db)

	// The mail consumer drains lifecycle events off RabbitMQ in the
	// background and reconnects on its own. Email is strictly
	// fire-and-forget: nothing in the request path waits on it.
	go queue.StartLifecycleConsumer(cfg.RabbitURL, mailer.New(cfg, log), log)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(logger.RequestLogger(log))

	router.Register(e, router.Deps{
		Cfg:      cfg,
		RLCfg:    config.LoadRateLimitConfig(),
		Redis:    rdb,
		Sessions: sessions,
		Users:    users,

		Auth:      handler.NewAuthHandler(cfg, users, tokens, sessions, log),
		User:      handler.NewUserHandler(cfg, users, tokens, sessions, log),
		Staff:     handler.NewStaffHandler(users, tokens, companies, log),
		Fleet:     handler.NewFleetHandler(vehicles, routes, schedules, log),
		Company:   handler.NewCompanyHandler(companies),
		Dashboard: handler.NewDashboardHandler(users, vehicles, routes, schedules, log),
		Health:    handler.NewHealthHandler(db),
		ClientLog: handler.NewClientLogHandler(log),
	})

	log.Info("server starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
