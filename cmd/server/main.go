package main // Entry point package

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"                      // .env loading for local runs
	"github.com/labstack/echo/v4"                   // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware" // request logging and panic recovery
	"github.com/redis/go-redis/v9"                  // optional cache and rate limit backend

	"github.com/iliyamo/parish-events/internal/config"
	"github.com/iliyamo/parish-events/internal/database"
	"github.com/iliyamo/parish-events/internal/handler"
	"github.com/iliyamo/parish-events/internal/middleware"
	"github.com/iliyamo/parish-events/internal/queue"
	"github.com/iliyamo/parish-events/internal/repository"
	"github.com/iliyamo/parish-events/internal/router"
	"github.com/iliyamo/parish-events/internal/service"
)

func main() {
	_ = godotenv.Load() // a missing .env is fine; the environment may already be set

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()

	db, dialect, err := database.Open(cfg.DBDriver, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.SQLitePath)
	if err != nil {
		slog.Error("database connection failed", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := database.Migrate(context.Background(), db, dialect); err != nil {
		slog.Error("schema migration failed", "error", err)
		os.Exit(1)
	}
	slog.Info("database schema ready", "driver", dialect)

	// Redis is optional: without it the cache and rate limiter pass through.
	var rdb *redis.Client
	if rc, err := config.NewRedisClient(config.LoadRedisConfig()); err != nil {
		slog.Warn("redis unavailable, cache and rate limit disabled", "error", err)
	} else {
		rdb = rc
		defer rdb.Close()
	}

	// Domain events go to RabbitMQ only when a broker is configured.
	var pub queue.Publisher = queue.NopPublisher{}
	if os.Getenv("RABBITMQ_URL") != "" || os.Getenv("AMQP_URL") != "" {
		pub = queue.NewAMQPPublisher(cfg.AMQPURL, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.ModerationFeed {
		feed := &queue.FeedConsumer{URL: cfg.AMQPURL, LogPath: cfg.ModerationLogPath, Logger: logger}
		go func() {
			if err := feed.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("moderation feed stopped", "error", err)
			}
		}()
	}

	if cfg.ScoreAuditSchedule != "" {
		auditor := service.NewScoreAuditor(db, logger)
		cr, err := auditor.Schedule(cfg.ScoreAuditSchedule)
		if err != nil {
			slog.Error("invalid score audit schedule", "schedule", cfg.ScoreAuditSchedule, "error", err)
			os.Exit(1)
		}
		defer cr.Stop()
	}

	votes := service.NewVoteLedger(db, pub, logger)
	suggestions := service.NewSuggestionLedger(db, pub, logger)
	catalog := service.NewCatalog(db, cfg.DefaultVenueTZ)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				slog.Error("request failed", append(attrs, "error", v.Error)...)
				return nil
			}
			slog.Info("request completed", attrs...)
			return nil
		},
	}))

	router.RegisterRoutes(e, &handler.HealthHandler{DB: db})
	router.RegisterPublic(e,
		&handler.CatalogHandler{Catalog: catalog, Votes: votes},
		&handler.VoteHandler{Votes: votes},
		&handler.SuggestionHandler{Suggestions: suggestions},
		router.Middlewares{
			Identity:  middleware.HeaderIdentity{Header: cfg.VoterIDHeader},
			Cache:     middleware.NewRedisCache(config.LoadCacheConfig(), rdb, logger),
			RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger),
		},
	)
	if cfg.ModeratorPasswordHash == "" {
		slog.Warn("MODERATOR_PASSWORD_HASH not set, moderation login will always fail")
	}
	router.RegisterModeration(e, &handler.ModerationHandler{
		Suggestions:  suggestions,
		Venues:       repository.NewVenueRepo(db),
		JWTSecret:    cfg.JWTSecret,
		AccessTTLMin: cfg.AccessTTLMin,
		PasswordHash: cfg.ModeratorPasswordHash,
	}, cfg.JWTSecret)

	addr := ":" + cfg.Port
	go func() {
		slog.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
	slog.Info("server closed")
}
