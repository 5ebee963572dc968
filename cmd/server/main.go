package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/Spok95/eco-wardrobe/internal/bot"
	"github.com/Spok95/eco-wardrobe/internal/config"
	"github.com/Spok95/eco-wardrobe/internal/domain/cart"
	"github.com/Spok95/eco-wardrobe/internal/domain/catalog"
	"github.com/Spok95/eco-wardrobe/internal/domain/scans"
	"github.com/Spok95/eco-wardrobe/internal/infra/db"
	httpx "github.com/Spok95/eco-wardrobe/internal/infra/http"
	"github.com/Spok95/eco-wardrobe/internal/infra/logger"
	"github.com/Spok95/eco-wardrobe/internal/infra/metrics"
	"github.com/Spok95/eco-wardrobe/internal/scoring"
	"github.com/Spok95/eco-wardrobe/internal/store/lite"
)

// catalogStore чтение и запись каталога: Postgres или SQLite.
type catalogStore interface {
	httpx.Catalog
	catalog.Sink
}

func loadProfile(cfg config.Config) (*scoring.Profile, error) {
	if cfg.Scoring.ProfileFile != "" {
		return scoring.LoadFile(cfg.Scoring.ProfileFile)
	}
	return scoring.LoadBuiltin(cfg.Scoring.Profile)
}

func cartStore(cfg config.Config, pool *pgxpool.Pool, log *slog.Logger) (cart.Store, error) {
	switch cfg.Cart.Backend {
	case "postgres":
		if pool == nil {
			return nil, errors.New("cart backend postgres requires storage driver postgres")
		}
		return cart.NewPGStore(pool), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return cart.NewRedisStore(client, cfg.Cart.TTL), nil
	case "memory", "":
		log.Warn("carts are kept in memory and lost on restart")
		return cart.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown cart backend %q", cfg.Cart.Backend)
	}
}

func main() {
	cfg, err := config.Load("config/example.yaml")
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		pool  *pgxpool.Pool
		store catalogStore
	)
	switch cfg.Storage.Driver {
	case "postgres":
		if err := db.Migrate(cfg.Postgres.DSN); err != nil {
			log.Error("migrations failed", "err", err)
			return
		}
		log.Info("migrations applied")

		pool, err = db.Connect(ctx, cfg.Postgres.DSN)
		if err != nil {
			log.Error("db connect failed", "err", err)
			return
		}
		defer pool.Close()
		log.Info("db connected")
		store = catalog.NewRepo(pool)
	case "sqlite":
		ls, err := lite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			log.Error("sqlite open failed", "path", cfg.Storage.SQLitePath, "err", err)
			return
		}
		defer func() { _ = ls.Close() }()
		log.Info("sqlite opened", "path", cfg.Storage.SQLitePath)
		store = ls
	default:
		log.Error("unknown storage driver", "driver", cfg.Storage.Driver)
		return
	}

	profile, err := loadProfile(cfg)
	if err != nil {
		log.Error("profile load failed", "err", err)
		return
	}

	m := metrics.New(nil)
	ranges := scoring.NewRangeCache(cfg.Scoring.RangeTTL)
	ranges.OnCompute(m.RangesComputed)
	scorer := scoring.New(store, profile,
		scoring.WithRangeCache(ranges),
		scoring.WithObserver(m),
		scoring.WithLogger(log),
		scoring.WithCartOptions(scoring.CartOptions{
			DiversityBonus:    cfg.Cart.DiversityBonus,
			DiversityMaxItems: cfg.Cart.DiversityMaxItems,
		}),
	)
	log.Info("scoring profile loaded", "profile", profile.Name, "dynamic_ranges", profile.DynamicRanges)

	cs, err := cartStore(cfg, pool, log)
	if err != nil {
		log.Error("cart store failed", "err", err)
		return
	}
	carts := cart.NewService(cs, cfg.Cart.MaxItems)

	limiter := httpx.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	go limiter.Run(ctx)

	opts := []httpx.Option{
		httpx.WithLogger(log),
		httpx.WithRateLimiter(limiter),
		httpx.WithRequestObserver(m),
	}
	var history *scans.Repo
	if pool != nil {
		history = scans.NewRepo(pool)
		opts = append(opts, httpx.WithScanLog(history))
	}

	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		metricsHandler = m.Handler()
	}
	srv := httpx.New(cfg.HTTP.Addr, httpx.NewAPI(store, scorer, carts, opts...), metricsHandler)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	if cfg.Telegram.Token != "" {
		api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
		if err != nil {
			log.Error("telegram init failed", "err", err)
		} else {
			log.Info("telegram bot authorized", "username", api.Self.UserName)
			bopts := []bot.Option{bot.WithImport(store, cfg.Telegram.AdminChatID)}
			if history != nil {
				bopts = append(bopts, bot.WithScans(history))
			}
			b := bot.New(api, log, scorer, carts, bopts...)
			go func() {
				if err := b.Run(ctx, 60); err != nil && !errors.Is(err, context.Canceled) {
					log.Error("bot stopped", "err", err)
				}
			}()
			defer api.StopReceivingUpdates()
		}
	}

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
}
