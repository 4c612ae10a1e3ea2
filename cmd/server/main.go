package main // Entry point of the event-ops API server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-ops/internal/config"
	"github.com/iliyamo/event-ops/internal/database"
	"github.com/iliyamo/event-ops/internal/handler"
	"github.com/iliyamo/event-ops/internal/middleware"
	"github.com/iliyamo/event-ops/internal/queue"
	"github.com/iliyamo/event-ops/internal/repository"
	"github.com/iliyamo/event-ops/internal/repository/memory"
	"github.com/iliyamo/event-ops/internal/router"
	"github.com/iliyamo/event-ops/internal/service"
)

// admins creates the bootstrap admin account.  Both storage backends
// implement it.
type admins interface {
	handler.UserStore
	EnsureAdmin(ctx context.Context, email, password string, cost int) error
}

type storage struct {
	deps  router.Deps
	users admins
	close func()
}

func openMySQL(ctx context.Context, cfg config.Config) (storage, error) {
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return storage{}, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return storage{}, err
	}
	users := repository.NewUserRepo(db)
	return storage{
		deps: router.Deps{
			Profiles: repository.NewProfileRepo(db),
			Lodgings: repository.NewLodgingRepo(db),
			Sessions: repository.NewSessionRepo(db),
			Users:    users,
			Tokens:   repository.NewTokenRepo(db),
			Ping:     db.PingContext,
		},
		users: users,
		close: func() { _ = db.Close() },
	}, nil
}

func openMemory(cfg config.Config) (storage, error) {
	store := memory.New()
	if cfg.SeedFile != "" {
		if err := store.LoadSeedFile(cfg.SeedFile); err != nil {
			return storage{}, err
		}
		log.Printf("storage: memory seeded from %s", cfg.SeedFile)
	}
	return storage{
		deps: router.Deps{
			Profiles: store.Profiles(),
			Lodgings: store.Lodgings(),
			Sessions: store.Sessions(),
			Users:    store.Users(),
			Tokens:   store.Tokens(),
		},
		users: store.Users(),
		close: func() {},
	}, nil
}

func main() {
	config.LoadDotEnv()  // .env is optional; real environment wins
	cfg := config.Load() // exits on missing required variables

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		st  storage
		err error
	)
	switch cfg.Storage {
	case config.StorageMemory:
		st, err = openMemory(cfg)
	default:
		st, err = openMySQL(ctx, cfg)
	}
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer st.close()
	log.Printf("storage: using %s", cfg.Storage)

	if err := st.users.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.BcryptCost); err != nil {
		log.Fatalf("users: bootstrap admin: %v", err)
	}

	deps := st.deps
	deps.Cfg = cfg

	// Redis is optional; without it the cache and the limiter are skipped.
	var rdb *redis.Client
	if cacheCfg, rlCfg := config.LoadCacheConfig(), config.LoadRateLimitConfig(); cacheCfg.Enabled || rlCfg.Enabled {
		rdb = config.NewRedisClient()
		if rdb != nil {
			defer func() { _ = rdb.Close() }()
			if rlCfg.Enabled {
				deps.RateLimit = middleware.NewTokenBucket(rlCfg, rdb)
			}
			if cacheCfg.Enabled {
				deps.Cache = middleware.NewRedisCache(cacheCfg, rdb)
			}
		}
	}

	if cfg.PublishEvents {
		deps.Events = service.NewPublisher(cfg.AMQPURL)
	}
	if cfg.ConsumeEvents {
		go func() {
			if err := queue.StartActivityConsumer(ctx, cfg.AMQPURL, cfg.ActivityLogDir); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("activity-consumer: stopped: %v", err)
			}
		}()
	}

	e := router.New(deps)
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.Logger())

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
