package app

import (
	"context"
	"fmt"
	"time"

	"lsys/catalog"
	"lsys/config"
	"lsys/db"
	"lsys/identity"
	"lsys/metrics"
	"lsys/session"
	"lsys/views"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// short aliases for handlers
type Ctx = gin.Context
type H = gin.H

// App holds the shared resources. Accounts, Books and Sessions each guard
// themselves; handlers combine them without a global lock.
type App struct {
	Router *gin.Engine
	DB     *gorm.DB
	RDB    *redis.Client // nil when sessions live in memory
	Repo   *db.Repo
	Config *config.Config
	Log    zerolog.Logger

	Accounts *identity.Store
	Books    *catalog.Catalogue
	Sessions session.Store
}

// MustNew wires everything from cfg and exits on any startup failure.
func MustNew(ctx context.Context, cfg *config.Config, log zerolog.Logger) *App {
	a, err := New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	return a
}

func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	// --- DB ---
	dbConn, err := db.ConnectDB(ctx, db.Options{
		DSN:            cfg.DatabaseURL,
		MaxConns:       cfg.DB.MaxConns,
		AcquireTimeout: cfg.DB.AcquireTimeout,
		Log:            log.With().Str("component", "db").Logger(),
	})
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(dbConn); err != nil {
		return nil, err
	}
	repo := db.NewRepo(dbConn)

	accounts, err := identity.Load(ctx, repo,
		identity.WithHasher(identity.Hasher{Legacy: cfg.PasswordLegacy}),
		identity.WithLogger(log.With().Str("component", "identity").Logger()),
	)
	if err != nil {
		return nil, err
	}
	books, err := catalog.Load(ctx, repo,
		catalog.WithLogger(log.With().Str("component", "catalog").Logger()),
	)
	if err != nil {
		return nil, err
	}
	if err := metrics.RegisterCatalogue(prometheus.DefaultRegisterer, books); err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	WarnIfNoWorkers(ctx, repo, log)

	// --- Sessions: redis when configured ---
	var (
		rdb   *redis.Client
		store session.Store
	)
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		store = session.NewRedisStore(rdb, cfg.Session.TTL)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("sessions in redis")
	} else {
		store = session.NewMemoryStore(cfg.Session.TTL)
		log.Info().Msg("sessions in memory")
	}

	return &App{
		Router:   NewRouter(cfg, log),
		DB:       dbConn,
		RDB:      rdb,
		Repo:     repo,
		Config:   cfg,
		Log:      log,
		Accounts: accounts,
		Books:    books,
		Sessions: store,
	}, nil
}

// NewRouter builds the gin engine with the shared middleware and templates.
func NewRouter(cfg *config.Config, log zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(log))
	useCORS(r, cfg.WebOrigin)
	r.SetHTMLTemplate(views.Templates())
	return r
}

func (a *App) Resolver() session.Resolver {
	return session.Resolver{Store: a.Sessions, Accounts: a.Accounts}
}

func (a *App) Close() {
	if a.RDB != nil {
		_ = a.RDB.Close()
	}
	if a.DB != nil {
		_ = db.Close(a.DB)
	}
}
