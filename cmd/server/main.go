package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ayush/user-auth-service/internal/auth"
	"github.com/ayush/user-auth-service/internal/config"
	"github.com/ayush/user-auth-service/internal/logging"
	"github.com/ayush/user-auth-service/internal/middleware"
	"github.com/ayush/user-auth-service/internal/session"
	"github.com/ayush/user-auth-service/internal/store"
	"github.com/ayush/user-auth-service/internal/telemetry"
)

const serviceName = "user-auth-service"

// userStore is what the server needs from a credential store.
type userStore interface {
	auth.UserStore
	Ping(ctx context.Context) error
}

func main() {
	if err := run(); err != nil {
		logging.New(os.Stderr, "error", "json").Error(context.Background(), "server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx := context.Background()
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat).With("service", serviceName)

	// ── Tracing ──────────────────────────────────────────────
	shutdownTracing, err := telemetry.Setup(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	// ── Credential store ─────────────────────────────────────
	users, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// ── Sessions ─────────────────────────────────────────────
	sessionStore, closeSessions, err := openSessionStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSessions()
	sessions := session.NewManager(sessionStore, cfg.SessionSecret, cfg.SessionTTL)

	// ── Handlers ─────────────────────────────────────────────
	service := auth.NewService(users, auth.NewBcryptHasher(cfg.BcryptCost), logger)
	authHandler := auth.NewHandler(service, sessions, logger, cfg.CookieSecure)

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{auth.TokenHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler(users, sessions))

	r.Route("/api/auth", func(r chi.Router) {
		r.Use(middleware.LoadSession(sessions, logger))
		r.Mount("/", authHandler.Routes())
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "server listening", "port", cfg.Port,
			"store", cfg.StoreBackend, "sessions", cfg.SessionBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	logger.Info(ctx, "shutting down")
	shutCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

func openStore(ctx context.Context, cfg *config.Config, logger logging.Logger) (userStore, func(), error) {
	switch strings.ToLower(cfg.StoreBackend) {
	case config.BackendPostgres:
		db, closeFn, err := store.OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		pg := store.NewPostgresStore(db)
		if err := pg.Migrate(ctx); err != nil {
			closeFn()
			return nil, nil, err
		}
		logger.Info(ctx, "using postgres store")
		return pg, closeFn, nil

	case config.BackendMongo:
		db, disconnect, err := store.OpenMongo(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, nil, err
		}
		ms := store.NewMongoStore(db)
		if err := ms.EnsureIndexes(ctx); err != nil {
			_ = disconnect(ctx)
			return nil, nil, err
		}
		logger.Info(ctx, "using mongo store", "database", cfg.MongoDB)
		return ms, func() { _ = disconnect(context.Background()) }, nil

	default:
		logger.Warn(ctx, "using in-memory store, users are lost on restart")
		return store.NewMemoryStore(), func() {}, nil
	}
}

func openSessionStore(ctx context.Context, cfg *config.Config, logger logging.Logger) (session.Store, func(), error) {
	if strings.EqualFold(cfg.SessionBackend, config.BackendMemory) {
		logger.Warn(ctx, "using in-memory sessions")
		return session.NewMemoryStore(), func() {}, nil
	}

	rdb, err := session.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		return nil, nil, err
	}
	logger.Info(ctx, "using redis sessions", "addr", cfg.RedisAddr)
	return session.NewRedisStore(rdb), func() { _ = rdb.Close() }, nil
}
