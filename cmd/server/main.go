package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/picshelf/picshelf/internal/config"
	"github.com/picshelf/picshelf/internal/database"
	postgresrepo "github.com/picshelf/picshelf/internal/repository/postgres"
	"github.com/picshelf/picshelf/internal/repository/redisstore"
	"github.com/picshelf/picshelf/internal/service"
	"github.com/picshelf/picshelf/internal/storage"
	"github.com/picshelf/picshelf/internal/token"
	"github.com/picshelf/picshelf/internal/transport/http/handlers"
	"github.com/picshelf/picshelf/internal/transport/http/middleware"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := run(logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	pool, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	logger.Info("connected to database")

	// Redis (token revocation list)
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisURL})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("unable to ping redis: %w", err)
	}
	defer rdb.Close()

	// Image blob store
	imageStorage, err := storage.NewS3Storage(ctx, storage.S3Config{
		Region:       cfg.S3Region,
		Bucket:       cfg.S3Bucket,
		Endpoint:     cfg.S3Endpoint,
		AccessKey:    cfg.S3AccessKey,
		SecretAccess: cfg.S3SecretKey,
	})
	if err != nil {
		return err
	}

	// Repositories
	userRepo := postgresrepo.NewUserRepo(pool)
	imageRepo := postgresrepo.NewImageRepo(pool)
	revoked := redisstore.NewRevocationList(rdb)

	// Services
	issuer := token.NewIssuer(cfg.JWTSecret, cfg.SessionTTL)
	authService := service.NewAuthService(userRepo, revoked, issuer, logger)
	imageService := service.NewImageService(imageRepo, imageStorage)

	// Handlers
	sessionHandler := handlers.NewSessionHandler(authService, logger)
	imageHandler := handlers.NewImageHandler(imageService, logger)

	auth := middleware.Auth(issuer, revoked)
	mux := handlers.NewRouter(sessionHandler, imageHandler, auth)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: middleware.CORS(middleware.CSRF(mux)),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
