package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"casaya/internal/app"
	"casaya/internal/config"
	"casaya/internal/ratelimit"
	"casaya/internal/server"
	"casaya/internal/util"
	"casaya/pkg/auth"
	"casaya/pkg/events"
	"casaya/pkg/storage"
	"casaya/pkg/store"
)

func main() {
	cfgPath := os.Getenv("CASAYA_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	dataStore, err := store.NewGormStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to init postgres store: %v", err)
	}

	sessionTTL := time.Duration(cfg.SessionTTLHours) * time.Hour
	sessions, err := store.NewRedisSessionStore(cfg.RedisAddr, cfg.RedisPassword, sessionTTL)
	if err != nil {
		log.Fatalf("failed to init session store: %v", err)
	}

	tokens, err := auth.NewTokenIssuer(cfg.TokenSecret, sessionTTL)
	if err != nil {
		log.Fatalf("failed to init token issuer: %v", err)
	}

	images, err := newImageStore(cfg)
	if err != nil {
		log.Fatalf("failed to init image store: %v", err)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Fatalf("failed to init event publisher: %v", err)
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
	}

	appCore, err := app.New(app.Config{
		Store:    dataStore,
		Images:   images,
		Sessions: sessions,
		Tokens:   tokens,
		Events:   publisher,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	authLimiter, err := ratelimit.NewFixedWindowLimiter(
		cfg.RedisAddr,
		cfg.RedisPassword,
		"casaya:ratelimit",
		cfg.AuthRateLimit,
		time.Duration(cfg.AuthRateWindowSeconds)*time.Second,
	)
	if err != nil {
		log.Fatalf("failed to init rate limiter: %v", err)
	}

	httpServer, err := server.New(server.Config{
		App:            appCore,
		AuthLimiter:    authLimiter,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		slog.Info("casaya api listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}

func newImageStore(cfg config.FileConfig) (storage.ImageStore, error) {
	if cfg.StorageDriver == "minio" {
		return storage.NewMinioStore(
			cfg.MinioEndpoint,
			cfg.MinioAccessKey,
			cfg.MinioSecretKey,
			cfg.MinioBucket,
			cfg.StoragePrefix,
			cfg.MinioUseSSL,
		)
	}
	return storage.NewLocalStore(cfg.StorageRoot, cfg.StoragePrefix)
}
