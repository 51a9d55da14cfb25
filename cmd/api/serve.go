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

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cadence/api/internal/app"
	"cadence/api/internal/authpw"
	"cadence/api/internal/enhance"
	"cadence/api/internal/events"
	"cadence/api/internal/export"
	"cadence/api/internal/search"
	"cadence/api/internal/session"
	"cadence/api/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, logger, db, dialect, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer db.Close()

	if cfg.Database.MigrateOnStart {
		if err := store.ApplyMigrations(ctx, db, dialect); err != nil {
			return err
		}
	}
	repo := store.NewRepository(db, dialect, logger)

	var backend session.Backend
	if strings.TrimSpace(cfg.Redis.URL) != "" {
		logger.Info("using redis for sessions")
		redisStore, err := session.NewRedisStore(cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer redisStore.Close()
		backend = redisStore
	} else {
		logger.Warn("REDIS_URL not set, sessions are kept in memory")
		backend = session.NewMemoryStore()
	}

	var engine search.Engine
	if strings.TrimSpace(cfg.Meili.URL) != "" {
		meili := search.NewMeili(cfg.Meili.URL, cfg.Meili.APIKey, logger)
		defer meili.Close()
		engine = meili
	}

	var archive export.Archiver
	if strings.TrimSpace(cfg.Minio.Endpoint) != "" {
		minioArchive, err := export.NewMinioArchive(ctx, cfg.Minio)
		if err != nil {
			logger.Warn("export archive disabled", zap.Error(err))
		} else {
			archive = minioArchive
		}
	}

	var publisher events.Publisher = events.Nop{}
	if strings.TrimSpace(cfg.AMQP.URL) != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, logger)
		if err != nil {
			logger.Warn("event publishing disabled", zap.Error(err))
		} else {
			publisher = amqpPublisher
		}
	}
	defer publisher.Close()

	service := app.NewService(app.Deps{
		Store:     repo,
		Sessions:  session.NewManager(backend, cfg.Session.TTL),
		Passwords: authpw.NewService(repo),
		Search:    search.NewService(engine, search.NewSQLFallback(repo), logger),
		Exporter:  export.NewService(archive, logger),
		Enhancer:  enhance.New(cfg.Enhance, logger),
		Events:    publisher,
		Logger:    logger,
	})

	httpServer := app.NewHTTPServer(service, cfg.Server.CORSOrigin, logger)
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("cadence api listening", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", zap.Error(err))
	}
	return nil
}
