package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Shreyas165/Find-My-Teacher/internal/api"
	"github.com/Shreyas165/Find-My-Teacher/internal/api/handlers"
	"github.com/Shreyas165/Find-My-Teacher/internal/api/ws"
	"github.com/Shreyas165/Find-My-Teacher/internal/auth"
	"github.com/Shreyas165/Find-My-Teacher/internal/config"
	"github.com/Shreyas165/Find-My-Teacher/internal/directory"
	"github.com/Shreyas165/Find-My-Teacher/internal/imaging"
	"github.com/Shreyas165/Find-My-Teacher/internal/models"
	"github.com/Shreyas165/Find-My-Teacher/internal/observability"
	"github.com/Shreyas165/Find-My-Teacher/internal/queue"
	"github.com/Shreyas165/Find-My-Teacher/internal/storage"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)
	gin.SetMode(gin.ReleaseMode)

	slog.Info("starting Find My Teacher API", "port", cfg.Server.Port, "database", cfg.Database.Driver, "images", cfg.Images.Backend)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Relational store
	db, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		slog.Error("connect to database", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		slog.Error("migrate database", "error", err)
		os.Exit(1)
	}

	// Image bytes live in the database unless a blob backend is configured
	blobs, err := storage.OpenBlobStore(ctx, cfg)
	if err != nil {
		slog.Error("open image store", "backend", cfg.Images.Backend, "error", err)
		os.Exit(1)
	}

	checks := map[string]handlers.Check{"database": db.Ping}
	if blobs != nil {
		checks["blobs"] = blobs.Ping
	}

	// WebSocket hub
	hub := ws.NewHub(cfg.Server.CORSOrigins)
	go hub.Run(ctx)

	// Directory events go to NATS when configured and come back to the hub through a consumer,
	// so every API replica broadcasts every change. Without NATS the hub is fed directly.
	var sinks []directory.EventSink
	if cfg.NATS.URL != "" {
		producer, err := queue.NewProducer(cfg.NATS.URL)
		if err != nil {
			slog.Error("connect to nats", "error", err)
			os.Exit(1)
		}
		defer producer.Close()

		if err := producer.EnsureStream(ctx); err != nil {
			slog.Warn("ensure nats stream", "error", err)
		}
		sinks = append(sinks, producer)
		checks["nats"] = func(context.Context) error { return producer.Ping() }

		consumer, err := queue.NewConsumer(cfg.NATS.URL)
		if err != nil {
			slog.Error("create directory event consumer", "error", err)
			os.Exit(1)
		}
		defer consumer.Close()

		err = consumer.ConsumeDirectoryEvents(ctx, queue.InstanceConsumerName("api-ws"), func(ctx context.Context, evt models.DirectoryEvent) error {
			return hub.Publish(ctx, evt)
		})
		if err != nil {
			slog.Warn("start directory event consumer", "error", err)
		}
	} else {
		sinks = append(sinks, hub)
	}

	pipeline := imaging.NewPipeline(imaging.Options{
		Width:    cfg.Images.Width,
		Height:   cfg.Images.Height,
		Fit:      imaging.Fit(cfg.Images.Fit),
		Quality:  cfg.Images.Quality,
		MaxBytes: cfg.Images.MaxBytes,
		TmpDir:   cfg.Images.TmpDir,
	})

	dir := directory.NewService(db, blobs, pipeline, directory.NewAuditLog(logger, sinks...))

	authSvc := auth.NewService(db, cfg.Auth)
	if cfg.Auth.BootstrapUser != "" && cfg.Auth.BootstrapPassword != "" {
		if err := authSvc.Bootstrap(ctx, cfg.Auth.BootstrapUser, cfg.Auth.BootstrapPassword); err != nil {
			slog.Error("bootstrap admin credential", "error", err)
			os.Exit(1)
		}
	}

	// Setup router
	router := api.NewRouter(api.RouterConfig{
		Directory:     dir,
		Auth:          authSvc,
		Hub:           hub,
		Checks:        checks,
		APIKey:        cfg.Server.APIKey,
		PublicURL:     cfg.Server.PublicURL,
		CORSOrigins:   cfg.Server.CORSOrigins,
		Gzip:          cfg.Server.Gzip,
		MaxImageBytes: cfg.Images.MaxBytes,
	})

	// Start HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("API server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down API server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	cancel()

	slog.Info("API server stopped")
}
