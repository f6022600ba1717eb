package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/app"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/config"
	grpcserver "github.com/mahinbs/series-shop-beacon-32-sub001/internal/grpc"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/httpapi"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/storage"
	"github.com/mahinbs/series-shop-beacon-32-sub001/pkg/logger"
	"go.uber.org/zap"
)

const statsInterval = time.Minute

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg.ServiceName, cfg.LogLevel, cfg.LogFormat)
	defer log.Sync()

	log.Info("Storefront service starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to start", zap.Error(err))
	}
	defer a.Close()

	if a.DB != nil {
		if n, err := a.Content.Seed(ctx); err != nil {
			log.Warn("Seeding default content failed", zap.Error(err))
		} else if n > 0 {
			log.Info("Seeded default content", zap.Int("records", n))
		}
		if err := a.Content.SyncAll(ctx); err != nil {
			log.Warn("Initial mirror sync incomplete", zap.Error(err))
		}
	}

	var uploader storage.Uploader
	if cfg.S3.Bucket != "" {
		s3, err := storage.NewS3Uploader(ctx, cfg.S3.Bucket, cfg.S3.Region, cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, cfg.S3.PublicBaseURL)
		if err != nil {
			log.Fatal("Failed to configure S3", zap.Error(err))
		}
		uploader = s3
	} else {
		log.Warn("AWS_S3_BUCKET not set; uploads will fail")
	}

	// Keep the local mirror current with writes from other instances
	consumer, err := a.Consumer()
	if err != nil {
		log.Warn("Content event consumer unavailable", zap.Error(err))
	}
	if consumer != nil {
		defer consumer.Close()
		go func() {
			if err := consumer.Start(ctx); err != nil {
				log.Error("Content event consumer stopped", zap.Error(err))
			}
		}()
	}

	go reportCatalogSize(ctx, a, log)

	health := grpcserver.NewHealthServer(log, a.HealthChecks()...)

	// Start gRPC server
	grpcServer := grpcserver.NewServer(health, log)
	grpcListener, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.Server.GRPCPort))
	if err != nil {
		log.Fatal("Failed to listen on gRPC port", zap.Error(err))
	}

	go func() {
		log.Info("Starting gRPC server", zap.String("address", grpcListener.Addr().String()))
		if err := grpcServer.Serve(grpcListener); err != nil {
			log.Error("gRPC server stopped", zap.Error(err))
		}
	}()

	api := httpapi.NewServer(httpapi.Deps{
		Content:        a.Content,
		Carts:          a.Carts,
		Checkout:       a.Checkout,
		Wallet:         a.Wallet,
		Uploader:       uploader,
		Roles:          a.Roles,
		Metrics:        a.Metrics,
		Health:         health,
		Auth:           cfg.Auth,
		MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
		Logger:         log,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.HTTPPort),
		Handler:      api.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("Starting HTTP server", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to serve HTTP", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}
	grpcServer.GracefulStop()

	log.Info("Server stopped")
}

func reportCatalogSize(ctx context.Context, a *app.App, log *zap.Logger) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()
	for {
		total, active, err := a.Content.Stats(ctx)
		if err != nil {
			log.Warn("Failed to read catalog stats", zap.Error(err))
		} else {
			a.Metrics.SetCatalogSize(total, active)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
