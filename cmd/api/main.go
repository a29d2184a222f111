package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/geophotos/internal/adapters/filestore"
	"github.com/samirrijal/geophotos/internal/adapters/http"
	kafkaadapter "github.com/samirrijal/geophotos/internal/adapters/kafka"
	natsadapter "github.com/samirrijal/geophotos/internal/adapters/nats"
	"github.com/samirrijal/geophotos/internal/adapters/postgres"
	"github.com/samirrijal/geophotos/internal/adapters/s3"
	"github.com/samirrijal/geophotos/internal/adapters/valkey"
	"github.com/samirrijal/geophotos/internal/core/ports"
	"github.com/samirrijal/geophotos/internal/core/usecases"
	"github.com/samirrijal/geophotos/internal/pkg/config"
	"github.com/samirrijal/geophotos/internal/pkg/logging"
	"github.com/samirrijal/geophotos/internal/pkg/metrics"
	"github.com/samirrijal/geophotos/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("geophotos-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Storage directory, created if absent
	storage, err := filestore.NewOSDirectory(cfg.Storage.Dir)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	slog.Info("storage ready", "dir", storage.Root())

	deps := &http.Dependencies{
		Storage:      storage,
		TemplatesDir: cfg.Server.TemplatesDir,
		RateLimit:    cfg.Server.RateLimit,
	}

	// Metadata store
	var photoRepo ports.PhotoRepository
	switch cfg.Metadata.Backend {
	case config.BackendPostgres:
		db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		deps.DB = db
		photoRepo = postgres.NewPhotoRepo(db)
		go reportPoolStats(ctx, db)
	default:
		meta, err := filestore.NewMetadataStore(storage, cfg.Storage.MetadataFile)
		if err != nil {
			log.Fatalf("metadata store: %v", err)
		}
		photoRepo = meta
	}
	slog.Info("metadata store ready", "backend", cfg.Metadata.Backend)

	// Cache
	var cache ports.CacheService
	if cfg.Valkey.Enabled {
		c, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.Prefix)
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
		} else {
			defer c.Close()
			cache = c
			deps.Cache = c
		}
	}

	// Upload events
	var publisher ports.EventPublisher
	switch cfg.Events.Driver {
	case config.DriverNATS:
		nc, err := natsadapter.Connect(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
			break
		}
		defer nc.Close()

		pub, err := natsadapter.NewPublisher(nc)
		if err != nil {
			slog.Warn("nats stream setup failed", "error", err)
		} else {
			defer pub.Close()
			publisher = pub
		}
		// Raw subscriptions for the WebSocket relay
		deps.Feed = natsadapter.NewSubscriber(nc)
	case config.DriverKafka:
		pub := kafkaadapter.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer func() {
			if err := pub.Close(); err != nil {
				slog.Warn("kafka writer close", "error", err)
			}
		}()
		publisher = pub
	}

	// Object replica
	var replicator ports.BlobReplicator
	if cfg.S3.Enabled {
		r, err := s3.NewReplicator(ctx, s3.Config{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Prefix:    cfg.S3.Prefix,
			UseSSL:    cfg.S3.UseSSL,
		})
		if err != nil {
			slog.Warn("object replica unavailable", "error", err)
		} else {
			replicator = r
			deps.Replica = r
		}
	}

	// Use case
	photoSvc := usecases.NewPhotoService(photoRepo, storage, cache, publisher, replicator)
	photoSvc.SetCacheTTL(cfg.Valkey.TTLSeconds)
	deps.Photos = photoSvc

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimitMB * 1024 * 1024,
		AppName:      "Geophotos",
		ErrorHandler: http.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	// Let pending replications finish before the clients close.
	photoSvc.Wait()

	slog.Info("server stopped")
}

// reportPoolStats refreshes the pgx pool gauges until ctx ends.
func reportPoolStats(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		metrics.UpdateDBPoolMetrics(db.Pool.Stat())
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
