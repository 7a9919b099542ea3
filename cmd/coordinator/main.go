package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/your-org/streamforge/internal/coordinator"
	"github.com/your-org/streamforge/internal/hub"
	"github.com/your-org/streamforge/internal/realtime"
	"github.com/your-org/streamforge/internal/video"
	"github.com/your-org/streamforge/pkg/config"
	"github.com/your-org/streamforge/pkg/eventbus"
	"github.com/your-org/streamforge/pkg/kafka"
	"github.com/your-org/streamforge/pkg/logger"
	"github.com/your-org/streamforge/pkg/metrics"
	"github.com/your-org/streamforge/pkg/storage/objectstore"
	"github.com/your-org/streamforge/pkg/tracing"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logr, err := logger.New(cfg.App.LogLevel, cfg.App.Environment)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	traceShutdown, err := tracing.Init(ctx, tracing.Config{
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		SampleRatio: cfg.Tracing.SampleRatio,
		Attributes:  parseResourceAttributes(cfg.Tracing.ResourceAttr),
		ServiceName: cfg.App.Name,
	})
	if err != nil {
		logr.Fatal("init tracing", zap.Error(err))
	}
	defer traceShutdown(context.Background()) //nolint:errcheck

	store, cleanup, err := newVideoStore(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("init video store", zap.Error(err))
	}
	defer cleanup()

	objects, err := objectstore.New(objectstore.Config{
		Provider:  cfg.Storage.Provider,
		Endpoint:  cfg.Storage.Endpoint,
		Region:    cfg.Storage.Region,
		Bucket:    cfg.Storage.Bucket,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		UseSSL:    cfg.Storage.UseSSL,
	})
	if err != nil {
		logr.Fatal("init object store", zap.Error(err))
	}

	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      cfg.Kafka.Brokers,
		Topic:        cfg.Kafka.JobsTopic,
		BatchSize:    cfg.Kafka.BatchSize,
		BatchTimeout: cfg.Kafka.BatchTimeout,
		Compression:  kafka.CompressionFromString(cfg.Kafka.CompressionCodec),
		RequiredAcks: kafkago.RequireAll,
		MaxAttempts:  cfg.Kafka.Retries,
	})
	defer producer.Close(context.Background()) //nolint:errcheck

	registry := hub.NewRegistry(logr)
	broadcastHub := hub.New(store, registry, logr)

	bus, err := eventbus.Connect(eventbus.Config{
		URL:              cfg.NATS.URL,
		ClientName:       cfg.NATS.ClientName,
		LogSubjectPrefix: cfg.NATS.LogSubjectPrefix,
		JobStatusSubject: cfg.NATS.JobStatusSubject,
	}, logr)
	if err != nil {
		logr.Fatal("connect event bus", zap.Error(err))
	}
	if err := bus.SubscribeLogs(func(videoID, line string) {
		broadcastHub.HandleLog(ctx, videoID, line)
	}); err != nil {
		logr.Fatal("subscribe logs", zap.Error(err))
	}
	if err := bus.SubscribeJobStatus(func(videoID, status string) {
		broadcastHub.HandleJobStatus(ctx, videoID, status)
	}); err != nil {
		logr.Fatal("subscribe job updates", zap.Error(err))
	}

	service := coordinator.New(coordinator.Params{
		Store:              store,
		Objects:            objects,
		Dispatcher:         coordinator.NewKafkaDispatcher(producer),
		Logger:             logr,
		PartURLTTL:         cfg.Upload.PartURLTTL,
		MaxParts:           cfg.Upload.MaxParts,
		PresignConcurrency: cfg.Upload.PresignConcurrency,
	})

	handler := coordinator.NewHTTPHandler(service, realtime.NewHandler(registry, logr), logr)

	metricsServer := metrics.StartServer(cfg.Metrics.Addr, logr)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      handler.Router(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logr.Error("http server shutdown failed", zap.Error(err))
		}
		if err := bus.Close(); err != nil {
			logr.Error("event bus shutdown failed", zap.Error(err))
		}
		broadcastHub.Drain()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logr.Error("metrics server shutdown failed", zap.Error(err))
		}
		if err := service.Close(); err != nil {
			logr.Error("service shutdown failed", zap.Error(err))
		}
	}()

	logr.Info("coordinator starting", zap.String("addr", cfg.HTTP.Addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logr.Fatal("http server failed", zap.Error(err))
	}
}

func newVideoStore(ctx context.Context, cfg config.DatabaseConfig) (video.Store, func(), error) {
	switch cfg.Driver {
	case "memory":
		return video.NewMemoryStore(), func() {}, nil
	default:
		pool, err := pgxpool.New(ctx, cfg.URL)
		if err != nil {
			return nil, nil, err
		}
		store, err := video.NewPostgresStore(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil
	}
}

func parseResourceAttributes(raw string) map[string]string {
	if raw == "" {
		return map[string]string{}
	}
	attrs := map[string]string{}
	pairs := strings.Split(raw, ",")
	for _, pair := range pairs {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		if !strings.Contains(pair, "=") {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		attrs[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return attrs
}
