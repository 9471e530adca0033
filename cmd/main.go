package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Damiangorskii/web-order-service/internal/cache"
	"github.com/Damiangorskii/web-order-service/internal/cartclient"
	"github.com/Damiangorskii/web-order-service/internal/clock"
	"github.com/Damiangorskii/web-order-service/internal/config"
	"github.com/Damiangorskii/web-order-service/internal/consumer"
	ordersgrpc "github.com/Damiangorskii/web-order-service/internal/grpc"
	h "github.com/Damiangorskii/web-order-service/internal/http"
	"github.com/Damiangorskii/web-order-service/internal/metrics"
	"github.com/Damiangorskii/web-order-service/internal/publisher"
	"github.com/Damiangorskii/web-order-service/internal/repository"
	"github.com/Damiangorskii/web-order-service/internal/service"
	"github.com/Damiangorskii/web-order-service/internal/sweeper"
	"github.com/Damiangorskii/web-order-service/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const serviceName = "web-order-service"

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	log := logger.New(os.Stdout, serviceName, cfg.LogLevel)
	slog.SetDefault(log)
	log.Info("web-order-service starting...", slog.String("store", cfg.StoreDriver))

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if err := run(cfg, log); err != nil {
		log.Error("web-order-service stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
	log.Info("web-order-service stopped")
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx := context.Background()
	var wg sync.WaitGroup

	repo, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer repo.Close()

	orderCache, closeCache, err := openCache(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeCache()

	var events publisher.Publisher = publisher.NoopPublisher{}
	if cfg.KafkaEnabled() {
		events = publisher.NewKafkaPublisher(cfg.KafkaBrokers...)
		log.Info("publishing order events", slog.Any("brokers", cfg.KafkaBrokers), slog.String("topic", publisher.OrderEventsTopic))
	}
	defer events.Close()

	m := metrics.New(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)

	orders := service.NewOrderService(repo,
		cartclient.New(cfg.CartServiceURL, cfg.CartServiceTimeout),
		service.WithCache(orderCache),
		service.WithPublisher(events),
		service.WithClock(clock.NewSystem()),
		service.WithRetention(cfg.OrderRetention),
		service.WithLogger(log.With(slog.String("component", "order-service"))),
		service.WithSweepRecorder(m),
	)

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	sw := sweeper.New(orders, cfg.SweepInterval, log.With(slog.String("component", "sweeper")))
	wg.Add(1)
	go func() {
		defer wg.Done()
		sw.Run(bgCtx)
	}()

	var importer *consumer.ImportConsumer
	if cfg.KafkaEnabled() {
		importer = consumer.NewImportConsumer(orders, log.With(slog.String("component", "import-consumer")), cfg.KafkaBrokers...)
		wg.Add(1)
		go func() {
			defer wg.Done()
			importer.Run(bgCtx)
		}()
	}

	// gRPC health
	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("listen on grpc port: %w", err)
	}
	healthServer := ordersgrpc.NewHealthServer()
	go func() {
		log.Info("grpc health listening", slog.String("port", cfg.GRPCPort))
		if err := healthServer.Server.Serve(lis); err != nil {
			log.Error("grpc server error", slog.Any("error", err))
		}
	}()

	handler := h.NewOrdersHandler(orders, cfg.RequestTimeout, cfg.MaxUploadBytes, log.With(slog.String("component", "http")))
	srv := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: h.NewRouter(h.RouterConfig{
			Orders:         handler,
			Metrics:        m,
			Logger:         log,
			RequestTimeout: cfg.RequestTimeout,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("http server listening", slog.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()
	healthServer.SetServing()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	var runErr error
	select {
	case sig := <-quit:
		log.Info("shutting down", slog.String("signal", sig.String()))
	case err := <-serverErr:
		runErr = fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server forced to shutdown", slog.Any("error", err))
	}
	healthServer.Shutdown()
	bgCancel()

	doneChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneChan)
	}()

	select {
	case <-doneChan:
		log.Info("background workers stopped cleanly")
	case <-shutdownCtx.Done():
		log.Warn("background workers didn't stop in time")
	}

	if importer != nil {
		if err := importer.Close(); err != nil {
			log.Error("error closing import consumer", slog.Any("error", err))
		}
	}
	return runErr
}

func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (repository.OrderRepository, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		repo, err := repository.NewPostgresRepository(ctx, &cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := repo.RunMigrations(&cfg.Postgres); err != nil {
			repo.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		log.Info("connected to postgres", slog.String("host", cfg.Postgres.Host), slog.String("db", cfg.Postgres.DBName))
		return repo, nil
	default:
		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		db, err := repository.ConnectMongoDB(connectCtx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, err
		}
		repo := repository.NewMongoRepository(db)
		if err := repo.CreateIndexes(connectCtx); err != nil {
			repo.Close()
			return nil, err
		}
		log.Info("connected to mongodb", slog.String("db", cfg.MongoDBName))
		return repo, nil
	}
}

func openCache(ctx context.Context, cfg *config.Config, log *slog.Logger) (cache.OrderCache, func(), error) {
	if !cfg.CacheEnabled() {
		log.Info("order cache disabled")
		return cache.NoopCache{}, func() {}, nil
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		redisClient.Close()
		return nil, nil, fmt.Errorf("redis connection failed: %w", err)
	}
	log.Info("redis ping succeeded", slog.String("addr", cfg.RedisAddr))

	return cache.NewRedisCache(redisClient, cfg.CacheTTL), func() { redisClient.Close() }, nil
}
