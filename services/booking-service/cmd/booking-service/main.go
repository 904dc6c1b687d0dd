package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/md-rashed-zaman/slotbook/libs/cache"
	"github.com/md-rashed-zaman/slotbook/libs/config"
	"github.com/md-rashed-zaman/slotbook/libs/db"
	"github.com/md-rashed-zaman/slotbook/libs/grpcx"
	"github.com/md-rashed-zaman/slotbook/libs/httpx"
	"github.com/md-rashed-zaman/slotbook/libs/kafkax"
	otelx "github.com/md-rashed-zaman/slotbook/libs/otel"
	"github.com/md-rashed-zaman/slotbook/libs/runtime"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/clock"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/handlers"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/memstore"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/service"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/service/ports"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/storage"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/migrations"
)

const grpcServiceName = "slotbook.booking"

func main() {
	loader, err := config.Load()
	if err != nil {
		panic(err)
	}
	cfg, err := loadSettings(loader)
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(cfg.ServiceName, cfg.LogLevel)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFrom(loader, cfg.ServiceName))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	var (
		windows      ports.WindowStore
		reservations ports.ReservationStore
		notifier     ports.Notifier
		checks       []runtime.ReadyCheck
	)
	switch cfg.StorageDriver {
	case driverMemory:
		logger.Warn("using in-memory storage; data is lost on restart")
		mem := memstore.New()
		windows, reservations = mem, mem
		notifier = outbox.NewLogNotifier(logger)
	default:
		if cfg.MigrateOnStart {
			if err := db.Migrate(ctx, cfg.DatabaseURL, migrations.FS, logger); err != nil {
				logger.Error("migrations failed", "err", err)
				os.Exit(1)
			}
		}
		pool, err := db.Open(ctx, cfg.DatabaseURL, db.DefaultPoolOptions())
		if err != nil {
			logger.Error("db connection failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()

		store := storage.New(pool)
		windows, reservations = store, store
		outboxRepo := outbox.NewRepository(pool)
		notifier = outbox.NewNotifier(pool, outboxRepo)
		checks = append(checks, runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)})

		publisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
			Brokers:   cfg.KafkaBrokers,
			PollEvery: cfg.OutboxPollEvery,
			BatchSize: cfg.OutboxBatchSize,
		})
		go publisher.Run(ctx)
		if len(cfg.KafkaBrokers) > 0 {
			checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(cfg.KafkaBrokers)})
		}
	}

	var (
		availability ports.Cache
		limiter      httpx.Limiter
	)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		redisCache := cache.NewRedis(rdb, cfg.ServiceName+":", logger)
		availability = redisCache
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: redisCache.Ping})
		if cfg.RateLimitPerMinute > 0 {
			limiter = httpx.NewRedisRateLimiter(rdb, cfg.RateLimitPerMinute, time.Minute, cfg.ServiceName+":rl")
		}
	} else {
		availability = cache.NewMemory()
		if cfg.RateLimitPerMinute > 0 {
			limiter = httpx.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
		}
	}

	clk := clock.System()
	slots := service.NewSlotService(windows, availability, clk, logger, cfg.AvailableTTL)
	bookings := service.NewBookingService(reservations, availability, notifier, clk, logger)

	mux := runtime.NewBaseMuxWithReady(checks...)
	handlers.Register(mux,
		handlers.NewWindowHandler(slots, logger),
		handlers.NewReservationHandler(bookings, logger),
	)

	middlewares := []httpx.Middleware{
		httpx.WithRecovery(logger),
		httpx.WithRequestID,
		httpx.WithCORS(httpx.DefaultCORSPolicy(cfg.CORSOrigins)),
		httpx.WithIdentity(httpx.IdentityConfig{Secret: cfg.JWTSecret, TrustHeaders: cfg.TrustIdentityHeaders}),
		httpx.WithAccessLog(logger),
	}
	if limiter != nil {
		middlewares = append(middlewares, httpx.RateLimit(limiter, logger, true))
	}
	middlewares = append(middlewares, httpx.WithBodyLimit(1<<20), httpx.WithTimeout(15*time.Second))

	httpHandler := otelhttp.NewHandler(httpx.Chain(mux, middlewares...), "booking")
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr, "storage", cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
			stop()
		}
	}()

	grpcSrv := startGRPC(cfg.GRPCPort, logger, stop)

	<-ctx.Done()
	if grpcSrv != nil {
		grpcSrv.SetServing(false, grpcServiceName)
		grpcSrv.GracefulStop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

// startGRPC serves the health service on port; an empty port disables it.
func startGRPC(port string, logger *slog.Logger, stop context.CancelFunc) *grpcx.Server {
	if port == "" {
		return nil
	}
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		logger.Error("grpc listen failed", "err", err)
		stop()
		return nil
	}
	srv := grpcx.NewServer(logger)
	srv.SetServing(true, grpcServiceName)
	go func() {
		logger.Info("grpc server starting", "addr", lis.Addr().String())
		if err := srv.Serve(lis); err != nil {
			logger.Error("grpc server error", "err", err)
		}
	}()
	return srv
}
