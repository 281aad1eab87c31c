package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"stockcart/internal/cart"
	"stockcart/internal/config"
	"stockcart/internal/infrastructure/logger"
	"stockcart/internal/infrastructure/metrics"
	"stockcart/internal/infrastructure/mysql"
	"stockcart/internal/infrastructure/redis"
	"stockcart/internal/notification"
	"stockcart/internal/product"
	"stockcart/internal/server"
	"stockcart/internal/validation"
)

func main() {
	// .env is optional; real deployments inject the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load("internal/config/config.yaml")
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level, "stockcart")
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := mysql.NewConnection(cfg.Database)
	if err != nil {
		zapLogger.Fatal("connecting to database", zap.Error(err))
	}
	defer db.Close()
	zapLogger.Info("database connected")

	if cfg.Database.AutoMigrate {
		if err := mysql.Migrate(ctx, db); err != nil {
			zapLogger.Fatal("running migrations", zap.Error(err))
		}
		zapLogger.Info("migrations applied")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db, cfg.Database.Name),
	)
	appMetrics := metrics.New(registry)

	txm := mysql.NewTxManager(db, cfg.Cart.TxTimeout)
	validator := validation.New()

	productModule := product.NewModule(db, txm, validator, zapLogger)

	var debounce notification.DebounceCache
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			zapLogger.Fatal("connecting to redis", zap.Error(err))
		}
		defer redisClient.Close()
		debounce = notification.NewRedisDebounce(redisClient)
		zapLogger.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
	} else {
		debounce = notification.NewMemoryDebounce()
		zapLogger.Info("redis disabled, using in-process debounce cache")
	}

	notifier := notification.NewLowStockNotifier(
		productModule.Products,
		productModule.Stock,
		debounce,
		notification.NewMailer(cfg.SMTP, zapLogger),
		appMetrics,
		zapLogger,
		notification.Options{
			AdminEmail:  cfg.Notification.AdminEmail,
			DebounceTTL: cfg.Notification.DebounceTTL,
			Workers:     cfg.Notification.Workers,
			QueueSize:   cfg.Notification.QueueSize,
		},
	)
	notifierDone := make(chan struct{})
	go func() {
		defer close(notifierDone)
		notifier.Run(ctx)
	}()

	cartCtrl := cart.NewModule(
		db,
		cfg.Cart,
		txm,
		productModule.Products,
		productModule.Stock,
		notifier,
		appMetrics,
		validator,
		zapLogger,
	)

	router := server.NewRouter(productModule.Controller, cartCtrl, registry, zapLogger)
	srv := server.New(cfg.Server, router, zapLogger)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		zapLogger.Info("received shutdown signal")
	case err := <-serverErr:
		if err != nil {
			zapLogger.Error("server error", zap.Error(err))
		}
		stop()
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		zapLogger.Error("server shutdown failed", zap.Error(err))
	}
	<-notifierDone

	zapLogger.Info("server stopped gracefully")
}
