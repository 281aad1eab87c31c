package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"stockcart/internal/config"
	"stockcart/internal/infrastructure/logger"
	"stockcart/internal/infrastructure/metrics"
	"stockcart/internal/infrastructure/mysql"
	"stockcart/internal/notification"
	"stockcart/internal/reporting"
)

func main() {
	configPath := flag.String("config", "internal/config/config.yaml", "path to the config file")
	date := flag.String("date", "", "report day as YYYY-MM-DD, defaults to today in the report time zone")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level, "stockcart-report")
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	if err := run(cfg, *date, zapLogger); err != nil {
		zapLogger.Error("daily report failed", zap.Error(err))
		zapLogger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, date string, zapLogger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := time.LoadLocation(cfg.Report.TimeZone)
	if err != nil {
		return err
	}

	day := time.Now().In(loc)
	if date != "" {
		day, err = time.ParseInLocation("2006-01-02", date, loc)
		if err != nil {
			return err
		}
	}

	db, err := mysql.NewConnection(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := reporting.NewService(
		reporting.NewMySQLRepository(db),
		notification.NewMailer(cfg.SMTP, zapLogger),
		cfg.Notification.AdminEmail,
		loc,
		metrics.NewNop(),
		zapLogger,
	)

	report, err := svc.Run(ctx, day)
	if err != nil {
		return err
	}

	zapLogger.Info("daily report sent",
		zap.String("date", report.Date),
		zap.String("to", cfg.Notification.AdminEmail),
	)
	return nil
}
