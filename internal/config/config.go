package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Log          LogConfig
	Cart         CartConfig
	Notification NotificationConfig
	SMTP         SMTPConfig
	Report       ReportConfig
}

type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type LogConfig struct {
	Level string
}

type CartConfig struct {
	TxTimeout        time.Duration
	MaxRetryAttempts int
}

type NotificationConfig struct {
	AdminEmail  string
	DebounceTTL time.Duration
	Workers     int
	QueueSize   int
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type ReportConfig struct {
	TimeZone string
}

// binding ties a config key to its environment variable and default.
type binding struct {
	key string
	env string
	def any
}

var bindings = []binding{
	{"server.port", "SERVER_PORT", 8080},
	{"server.shutdownTimeout", "SERVER_SHUTDOWN_TIMEOUT", "10s"},

	{"database.host", "DB_HOST", "localhost"},
	{"database.port", "DB_PORT", 3306},
	{"database.user", "DB_USER", "stockcart"},
	{"database.password", "DB_PASSWORD", "secret"},
	{"database.name", "DB_NAME", "stockcart"},
	{"database.maxOpenConns", "DB_MAX_OPEN_CONNS", 25},
	{"database.maxIdleConns", "DB_MAX_IDLE_CONNS", 5},
	{"database.connMaxLifetime", "DB_CONN_MAX_LIFETIME", "5m"},
	{"database.autoMigrate", "DB_AUTO_MIGRATE", true},

	{"redis.enabled", "REDIS_ENABLED", false},
	{"redis.addr", "REDIS_ADDR", "localhost:6379"},
	{"redis.password", "REDIS_PASSWORD", ""},
	{"redis.db", "REDIS_DB", 0},

	{"log.level", "LOG_LEVEL", "info"},

	{"cart.txTimeout", "CART_TX_TIMEOUT", "5s"},
	{"cart.maxRetryAttempts", "CART_MAX_RETRY_ATTEMPTS", 3},

	{"notification.adminEmail", "NOTIFICATION_ADMIN_EMAIL", "admin@example.com"},
	{"notification.debounceTTL", "NOTIFICATION_DEBOUNCE_TTL", "1h"},
	{"notification.workers", "NOTIFICATION_WORKERS", 4},
	{"notification.queueSize", "NOTIFICATION_QUEUE_SIZE", 1024},

	{"smtp.host", "SMTP_HOST", ""},
	{"smtp.port", "SMTP_PORT", 587},
	{"smtp.user", "SMTP_USER", ""},
	{"smtp.password", "SMTP_PASSWORD", ""},
	{"smtp.from", "SMTP_FROM", "stockcart@example.com"},

	{"report.timeZone", "REPORT_TIME_ZONE", "UTC"},
}

// Load reads the optional YAML file at path and overlays environment variables.
// A missing file is not an error; defaults and the environment still apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	for _, b := range bindings {
		v.SetDefault(b.key, b.def)
		if err := v.BindEnv(b.key, b.env); err != nil {
			return nil, fmt.Errorf("binding env %s: %w", b.env, err)
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("checking config file: %w", err)
		}
	}

	shutdownTimeout, err := time.ParseDuration(v.GetString("server.shutdownTimeout"))
	if err != nil {
		return nil, fmt.Errorf("parsing server.shutdownTimeout: %w", err)
	}

	connMaxLifetime, err := time.ParseDuration(v.GetString("database.connMaxLifetime"))
	if err != nil {
		return nil, fmt.Errorf("parsing database.connMaxLifetime: %w", err)
	}

	txTimeout, err := time.ParseDuration(v.GetString("cart.txTimeout"))
	if err != nil {
		return nil, fmt.Errorf("parsing cart.txTimeout: %w", err)
	}

	debounceTTL, err := time.ParseDuration(v.GetString("notification.debounceTTL"))
	if err != nil {
		return nil, fmt.Errorf("parsing notification.debounceTTL: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetInt("server.port"),
			ShutdownTimeout: shutdownTimeout,
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			Name:            v.GetString("database.name"),
			MaxOpenConns:    v.GetInt("database.maxOpenConns"),
			MaxIdleConns:    v.GetInt("database.maxIdleConns"),
			ConnMaxLifetime: connMaxLifetime,
			AutoMigrate:     v.GetBool("database.autoMigrate"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level: v.GetString("log.level"),
		},
		Cart: CartConfig{
			TxTimeout:        txTimeout,
			MaxRetryAttempts: v.GetInt("cart.maxRetryAttempts"),
		},
		Notification: NotificationConfig{
			AdminEmail:  v.GetString("notification.adminEmail"),
			DebounceTTL: debounceTTL,
			Workers:     v.GetInt("notification.workers"),
			QueueSize:   v.GetInt("notification.queueSize"),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("smtp.host"),
			Port:     v.GetInt("smtp.port"),
			User:     v.GetString("smtp.user"),
			Password: v.GetString("smtp.password"),
			From:     v.GetString("smtp.from"),
		},
		Report: ReportConfig{
			TimeZone: v.GetString("report.timeZone"),
		},
	}

	if cfg.Cart.MaxRetryAttempts < 1 {
		cfg.Cart.MaxRetryAttempts = 1
	}
	if cfg.Notification.Workers < 1 {
		cfg.Notification.Workers = 1
	}

	return cfg, nil
}
