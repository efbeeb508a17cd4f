package config

import (
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	pkgcfg "github.com/Skotchmaster/mini_online_store/pkg/config"
)

const (
	BlacklistGorm   = "gorm"
	BlacklistRedis  = "redis"
	BlacklistMemory = "memory"

	NotifierKafka = "kafka"
	NotifierLog   = "log"
)

// Config is loaded once at startup and passed down by value or pointer; nothing reads env after Load.
type Config struct {
	ServiceName string
	ServerAddr  string
	LogLevel    string
	PublicURL   string

	DBDriver    string
	DatabaseURL string

	JWTSecret        []byte
	JWTRefreshSecret []byte
	ActivationSecret []byte
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	ActivationMaxAge time.Duration
	BcryptCost       int

	BlacklistBackend       string
	BlacklistPurgeInterval time.Duration
	RedisAddr              string
	RedisPassword          string
	RedisDB                int

	KafkaBrokers      []string
	UserEventsTopic   string
	NotificationTopic string
	NotifierBackend   string
}

// Load reads an optional env file (ENV_FILE, default .env) and then the process environment.
func Load() (*Config, error) {
	file := pkgcfg.EnvDefault("ENV_FILE", ".env")
	if err := godotenv.Load(file); err != nil {
		slog.Info("env_file_not_loaded", "file", file, "reason", err.Error())
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	jwtSecret := os.Getenv("JWT_SECRET")

	cfg := &Config{
		ServiceName: pkgcfg.EnvDefault("SERVICE_NAME", "users"),
		ServerAddr:  pkgcfg.EnvDefault("SERVER_ADDR", ":8080"),
		LogLevel:    pkgcfg.EnvDefault("LOG_LEVEL", "info"),
		PublicURL:   pkgcfg.EnvDefault("PUBLIC_URL", "http://localhost:8080"),

		DBDriver:    pkgcfg.EnvDefault("DB_DRIVER", "postgres"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret:        []byte(jwtSecret),
		JWTRefreshSecret: []byte(os.Getenv("JWT_REFRESH_SECRET")),
		ActivationSecret: []byte(pkgcfg.EnvDefault("ACTIVATION_SECRET", jwtSecret)),
		AccessTTL:        pkgcfg.EnvDurationDefault("ACCESS_TOKEN_TTL", 5*time.Minute),
		RefreshTTL:       pkgcfg.EnvDurationDefault("REFRESH_TOKEN_TTL", 24*time.Hour),
		ActivationMaxAge: pkgcfg.EnvDurationDefault("ACTIVATION_TOKEN_MAX_AGE", 0),
		BcryptCost:       pkgcfg.EnvIntDefault("BCRYPT_COST", 10),

		BlacklistBackend:       pkgcfg.EnvDefault("BLACKLIST_BACKEND", BlacklistGorm),
		BlacklistPurgeInterval: pkgcfg.EnvDurationDefault("BLACKLIST_PURGE_INTERVAL", time.Hour),
		RedisAddr:              pkgcfg.EnvDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		RedisDB:                pkgcfg.EnvIntDefault("REDIS_DB", 0),

		KafkaBrokers:      pkgcfg.CSV(os.Getenv("KAFKA_BROKERS")),
		UserEventsTopic:   pkgcfg.EnvDefault("USER_EVENTS_TOPIC", "user_events"),
		NotificationTopic: pkgcfg.EnvDefault("NOTIFICATION_TOPIC", "notification_events"),
		NotifierBackend:   pkgcfg.EnvDefault("NOTIFIER_BACKEND", NotifierLog),
	}

	if err := pkgcfg.Require(
		pkgcfg.Requirement{Env: "DATABASE_URL", Value: cfg.DatabaseURL},
		pkgcfg.Requirement{Env: "JWT_SECRET", Value: string(cfg.JWTSecret)},
		pkgcfg.Requirement{Env: "JWT_REFRESH_SECRET", Value: string(cfg.JWTRefreshSecret)},
	); err != nil {
		return nil, err
	}
	if cfg.NotifierBackend == NotifierKafka && len(cfg.KafkaBrokers) == 0 {
		return nil, &pkgcfg.MissingEnvError{Names: []string{"KAFKA_BROKERS"}}
	}

	return cfg, nil
}
