package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgcfg "github.com/Skotchmaster/mini_online_store/pkg/config"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/shop?sslmode=disable")
	t.Setenv("JWT_SECRET", "access-secret")
	t.Setenv("JWT_REFRESH_SECRET", "refresh-secret")
	for _, k := range []string{
		"ACTIVATION_SECRET", "ACCESS_TOKEN_TTL", "KAFKA_BROKERS",
		"NOTIFIER_BACKEND", "BLACKLIST_BACKEND", "DB_DRIVER", "SERVER_ADDR",
	} {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 5*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 24*time.Hour, cfg.RefreshTTL)
	assert.Zero(t, cfg.ActivationMaxAge)
	assert.Equal(t, []byte("access-secret"), cfg.ActivationSecret)
	assert.Equal(t, BlacklistGorm, cfg.BlacklistBackend)
	assert.Equal(t, NotifierLog, cfg.NotifierBackend)
	assert.Equal(t, "user_events", cfg.UserEventsTopic)
	assert.Nil(t, cfg.KafkaBrokers)
}

func TestFromEnv_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("ACCESS_TOKEN_TTL", "1m")
	t.Setenv("ACTIVATION_SECRET", "activation")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("NOTIFIER_BACKEND", NotifierKafka)
	t.Setenv("BLACKLIST_BACKEND", BlacklistRedis)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, time.Minute, cfg.AccessTTL)
	assert.Equal(t, []byte("activation"), cfg.ActivationSecret)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, BlacklistRedis, cfg.BlacklistBackend)
}

func TestFromEnv_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("JWT_REFRESH_SECRET", "x")

	_, err := FromEnv()
	var missing *pkgcfg.MissingEnvError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"DATABASE_URL", "JWT_SECRET"}, missing.Names)
}

func TestFromEnv_KafkaNotifierNeedsBrokers(t *testing.T) {
	setRequired(t)
	t.Setenv("NOTIFIER_BACKEND", NotifierKafka)
	t.Setenv("KAFKA_BROKERS", "")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}
