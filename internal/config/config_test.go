package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 20, cfg.DailyLimit)
	assert.Equal(t, int64(50*1024*1024), cfg.DirectMaxByte)
	assert.Equal(t, 1080, cfg.MaxHeight)
	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, 15*time.Minute, cfg.AcquireTimeout)
	assert.Equal(t, 10*time.Minute, cfg.FileMaxAge)
	assert.Equal(t, "minio", cfg.StorageBackend)
	assert.Equal(t, 7*24*time.Hour, cfg.LinkTTL)
	assert.Empty(t, cfg.AdminIDs)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DAILY_LIMIT", "5")
	t.Setenv("TG_UPLOAD_LIMIT_MB", "2000")
	t.Setenv("ACQUIRE_TIMEOUT", "30m")
	t.Setenv("ADMIN_IDS", "100, 200,notanid,")
	t.Setenv("MINIO_USE_SSL", "true")

	cfg := Load()
	assert.Equal(t, 5, cfg.DailyLimit)
	assert.Equal(t, int64(2000)*1024*1024, cfg.DirectMaxByte)
	assert.Equal(t, 30*time.Minute, cfg.AcquireTimeout)
	assert.Equal(t, []int64{100, 200}, cfg.AdminIDs)
	assert.True(t, cfg.MinioUseSSL)
}

func TestLoadIgnoresMalformed(t *testing.T) {
	t.Setenv("DAILY_LIMIT", "lots")
	t.Setenv("SWEEP_INTERVAL", "soon")

	cfg := Load()
	assert.Equal(t, 20, cfg.DailyLimit)
	assert.Equal(t, 5*time.Minute, cfg.SweepInterval)
}

func TestIsAdmin(t *testing.T) {
	cfg := Config{AdminIDs: []int64{1, 2}}
	assert.True(t, cfg.IsAdmin(2))
	assert.False(t, cfg.IsAdmin(3))
}
