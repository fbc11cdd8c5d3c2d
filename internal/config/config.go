package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the recognized options for both binaries. Values come from the
// environment with defaults sized for a small single-host deployment.
type Config struct {
	BotToken  string
	RedisAddr string
	DBPath    string
	DataDir   string

	DailyLimit    int   // downloads per user per calendar day
	DirectMaxByte int64 // hard Telegram upload ceiling
	MaxHeight     int   // top of the video quality ladder
	Concurrency   int   // concurrent acquisitions across all users

	AcquireTimeout time.Duration
	DeliverTimeout time.Duration

	SweepInterval time.Duration
	FileMaxAge    time.Duration

	AdminIDs []int64

	StorageBackend string // "minio" (default) or "none"
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	LinkTTL        time.Duration

	OAuthClientID     string
	OAuthClientSecret string
	OAuthTokenURL     string
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func mustBool(k string, def bool) bool {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes")
	}
	return def
}

func mustDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseIDList(s string) []int64 {
	var ids []int64
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if id, err := strconv.ParseInt(p, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func Load() Config {
	mb := mustInt("TG_UPLOAD_LIMIT_MB", 50)
	return Config{
		BotToken:  os.Getenv("BOT_TOKEN"),
		RedisAddr: getenv("REDIS_ADDR", "localhost:6379"),
		DBPath:    getenv("DB_PATH", "bot.db"),
		DataDir:   getenv("DATA_DIR", "/tmp/mediafetch"),

		DailyLimit:    mustInt("DAILY_LIMIT", 20),
		DirectMaxByte: int64(mb) * 1024 * 1024,
		MaxHeight:     mustInt("MAX_HEIGHT", 1080),
		Concurrency:   mustInt("CONCURRENCY", 3),

		AcquireTimeout: mustDuration("ACQUIRE_TIMEOUT", 15*time.Minute),
		DeliverTimeout: mustDuration("DELIVER_TIMEOUT", 15*time.Minute),

		SweepInterval: mustDuration("SWEEP_INTERVAL", 5*time.Minute),
		FileMaxAge:    mustDuration("FILE_MAX_AGE", 10*time.Minute),

		AdminIDs: parseIDList(os.Getenv("ADMIN_IDS")),

		StorageBackend: getenv("STORAGE_BACKEND", "minio"),
		MinioEndpoint:  getenv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getenv("MINIO_BUCKET", "mediafetch"),
		MinioUseSSL:    mustBool("MINIO_USE_SSL", false),
		LinkTTL:        mustDuration("LINK_TTL", 7*24*time.Hour),

		OAuthClientID:     os.Getenv("OAUTH_CLIENT_ID"),
		OAuthClientSecret: os.Getenv("OAUTH_CLIENT_SECRET"),
		OAuthTokenURL:     os.Getenv("OAUTH_TOKEN_URL"),
	}
}

// IsAdmin reports whether id is on the admin allowlist.
func (c Config) IsAdmin(id int64) bool {
	for _, a := range c.AdminIDs {
		if a == id {
			return true
		}
	}
	return false
}
