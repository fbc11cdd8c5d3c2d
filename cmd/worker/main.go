package main

import (
	"context"
	"encoding/json"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/you/tg-mediafetch/internal/chat"
	"github.com/you/tg-mediafetch/internal/config"
	"github.com/you/tg-mediafetch/internal/deliver"
	"github.com/you/tg-mediafetch/internal/fetch"
	"github.com/you/tg-mediafetch/internal/i18n"
	"github.com/you/tg-mediafetch/internal/jobs"
	"github.com/you/tg-mediafetch/internal/logx"
	"github.com/you/tg-mediafetch/internal/orchestrator"
	"github.com/you/tg-mediafetch/internal/quota"
	"github.com/you/tg-mediafetch/internal/session"
	"github.com/you/tg-mediafetch/internal/store"
	"github.com/you/tg-mediafetch/internal/sweeper"
)

func main() {
	_ = godotenv.Load()
	c := config.Load()

	logx.Setup(logx.FromEnv("worker"))
	log.Info().Msg("worker starting")

	if c.BotToken == "" {
		log.Fatal().Msg("BOT_TOKEN required")
	}
	if err := i18n.Check(); err != nil {
		log.Fatal().Err(err).Msg("translation catalog invalid")
	}
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("create data dir")
	}

	bot, err := tgbotapi.NewBotAPI(c.BotToken)
	if err != nil {
		log.Fatal().Err(err).Msg("telegram auth failed")
	}

	rdb := redis.NewClient(&redis.Options{Addr: c.RedisAddr})

	users, err := store.NewSQLite(c.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("open user store")
	}
	defer users.Close()

	var uploader deliver.Uploader
	if c.StorageBackend == "minio" {
		mu, err := deliver.NewMinioUploader(deliver.MinioConfig{
			Endpoint:  c.MinioEndpoint,
			AccessKey: c.MinioAccessKey,
			SecretKey: c.MinioSecretKey,
			Bucket:    c.MinioBucket,
			UseSSL:    c.MinioUseSSL,
			LinkTTL:   c.LinkTTL,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("minio init failed")
		}
		if err := mu.EnsureBucket(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("bucket init failed")
		}
		uploader = mu
	}

	var refresher deliver.Refresher
	if c.OAuthTokenURL != "" {
		refresher = deliver.NewOAuthRefresher(c.OAuthClientID, c.OAuthClientSecret, c.OAuthTokenURL)
	}

	msg := chat.NewTelegram(bot)
	sessions := session.NewStore(session.NewRedisKV(rdb))
	limiter := quota.New(quota.NewRedisCounter(rdb), c.DailyLimit)
	router := deliver.NewRouter(msg, uploader, users, refresher)

	asClient := asynq.NewClient(asynq.RedisClientOpt{Addr: c.RedisAddr})
	defer asClient.Close()

	orch := orchestrator.New(c, msg, sessions, limiter, users, fetch.NewYTDLP(), router,
		&orchestrator.AsynqEnqueuer{Client: asClient})

	// Safety net behind per-job cleanup.
	sw := sweeper.New(c.DataDir, c.FileMaxAge, c.SweepInterval)
	sweepCtx, cancelSweep := context.WithCancel(context.Background())
	defer cancelSweep()
	go sw.Run(sweepCtx)

	srv := asynq.NewServer(asynq.RedisClientOpt{Addr: c.RedisAddr}, asynq.Config{
		Concurrency: c.Concurrency,
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(jobs.TaskAcquire, func(ctx context.Context, t *asynq.Task) error {
		var p jobs.AcquirePayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return err
		}
		return orch.HandleAcquire(ctx, p)
	})
	mux.HandleFunc(jobs.TaskDeliver, func(ctx context.Context, t *asynq.Task) error {
		var p jobs.DeliverPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return err
		}
		return orch.HandleDeliver(ctx, p)
	})

	log.Info().Int("concurrency", c.Concurrency).Str("data_dir", c.DataDir).Msg("worker ready")
	if err := srv.Run(mux); err != nil {
		log.Fatal().Err(err).Msg("worker stopped")
	}
}
