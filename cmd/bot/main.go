package main

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/you/tg-mediafetch/internal/chat"
	"github.com/you/tg-mediafetch/internal/config"
	"github.com/you/tg-mediafetch/internal/deliver"
	"github.com/you/tg-mediafetch/internal/fetch"
	"github.com/you/tg-mediafetch/internal/i18n"
	"github.com/you/tg-mediafetch/internal/logx"
	"github.com/you/tg-mediafetch/internal/orchestrator"
	"github.com/you/tg-mediafetch/internal/quota"
	"github.com/you/tg-mediafetch/internal/session"
	"github.com/you/tg-mediafetch/internal/store"
)

var rctx = context.Background()

type server struct {
	cfg     config.Config
	bot     *tgbotapi.BotAPI
	msg     chat.Messenger
	users   store.Repository
	limiter *quota.Limiter
	orch    *orchestrator.Orchestrator
}

func main() {
	_ = godotenv.Load()
	c := config.Load()

	logx.Setup(logx.FromEnv("bot"))
	log.Info().Msg("bot starting")

	if c.BotToken == "" {
		log.Fatal().Msg("BOT_TOKEN is required")
	}
	if err := i18n.Check(); err != nil {
		log.Fatal().Err(err).Msg("translation catalog invalid")
	}

	// health endpoint
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`{"ok":true}`)) })
		log.Info().Msg("bot health on :8080/health")
		log.Error().Err(http.ListenAndServe(":8080", nil)).Msg("health server stopped")
	}()

	bot, err := tgbotapi.NewBotAPI(c.BotToken)
	if err != nil {
		log.Fatal().Err(err).Msg("telegram auth failed")
	}
	bot.Debug = false
	log.Info().Str("username", bot.Self.UserName).Msg("bot authorized")

	rdb := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
	asClient := asynq.NewClient(asynq.RedisClientOpt{Addr: c.RedisAddr})
	defer asClient.Close()

	users, err := store.NewSQLite(c.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("open user store")
	}
	defer users.Close()

	msg := chat.NewTelegram(bot)
	sessions := session.NewStore(session.NewRedisKV(rdb))
	limiter := quota.New(quota.NewRedisCounter(rdb), c.DailyLimit)

	// The bot side only needs the router's fail-fast credential check; both
	// routes execute in the worker.
	router := deliver.NewRouter(msg, nil, users, nil)

	orch := orchestrator.New(c, msg, sessions, limiter, users, fetch.NewYTDLP(), router,
		&orchestrator.AsynqEnqueuer{Client: asClient})

	s := &server{cfg: c, bot: bot, msg: msg, users: users, limiter: limiter, orch: orch}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := bot.GetUpdatesChan(u)

	for upd := range updates {
		switch {
		case upd.Message != nil:
			s.onMessage(upd.Message)
		case upd.CallbackQuery != nil:
			s.onCallback(upd.CallbackQuery)
		}
	}
}

func (s *server) onMessage(m *tgbotapi.Message) {
	log.Info().
		Int64("chat_id", m.Chat.ID).
		Int64("user_id", m.From.ID).
		Msg("message received")

	user, err := s.users.UpsertUser(rctx, m.From.ID, m.From.UserName)
	if err != nil {
		log.Error().Err(err).Msg("user upsert failed")
		return
	}
	lang := user.Language

	if m.IsCommand() {
		switch m.Command() {
		case "start":
			_, _ = s.msg.SendText(m.Chat.ID, i18n.T(lang, i18n.KeyWelcome, nil))
		case "help":
			_, _ = s.msg.SendText(m.Chat.ID, i18n.T(lang, i18n.KeyHelp, map[string]string{
				"limit":  strconv.Itoa(s.cfg.DailyLimit),
				"max_mb": strconv.FormatInt(s.cfg.DirectMaxByte/(1024*1024), 10),
			}))
		case "status":
			s.sendStatus(m.Chat.ID, user)
		case "settings":
			_, _ = s.msg.SendButtons(m.Chat.ID, i18n.T(lang, i18n.KeySelectLanguage, nil), [][]chat.Button{{
				{Label: "🇬🇧 English", Data: "lang:en"},
				{Label: "🇧🇩 বাংলা", Data: "lang:bn"},
			}})
		case "connect":
			s.handleConnect(m, lang)
		case "admin":
			s.sendAdmin(m.Chat.ID, m.From.ID, lang)
		default:
			_, _ = s.msg.SendText(m.Chat.ID, i18n.T(lang, i18n.KeyHelp, map[string]string{
				"limit":  strconv.Itoa(s.cfg.DailyLimit),
				"max_mb": strconv.FormatInt(s.cfg.DirectMaxByte/(1024*1024), 10),
			}))
		}
		return
	}

	if m.Text == "" {
		return
	}
	if err := s.orch.HandleURL(rctx, m.Chat.ID, m.From.ID, lang, m.Text); err != nil {
		log.Error().Err(err).Msg("url handling failed")
	}
}

func (s *server) onCallback(cq *tgbotapi.CallbackQuery) {
	user, err := s.users.UpsertUser(rctx, cq.From.ID, cq.From.UserName)
	if err != nil {
		log.Error().Err(err).Msg("user upsert failed")
		return
	}

	cb, ok := callbackFrom(cq, user.Language)
	if !ok {
		// Originating message inaccessible (too old or deleted); just stop
		// the client's spinner.
		_ = s.msg.AnswerCallback(cq.ID, "")
		return
	}
	if err := s.orch.HandleCallback(rctx, cb); err != nil {
		log.Error().Err(err).Str("data", cq.Data).Msg("callback handling failed")
	}
}

// callbackFrom maps a transport callback onto the orchestrator's type. The
// originating message can be absent on callbacks for old messages.
func callbackFrom(cq *tgbotapi.CallbackQuery, lang string) (orchestrator.Callback, bool) {
	if cq.Message == nil {
		return orchestrator.Callback{}, false
	}
	return orchestrator.Callback{
		ID:     cq.ID,
		ChatID: cq.Message.Chat.ID,
		UserID: cq.From.ID,
		MsgID:  cq.Message.MessageID,
		Data:   cq.Data,
		Lang:   lang,
	}, true
}

func (s *server) sendStatus(chatID int64, user *store.User) {
	today, err := s.limiter.Peek(rctx, user.TelegramID)
	if err != nil {
		log.Error().Err(err).Msg("quota peek failed")
	}
	remaining, err := s.limiter.Remaining(rctx, user.TelegramID)
	if err != nil {
		log.Error().Err(err).Msg("quota read failed")
	}
	_, _ = s.msg.SendText(chatID, i18n.T(user.Language, i18n.KeyStatus, map[string]string{
		"total":     strconv.FormatInt(user.TotalDownloads, 10),
		"today":     strconv.FormatInt(today, 10),
		"remaining": strconv.FormatInt(remaining, 10),
		"joined":    user.FirstSeen.Format("2006-01-02"),
	}))
}

// handleConnect stores the cloud credential supplied as the command argument.
// The OAuth dance itself happens with the provider; we only keep the result.
func (s *server) handleConnect(m *tgbotapi.Message, lang string) {
	token := strings.TrimSpace(m.CommandArguments())
	if token == "" {
		_, _ = s.msg.SendText(m.Chat.ID, i18n.T(lang, i18n.KeyConnectHelp, nil))
		return
	}
	cred := &store.Credential{
		Version: 1,
		Token: oauth2.Token{
			AccessToken: token,
			Expiry:      time.Now().Add(30 * 24 * time.Hour),
		},
	}
	if err := s.users.SetCredential(rctx, m.From.ID, cred); err != nil {
		log.Error().Err(err).Msg("credential store failed")
		_, _ = s.msg.SendText(m.Chat.ID, i18n.T(lang, i18n.KeyFailed, map[string]string{"error": "internal error"}))
		return
	}
	_, _ = s.msg.SendText(m.Chat.ID, i18n.T(lang, i18n.KeyCloudLinked, nil))
}

func (s *server) sendAdmin(chatID, userID int64, lang string) {
	if !s.cfg.IsAdmin(userID) {
		_, _ = s.msg.SendText(chatID, i18n.T(lang, i18n.KeyNotAdmin, nil))
		return
	}
	stats, err := s.users.Stats(rctx)
	if err != nil {
		log.Error().Err(err).Msg("stats query failed")
		return
	}
	_, _ = s.msg.SendText(chatID, i18n.T(lang, i18n.KeyAdminStats, map[string]string{
		"users":     strconv.FormatInt(stats.Users, 10),
		"jobs":      strconv.FormatInt(stats.Jobs, 10),
		"completed": strconv.FormatInt(stats.Completed, 10),
		"failed":    strconv.FormatInt(stats.Failed, 10),
	}))
}
