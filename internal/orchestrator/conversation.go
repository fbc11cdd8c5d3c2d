package orchestrator

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/you/tg-mediafetch/internal/i18n"
	"github.com/you/tg-mediafetch/internal/jobs"
	"github.com/you/tg-mediafetch/internal/logx"
	"github.com/you/tg-mediafetch/internal/session"
	"github.com/you/tg-mediafetch/internal/sweeper"
	"github.com/you/tg-mediafetch/internal/youtube"
)

// Callback is one inline-keyboard selection, decoupled from the transport's
// update type.
type Callback struct {
	ID     string
	ChatID int64
	UserID int64
	MsgID  int
	Data   string
	Lang   string
}

// HandleURL is the Idle → AwaitingFormat transition. Validation and quota
// failures are terminal at the point of detection: no session is created and
// no counter is consumed for a rejected URL.
func (o *Orchestrator) HandleURL(ctx context.Context, chatID, userID int64, lang, text string) error {
	log := logx.FromCtx(logx.WithUser(ctx, userID))
	url := strings.TrimSpace(text)

	if !youtube.Valid(url) {
		_, err := o.msg.SendText(chatID, o.t(lang, i18n.KeyInvalidURL, nil))
		return err
	}

	ok, err := o.limiter.Consume(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		log.Info().Msg("quota exhausted")
		_, err := o.msg.SendText(chatID, o.t(lang, i18n.KeyRateLimited, map[string]string{
			"limit": strconv.Itoa(o.cfg.DailyLimit),
		}))
		return err
	}

	// A new URL supersedes whatever session was in flight; the old job's
	// completion will see the changed job id and drop itself. A file parked
	// for a delivery choice goes now rather than at the next sweep.
	if prev, perr := o.sessions.Get(ctx, chatID); perr == nil && prev.FilePath != "" {
		sweeper.RemoveFile(ctx, prev.FilePath)
	}
	sess := &session.Session{
		JobID:     newJobID(),
		State:     session.StateAwaitingFormat,
		URL:       url,
		CreatedAt: time.Now().Unix(),
	}
	if err := o.sessions.Put(ctx, chatID, sess); err != nil {
		return err
	}

	log.Info().Str("jid", sess.JobID).Str("url", url).Msg("job accepted")
	_, err = o.msg.SendButtons(chatID, o.t(lang, i18n.KeySelectFormat, nil), formatButtons())
	return err
}

// HandleCallback routes an inline selection to the matching transition. A
// selection with no active session (or one arriving in the wrong state) gets
// a session-expired toast instead of advancing anything.
func (o *Orchestrator) HandleCallback(ctx context.Context, cb Callback) error {
	switch {
	case strings.HasPrefix(cb.Data, "fmt:"):
		return o.handleFormat(ctx, cb, strings.TrimPrefix(cb.Data, "fmt:"))
	case strings.HasPrefix(cb.Data, "q:"):
		return o.handleQuality(ctx, cb, strings.TrimPrefix(cb.Data, "q:"))
	case strings.HasPrefix(cb.Data, "dl:"):
		return o.handleDelivery(ctx, cb, strings.TrimPrefix(cb.Data, "dl:"))
	case strings.HasPrefix(cb.Data, "lang:"):
		return o.handleLanguage(ctx, cb, strings.TrimPrefix(cb.Data, "lang:"))
	default:
		return o.msg.AnswerCallback(cb.ID, "")
	}
}

func (o *Orchestrator) activeSession(ctx context.Context, cb Callback, want session.State) (*session.Session, bool) {
	sess, err := o.sessions.Get(ctx, cb.ChatID)
	if err != nil || sess.State != want {
		if err != nil && !errors.Is(err, session.ErrNotFound) {
			logx.FromCtx(ctx).Error().Err(err).Msg("session load failed")
		}
		_ = o.msg.AnswerCallback(cb.ID, o.t(cb.Lang, i18n.KeySessionExpired, nil))
		return nil, false
	}
	return sess, true
}

// handleFormat is AwaitingFormat → AwaitingQuality.
func (o *Orchestrator) handleFormat(ctx context.Context, cb Callback, format string) error {
	if format != "video" && format != "audio" {
		return o.msg.AnswerCallback(cb.ID, "")
	}
	sess, ok := o.activeSession(ctx, cb, session.StateAwaitingFormat)
	if !ok {
		return nil
	}

	sess.Format = format
	sess.State = session.StateAwaitingQuality
	if err := o.sessions.Put(ctx, cb.ChatID, sess); err != nil {
		return err
	}

	if err := o.msg.EditButtons(cb.ChatID, cb.MsgID, o.t(cb.Lang, i18n.KeySelectQuality, nil), o.qualityButtons(format)); err != nil {
		return err
	}
	return o.msg.AnswerCallback(cb.ID, "")
}

// handleQuality is AwaitingQuality → Acquiring: the status message starts at
// 0% and the acquisition task goes to the background queue so the
// conversational surface never blocks on the fetch.
func (o *Orchestrator) handleQuality(ctx context.Context, cb Callback, quality string) error {
	sess, ok := o.activeSession(ctx, cb, session.StateAwaitingQuality)
	if !ok {
		return nil
	}
	if !o.validQuality(sess.Format, quality) {
		return o.msg.AnswerCallback(cb.ID, "")
	}

	sess.Quality = quality
	sess.State = session.StateAcquiring
	sess.StatusMsgID = cb.MsgID
	if err := o.sessions.Put(ctx, cb.ChatID, sess); err != nil {
		return err
	}

	if err := o.msg.EditText(cb.ChatID, cb.MsgID, o.t(cb.Lang, i18n.KeyDownloading, map[string]string{"progress": "0"})); err != nil {
		logx.FromCtx(ctx).Warn().Err(err).Msg("status edit failed")
	}

	p := jobs.AcquirePayload{
		JobID:       sess.JobID,
		ChatID:      cb.ChatID,
		UserID:      cb.UserID,
		URL:         sess.URL,
		Format:      sess.Format,
		Quality:     quality,
		Lang:        cb.Lang,
		StatusMsgID: cb.MsgID,
	}
	if err := o.enq.Enqueue(ctx, jobs.TaskAcquire, p); err != nil {
		logx.FromCtx(ctx).Error().Err(err).Msg("enqueue acquire failed")
		return o.failTerminal(ctx, cb.ChatID, cb.MsgID, cb.UserID, sess,
			o.t(cb.Lang, i18n.KeyFailed, map[string]string{"error": "queue error"}), "queue error", "")
	}
	return o.msg.AnswerCallback(cb.ID, "")
}

// handleDelivery is AwaitingDeliveryChoice → Delivering, or straight to
// Terminal(Failed) when the cloud route is picked without a credential.
func (o *Orchestrator) handleDelivery(ctx context.Context, cb Callback, route string) error {
	if route != "direct" && route != "cloud" {
		return o.msg.AnswerCallback(cb.ID, "")
	}
	sess, ok := o.activeSession(ctx, cb, session.StateAwaitingDelivery)
	if !ok {
		return nil
	}

	if route == "cloud" {
		has, err := o.router.HasCredential(ctx, cb.UserID)
		if err != nil {
			return err
		}
		if !has {
			// Fail fast: no upload attempted, no extra quota consumed.
			return o.failTerminal(ctx, cb.ChatID, cb.MsgID, cb.UserID, sess,
				o.t(cb.Lang, i18n.KeyCloudNotLinked, nil), "cloud credential missing", sess.FilePath)
		}
	}

	sess.State = session.StateDelivering
	if err := o.sessions.Put(ctx, cb.ChatID, sess); err != nil {
		return err
	}

	p := jobs.DeliverPayload{
		JobID:       sess.JobID,
		ChatID:      cb.ChatID,
		UserID:      cb.UserID,
		Route:       route,
		FilePath:    sess.FilePath,
		FileSize:    sess.FileSize,
		Format:      sess.Format,
		Lang:        cb.Lang,
		StatusMsgID: sess.StatusMsgID,
	}
	if err := o.enq.Enqueue(ctx, jobs.TaskDeliver, p); err != nil {
		logx.FromCtx(ctx).Error().Err(err).Msg("enqueue deliver failed")
		return o.failTerminal(ctx, cb.ChatID, sess.StatusMsgID, cb.UserID, sess,
			o.t(cb.Lang, i18n.KeyFailed, map[string]string{"error": "queue error"}), "queue error", sess.FilePath)
	}
	if err := o.msg.EditText(cb.ChatID, sess.StatusMsgID, o.t(cb.Lang, i18n.KeyUploading, map[string]string{"progress": "0"})); err != nil {
		logx.FromCtx(ctx).Warn().Err(err).Msg("status edit failed")
	}
	return o.msg.AnswerCallback(cb.ID, "")
}

func (o *Orchestrator) handleLanguage(ctx context.Context, cb Callback, lang string) error {
	supported := false
	for _, l := range i18n.Langs() {
		if l == lang {
			supported = true
			break
		}
	}
	if !supported {
		return o.msg.AnswerCallback(cb.ID, "")
	}
	if err := o.users.SetLanguage(ctx, cb.UserID, lang); err != nil {
		return err
	}
	if err := o.msg.EditText(cb.ChatID, cb.MsgID, o.t(lang, i18n.KeyLanguageUpdated, nil)); err != nil {
		return err
	}
	return o.msg.AnswerCallback(cb.ID, "")
}

func (o *Orchestrator) validQuality(format, quality string) bool {
	if format == "audio" {
		return quality == "best"
	}
	switch quality {
	case "best":
		return true
	case "1080p", "720p", "480p":
		h := 0
		switch quality {
		case "1080p":
			h = 1080
		case "720p":
			h = 720
		case "480p":
			h = 480
		}
		return h <= o.cfg.MaxHeight
	default:
		return false
	}
}

// failTerminal reports the failure with exactly one user-visible message,
// records the job, removes the acquired file if one exists, and clears the
// session. Cleanup is unconditional on this path.
func (o *Orchestrator) failTerminal(ctx context.Context, chatID int64, msgID int, userID int64, sess *session.Session, userText, reason, filePath string) error {
	defer func() {
		sweeper.RemoveFile(ctx, filePath)
		if err := o.sessions.Clear(ctx, chatID); err != nil {
			logx.FromCtx(ctx).Warn().Err(err).Msg("session clear failed")
		}
	}()

	o.recordTerminal(ctx, userID, sess, "failed", 0, reason, "")

	if msgID != 0 {
		if err := o.msg.EditText(chatID, msgID, userText); err == nil {
			return nil
		}
	}
	_, err := o.msg.SendText(chatID, userText)
	return err
}
