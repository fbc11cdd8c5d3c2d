package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/hibiken/asynq"

	"github.com/you/tg-mediafetch/internal/fetch"
	"github.com/you/tg-mediafetch/internal/i18n"
	"github.com/you/tg-mediafetch/internal/jobs"
	"github.com/you/tg-mediafetch/internal/logx"
	"github.com/you/tg-mediafetch/internal/progress"
	"github.com/you/tg-mediafetch/internal/session"
	"github.com/you/tg-mediafetch/internal/store"
	"github.com/you/tg-mediafetch/internal/sweeper"
)

// HandleAcquire runs the Acquiring leg in the background: invoke the engine,
// relay throttled progress edits, then either advance to the delivery choice
// or terminate the job. Every failure path removes whatever was partially
// written under the job's namespace.
func (o *Orchestrator) HandleAcquire(ctx context.Context, p jobs.AcquirePayload) (err error) {
	ctx = logx.WithJob(logx.WithUser(ctx, p.UserID), p.JobID)
	log := logx.FromCtx(ctx)

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("acquire panicked")
			o.cleanupJobFiles(ctx, p.UserID, p.JobID)
			err = o.terminalFromWorker(ctx, p.ChatID, p.StatusMsgID, p.UserID, p.JobID, p.Lang, "internal error")
		}
	}()

	reporter := progress.New(o.EditInterval, o.EditDelta, func(pct int) {
		text := o.t(p.Lang, i18n.KeyDownloading, map[string]string{"progress": strconv.Itoa(pct)})
		if e := o.msg.EditText(p.ChatID, p.StatusMsgID, text); e != nil {
			log.Debug().Err(e).Msg("progress edit failed")
		}
	})

	acqCtx, cancel := context.WithTimeout(ctx, o.cfg.AcquireTimeout)
	defer cancel()

	log.Info().Str("url", p.URL).Str("format", p.Format).Str("quality", p.Quality).Msg("acquisition started")
	file, aerr := o.engine.Acquire(acqCtx, fetch.Request{
		URL:     p.URL,
		Format:  p.Format,
		Quality: p.Quality,
		Prefix:  filePrefix(p.UserID, p.JobID),
		Dir:     o.cfg.DataDir,
	}, reporter.Report)

	if aerr != nil {
		kind := fetch.KindOf(aerr)
		log.Error().Err(aerr).Str("kind", kind.String()).Msg("acquisition failed")
		o.cleanupJobFiles(ctx, p.UserID, p.JobID)
		return o.terminalFromWorker(ctx, p.ChatID, p.StatusMsgID, p.UserID, p.JobID, p.Lang, failureReason(kind))
	}

	reporter.Finish()

	// The conversation may have moved on while we were fetching. The swap is
	// guarded on the job id, so a stale writer loses: drop the result, keep
	// nothing on disk, say nothing.
	swapped, serr := o.sessions.Swap(ctx, p.ChatID, p.JobID, session.StateAcquiring, func(sess *session.Session) {
		sess.FilePath = file.Path
		sess.FileSize = file.Size
		sess.State = session.StateAwaitingDelivery
	})
	if serr != nil {
		sweeper.RemoveFile(ctx, file.Path)
		// Retrying would re-run the whole download just to drop it again.
		return fmt.Errorf("session update: %v: %w", serr, asynq.SkipRetry)
	}
	if !swapped {
		log.Info().Msg("session superseded, dropping acquired file")
		sweeper.RemoveFile(ctx, file.Path)
		return nil
	}

	log.Info().Int64("size", file.Size).Str("path", file.Path).Msg("acquisition completed")
	text := o.t(p.Lang, i18n.KeySelectDelivery, map[string]string{"size_mb": mb(file.Size)})
	if err := o.msg.EditButtons(p.ChatID, p.StatusMsgID, text, o.deliveryButtons(file.Size)); err != nil {
		log.Warn().Err(err).Msg("delivery menu edit failed")
	}
	return nil
}

// cleanupJobFiles removes every artifact under the job's namespace, partial
// downloads included.
func (o *Orchestrator) cleanupJobFiles(ctx context.Context, userID int64, jobID string) {
	matches, err := filepath.Glob(o.jobGlobPrefix(userID, jobID) + "*")
	if err != nil {
		return
	}
	for _, m := range matches {
		sweeper.RemoveFile(ctx, m)
	}
}

// terminalFromWorker ends a background job as Failed if the session still
// belongs to it; a superseded session just gets cleaned up silently.
func (o *Orchestrator) terminalFromWorker(ctx context.Context, chatID int64, msgID int, userID int64, jobID, lang, reason string) error {
	sess, err := o.sessions.Get(ctx, chatID)
	if err != nil || sess.JobID != jobID {
		return nil
	}

	cleared, cerr := o.sessions.ClearIfJob(ctx, chatID, jobID)
	if cerr != nil {
		logx.FromCtx(ctx).Warn().Err(cerr).Msg("session clear failed")
	}
	if !cleared {
		// Superseded between the read and the clear; the new job owns the
		// conversation now.
		return nil
	}

	o.recordTerminal(ctx, userID, sess, "failed", 0, reason, "")

	text := o.t(lang, i18n.KeyFailed, map[string]string{"error": reason})
	if msgID != 0 {
		if e := o.msg.EditText(chatID, msgID, text); e == nil {
			return nil
		}
	}
	if _, serr := o.msg.SendText(chatID, text); serr != nil {
		// The job already terminated; re-running it to resend a notice would
		// redo the download.
		return fmt.Errorf("failure notice: %v: %w", serr, asynq.SkipRetry)
	}
	return nil
}

// recordTerminal writes the job's write-once history row. Failure to record
// never changes the job outcome.
func (o *Orchestrator) recordTerminal(ctx context.Context, userID int64, sess *session.Session, status string, size int64, errText, link string) {
	rec := &store.JobRecord{
		UserID:      userID,
		URL:         sess.URL,
		Format:      sess.Format,
		Quality:     sess.Quality,
		Status:      status,
		CreatedAt:   time.Unix(sess.CreatedAt, 0),
		CompletedAt: time.Now(),
		FileSize:    size,
		ErrorText:   errText,
		ShareLink:   link,
	}
	if err := o.users.RecordJob(ctx, rec); err != nil {
		logx.FromCtx(ctx).Warn().Err(err).Msg("job history write failed")
	}
}

func failureReason(kind fetch.Kind) string {
	switch kind {
	case fetch.InvalidSource:
		return "unsupported or invalid source"
	case fetch.NetworkFailure:
		return "network failure"
	case fetch.NotFound:
		return "no output produced"
	default:
		return "processing error"
	}
}
