package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/you/tg-mediafetch/internal/deliver"
	"github.com/you/tg-mediafetch/internal/fetch"
	"github.com/you/tg-mediafetch/internal/i18n"
	"github.com/you/tg-mediafetch/internal/jobs"
	"github.com/you/tg-mediafetch/internal/logx"
	"github.com/you/tg-mediafetch/internal/progress"
	"github.com/you/tg-mediafetch/internal/session"
	"github.com/you/tg-mediafetch/internal/sweeper"
)

// HandleDeliver runs the Delivering leg: execute the chosen route, then
// account and clean up. The acquired file does not survive this handler on
// any path.
func (o *Orchestrator) HandleDeliver(ctx context.Context, p jobs.DeliverPayload) (err error) {
	ctx = logx.WithJob(logx.WithUser(ctx, p.UserID), p.JobID)
	log := logx.FromCtx(ctx)

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("deliver panicked")
			sweeper.RemoveFile(ctx, p.FilePath)
			err = o.terminalFromWorker(ctx, p.ChatID, p.StatusMsgID, p.UserID, p.JobID, p.Lang, "internal error")
		}
	}()

	sess, serr := o.sessions.Get(ctx, p.ChatID)
	if serr != nil || sess.JobID != p.JobID || sess.State != session.StateDelivering {
		if serr != nil && !errors.Is(serr, session.ErrNotFound) {
			log.Error().Err(serr).Msg("session load failed before delivery")
		}
		log.Info().Msg("session superseded, dropping delivery")
		sweeper.RemoveFile(ctx, p.FilePath)
		return nil
	}

	file := &fetch.File{Path: p.FilePath, Size: p.FileSize}
	caption := o.t(p.Lang, i18n.KeyCompleted, nil)

	dlvCtx, cancel := context.WithTimeout(ctx, o.cfg.DeliverTimeout)
	defer cancel()

	switch p.Route {
	case "cloud":
		reporter := progress.New(o.EditInterval, o.EditDelta, func(pct int) {
			text := o.t(p.Lang, i18n.KeyUploading, map[string]string{"progress": strconv.Itoa(pct)})
			if e := o.msg.EditText(p.ChatID, p.StatusMsgID, text); e != nil {
				log.Debug().Err(e).Msg("progress edit failed")
			}
		})

		key := fmt.Sprintf("%d/%s%s", p.UserID, p.JobID, filepath.Ext(p.FilePath))
		link, derr := o.router.Cloud(dlvCtx, p.UserID, file, key, reporter.Report)
		if derr != nil {
			log.Error().Err(derr).Msg("cloud delivery failed")
			sweeper.RemoveFile(ctx, p.FilePath)
			reason := "upload failed"
			if errors.Is(derr, deliver.ErrCredentialMissing) {
				reason = "cloud credential missing"
			}
			return o.terminalFromWorker(ctx, p.ChatID, p.StatusMsgID, p.UserID, p.JobID, p.Lang, reason)
		}
		reporter.Finish()

		text := o.t(p.Lang, i18n.KeyCloudLink, map[string]string{"url": link})
		if e := o.msg.EditText(p.ChatID, p.StatusMsgID, text); e != nil {
			log.Warn().Err(e).Msg("final status edit failed")
		}
		return o.succeedTerminal(ctx, p, sess, link)

	default: // direct
		if derr := o.router.Direct(dlvCtx, p.ChatID, file, p.Format, caption); derr != nil {
			log.Error().Err(derr).Msg("direct delivery failed")
			sweeper.RemoveFile(ctx, p.FilePath)
			return o.terminalFromWorker(ctx, p.ChatID, p.StatusMsgID, p.UserID, p.JobID, p.Lang, "delivery failed")
		}
		// The file message carries the caption; the progress line goes away so
		// the user's view converges to a single final message.
		o.msg.DeleteMessage(p.ChatID, p.StatusMsgID)
		return o.succeedTerminal(ctx, p, sess, "")
	}
}

// succeedTerminal is the Delivering → Terminal(Success) step: counter bumped
// exactly once, history row written, file removed, session cleared.
func (o *Orchestrator) succeedTerminal(ctx context.Context, p jobs.DeliverPayload, sess *session.Session, link string) error {
	log := logx.FromCtx(ctx)

	if err := o.users.IncrementDownloads(ctx, p.UserID); err != nil {
		log.Warn().Err(err).Msg("download counter update failed")
	}
	o.recordTerminal(ctx, p.UserID, sess, "completed", p.FileSize, "", link)

	sweeper.RemoveFile(ctx, p.FilePath)
	switch cleared, err := o.sessions.ClearIfJob(ctx, p.ChatID, p.JobID); {
	case err != nil:
		log.Warn().Err(err).Msg("session clear failed")
	case !cleared:
		log.Info().Msg("session superseded during delivery")
	}
	log.Info().Str("route", p.Route).Int64("size", p.FileSize).Msg("job completed")
	return nil
}
