// Package orchestrator drives one job per conversation from URL intake to a
// terminal state: format and quality selection, acquisition with throttled
// progress edits, size-aware delivery routing, accounting and cleanup.
package orchestrator

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/hibiken/asynq"
	"github.com/oklog/ulid/v2"

	"github.com/you/tg-mediafetch/internal/chat"
	"github.com/you/tg-mediafetch/internal/config"
	"github.com/you/tg-mediafetch/internal/deliver"
	"github.com/you/tg-mediafetch/internal/fetch"
	"github.com/you/tg-mediafetch/internal/i18n"
	"github.com/you/tg-mediafetch/internal/quota"
	"github.com/you/tg-mediafetch/internal/session"
	"github.com/you/tg-mediafetch/internal/store"
)

// Enqueuer hands a task to the background queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, task string, payload any) error
}

// AsynqEnqueuer implements Enqueuer on the asynq client.
type AsynqEnqueuer struct {
	Client *asynq.Client
}

func (a *AsynqEnqueuer) Enqueue(ctx context.Context, task string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = a.Client.EnqueueContext(ctx, asynq.NewTask(task, b), asynq.MaxRetry(2))
	return err
}

// Orchestrator ties the rate limiter, session store, acquisition engine and
// delivery router together. One instance serves all conversations; each
// conversation's session entry is exclusively its own.
type Orchestrator struct {
	cfg      config.Config
	msg      chat.Messenger
	sessions *session.Store
	limiter  *quota.Limiter
	users    store.Repository
	engine   fetch.Engine
	router   *deliver.Router
	enq      Enqueuer

	// Progress throttling: edits go out when either fires.
	EditInterval time.Duration
	EditDelta    float64
}

func New(cfg config.Config, msg chat.Messenger, sessions *session.Store, limiter *quota.Limiter,
	users store.Repository, engine fetch.Engine, router *deliver.Router, enq Enqueuer) *Orchestrator {
	return &Orchestrator{
		cfg:          cfg,
		msg:          msg,
		sessions:     sessions,
		limiter:      limiter,
		users:        users,
		engine:       engine,
		router:       router,
		enq:          enq,
		EditInterval: 2 * time.Second,
		EditDelta:    10,
	}
}

func newJobID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

// filePrefix namespaces one job's output inside the shared transient dir.
func filePrefix(userID int64, jobID string) string {
	return fmt.Sprintf("%d_%s", userID, jobID)
}

func (o *Orchestrator) jobGlobPrefix(userID int64, jobID string) string {
	return filepath.Join(o.cfg.DataDir, filePrefix(userID, jobID))
}

func mb(size int64) string {
	return fmt.Sprintf("%.1f", float64(size)/(1024*1024))
}

func formatButtons() [][]chat.Button {
	return [][]chat.Button{{
		{Label: "🎬 Video", Data: "fmt:video"},
		{Label: "🎵 Audio", Data: "fmt:audio"},
	}}
}

// qualityButtons builds the ladder for the chosen format. Audio has a single
// best tier; video offers the fixed ladder up to the configured maximum.
func (o *Orchestrator) qualityButtons(format string) [][]chat.Button {
	if format == "audio" {
		return [][]chat.Button{{{Label: "🎵 Best Quality", Data: "q:best"}}}
	}
	rows := [][]chat.Button{{{Label: "🔥 Best", Data: "q:best"}}}
	for _, h := range []int{1080, 720, 480} {
		if h > o.cfg.MaxHeight {
			continue
		}
		label := fmt.Sprintf("%dp", h)
		rows = append(rows, []chat.Button{{Label: label, Data: "q:" + label}})
	}
	return rows
}

// deliveryButtons offers the two routes. The direct option disappears only
// when the file exceeds the transport's hard ceiling.
func (o *Orchestrator) deliveryButtons(size int64) [][]chat.Button {
	var rows [][]chat.Button
	if size <= o.cfg.DirectMaxByte {
		rows = append(rows, []chat.Button{{Label: "📨 Telegram", Data: "dl:direct"}})
	}
	rows = append(rows, []chat.Button{{Label: "☁️ Cloud", Data: "dl:cloud"}})
	return rows
}

func languageButtons() [][]chat.Button {
	return [][]chat.Button{{
		{Label: "🇬🇧 English", Data: "lang:en"},
		{Label: "🇧🇩 বাংলা", Data: "lang:bn"},
	}}
}

func (o *Orchestrator) t(lang string, key i18n.Key, params map[string]string) string {
	return i18n.T(lang, key, params)
}
