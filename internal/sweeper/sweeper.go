// Package sweeper reclaims transient storage. It is the safety net behind
// per-job cleanup: any file older than the age threshold is deleted no matter
// which path its job took.
package sweeper

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/you/tg-mediafetch/internal/logx"
)

type Sweeper struct {
	dir      string
	maxAge   time.Duration
	interval time.Duration
}

func New(dir string, maxAge, interval time.Duration) *Sweeper {
	return &Sweeper{dir: dir, maxAge: maxAge, interval: interval}
}

// Run sweeps on a fixed interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep deletes every regular file under the transient dir whose last
// modification is older than the age threshold. Errors are logged, never
// escalated; deleting an already-absent file is not an error.
func (s *Sweeper) Sweep(ctx context.Context) (removed int) {
	log := logx.FromCtx(ctx)
	cutoff := time.Now().Add(-s.maxAge)

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("dir", s.dir).Msg("sweep: read dir failed")
		}
		return 0
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", path).Msg("sweep: remove failed")
			continue
		}
		removed++
		log.Info().Str("path", path).Msg("swept stale file")
	}
	return removed
}

// RemoveFile deletes one acquired file. Shared by the orchestrator's per-job
// cleanup so both paths treat a missing file as a no-op.
func RemoveFile(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logx.FromCtx(ctx).Warn().Err(err).Str("path", path).Msg("cleanup: remove failed")
	}
}
