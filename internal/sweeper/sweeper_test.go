package sweeper

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string, age time.Duration) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	if age > 0 {
		old := time.Now().Add(-age)
		require.NoError(t, os.Chtimes(path, old, old))
	}
}

func TestSweepRemovesOnlyStaleFiles(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "1_01OLD.mp4")
	fresh := filepath.Join(dir, "2_01NEW.mp3")
	touch(t, stale, time.Hour)
	touch(t, fresh, 0)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	s := New(dir, 10*time.Minute, time.Minute)
	removed := s.Sweep(context.Background())

	assert.Equal(t, 1, removed)
	assert.NoFileExists(t, stale)
	assert.FileExists(t, fresh)
	assert.DirExists(t, filepath.Join(dir, "sub"))
}

func TestSweepIdempotent(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "1_01OLD.mp4"), time.Hour)

	s := New(dir, 10*time.Minute, time.Minute)
	assert.Equal(t, 1, s.Sweep(context.Background()))
	assert.Equal(t, 0, s.Sweep(context.Background()))
}

func TestSweepMissingDir(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "gone"), 10*time.Minute, time.Minute)
	assert.Equal(t, 0, s.Sweep(context.Background()))
}

func TestRemoveFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "1_01JOB.mp4")
	touch(t, path, 0)

	RemoveFile(context.Background(), path)
	assert.NoFileExists(t, path)

	// Absent file and empty path are both no-ops.
	RemoveFile(context.Background(), path)
	RemoveFile(context.Background(), "")
}
