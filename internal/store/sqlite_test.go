package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestStore(t *testing.T) Repository {
	t.Helper()
	repo, err := NewSQLite(filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestUpsertUserCreates(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	u, err := repo.UpsertUser(ctx, 42, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(42), u.TelegramID)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "en", u.Language)
	assert.Zero(t, u.TotalDownloads)
	assert.False(t, u.FirstSeen.IsZero())
}

func TestUpsertUserUpdates(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	first, err := repo.UpsertUser(ctx, 42, "alice")
	require.NoError(t, err)

	u, err := repo.UpsertUser(ctx, 42, "alice_renamed")
	require.NoError(t, err)
	assert.Equal(t, "alice_renamed", u.Username)
	assert.Equal(t, first.FirstSeen, u.FirstSeen, "first_seen must not move on later contacts")

	// An empty username on a later contact keeps the stored one.
	u, err = repo.UpsertUser(ctx, 42, "")
	require.NoError(t, err)
	assert.Equal(t, "alice_renamed", u.Username)
}

func TestSetLanguage(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	_, err := repo.UpsertUser(ctx, 42, "alice")
	require.NoError(t, err)
	require.NoError(t, repo.SetLanguage(ctx, 42, "bn"))

	u, err := repo.UpsertUser(ctx, 42, "alice")
	require.NoError(t, err)
	assert.Equal(t, "bn", u.Language)
}

func TestIncrementDownloads(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	_, err := repo.UpsertUser(ctx, 42, "alice")
	require.NoError(t, err)
	require.NoError(t, repo.IncrementDownloads(ctx, 42))
	require.NoError(t, repo.IncrementDownloads(ctx, 42))

	u, err := repo.UpsertUser(ctx, 42, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(2), u.TotalDownloads)
}

func TestCredentialRoundtrip(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	_, err := repo.UpsertUser(ctx, 42, "alice")
	require.NoError(t, err)

	// No credential on record yet.
	cred, err := repo.Credential(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, cred)

	in := &Credential{
		Version: 1,
		Token: oauth2.Token{
			AccessToken:  "at",
			RefreshToken: "rt",
			Expiry:       time.Now().Add(time.Hour).UTC().Truncate(time.Second),
		},
	}
	require.NoError(t, repo.SetCredential(ctx, 42, in))

	out, err := repo.Credential(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, in.Version, out.Version)
	assert.Equal(t, in.AccessToken, out.AccessToken)
	assert.Equal(t, in.RefreshToken, out.RefreshToken)
	assert.True(t, in.Expiry.Equal(out.Expiry))
}

func TestCredentialUnknownUser(t *testing.T) {
	repo := newTestStore(t)
	cred, err := repo.Credential(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, cred)
}

func TestRecordJobAndStats(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	_, err := repo.UpsertUser(ctx, 42, "alice")
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, repo.RecordJob(ctx, &JobRecord{
		UserID: 42, URL: "https://youtu.be/dQw4w9WgXcQ", Format: "video", Quality: "720p",
		Status: "completed", CreatedAt: now, CompletedAt: now, FileSize: 1 << 20,
	}))
	require.NoError(t, repo.RecordJob(ctx, &JobRecord{
		UserID: 42, URL: "https://youtu.be/xxxxxxxxxxx", Format: "audio", Quality: "best",
		Status: "failed", CreatedAt: now, CompletedAt: now, ErrorText: "network failure",
	}))

	st, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.Users)
	assert.Equal(t, int64(2), st.Jobs)
	assert.Equal(t, int64(1), st.Completed)
	assert.Equal(t, int64(1), st.Failed)
}

func TestStatsEmpty(t *testing.T) {
	repo := newTestStore(t)
	st, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &Stats{}, st)
}
