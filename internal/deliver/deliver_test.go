package deliver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/you/tg-mediafetch/internal/chat"
	"github.com/you/tg-mediafetch/internal/fetch"
	"github.com/you/tg-mediafetch/internal/store"
)

type fakeMessenger struct {
	audio, video, docs []string
	sendErr            error
}

func (f *fakeMessenger) SendText(int64, string) (int, error) { return 1, nil }
func (f *fakeMessenger) SendButtons(int64, string, [][]chat.Button) (int, error) {
	return 1, nil
}
func (f *fakeMessenger) EditText(int64, int, string) error                     { return nil }
func (f *fakeMessenger) EditButtons(int64, int, string, [][]chat.Button) error { return nil }
func (f *fakeMessenger) AnswerCallback(string, string) error                   { return nil }
func (f *fakeMessenger) DeleteMessage(int64, int)                              {}

func (f *fakeMessenger) SendAudio(_ int64, path, _ string) error {
	f.audio = append(f.audio, path)
	return f.sendErr
}

func (f *fakeMessenger) SendVideo(_ int64, path, _ string) error {
	f.video = append(f.video, path)
	return f.sendErr
}

func (f *fakeMessenger) SendDocument(_ int64, path, _ string) error {
	f.docs = append(f.docs, path)
	return f.sendErr
}

type fakeUploader struct {
	calls int
	key   string
	link  string
	err   error
}

func (f *fakeUploader) Upload(_ context.Context, _, key string, _ fetch.Sink) (string, error) {
	f.calls++
	f.key = key
	return f.link, f.err
}

type fakeCreds struct {
	creds map[int64]*store.Credential
	saved *store.Credential
}

func (f *fakeCreds) Credential(_ context.Context, id int64) (*store.Credential, error) {
	return f.creds[id], nil
}

func (f *fakeCreds) SetCredential(_ context.Context, id int64, c *store.Credential) error {
	f.creds[id] = c
	f.saved = c
	return nil
}

type fakeRefresher struct {
	fresh *store.Credential
	err   error
	calls int
}

func (f *fakeRefresher) Refresh(_ context.Context, _ *store.Credential) (*store.Credential, error) {
	f.calls++
	return f.fresh, f.err
}

func validCred() *store.Credential {
	return &store.Credential{
		Version: 1,
		Token:   oauth2.Token{AccessToken: "tok", Expiry: time.Now().Add(time.Hour)},
	}
}

func TestDirectRoutesByFormat(t *testing.T) {
	f := &fetch.File{Path: "/data/7_01JOB.mp3", Size: 100}
	ctx := context.Background()

	for _, c := range []struct {
		format string
		check  func(m *fakeMessenger) []string
	}{
		{"audio", func(m *fakeMessenger) []string { return m.audio }},
		{"video", func(m *fakeMessenger) []string { return m.video }},
		{"other", func(m *fakeMessenger) []string { return m.docs }},
	} {
		m := &fakeMessenger{}
		r := NewRouter(m, nil, &fakeCreds{creds: map[int64]*store.Credential{}}, nil)
		require.NoError(t, r.Direct(ctx, 5, f, c.format, "done"))
		assert.Equal(t, []string{f.Path}, c.check(m), "format %s", c.format)
	}
}

func TestDirectTransportRejection(t *testing.T) {
	m := &fakeMessenger{sendErr: errors.New("entity too large")}
	r := NewRouter(m, nil, &fakeCreds{creds: map[int64]*store.Credential{}}, nil)

	err := r.Direct(context.Background(), 5, &fetch.File{Path: "/data/x.mp4"}, "video", "")
	assert.ErrorIs(t, err, ErrTransportRejected)
}

func TestCloudNoCredentialFailsFast(t *testing.T) {
	up := &fakeUploader{link: "https://share/x"}
	r := NewRouter(&fakeMessenger{}, up, &fakeCreds{creds: map[int64]*store.Credential{}}, nil)

	_, err := r.Cloud(context.Background(), 7, &fetch.File{Path: "/data/x.mp4"}, "7/x.mp4", nil)
	assert.ErrorIs(t, err, ErrCredentialMissing)
	assert.Zero(t, up.calls, "upload must not be attempted without a credential")
}

func TestCloudUploads(t *testing.T) {
	up := &fakeUploader{link: "https://share/7/x.mp4"}
	creds := &fakeCreds{creds: map[int64]*store.Credential{7: validCred()}}
	r := NewRouter(&fakeMessenger{}, up, creds, nil)

	link, err := r.Cloud(context.Background(), 7, &fetch.File{Path: "/data/x.mp4"}, "7/x.mp4", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://share/7/x.mp4", link)
	assert.Equal(t, "7/x.mp4", up.key)
}

func TestCloudRefreshesExpiredCredential(t *testing.T) {
	expired := validCred()
	expired.Expiry = time.Now().Add(-time.Hour)
	fresh := validCred()
	ref := &fakeRefresher{fresh: fresh}
	creds := &fakeCreds{creds: map[int64]*store.Credential{7: expired}}
	up := &fakeUploader{link: "https://share/x"}
	r := NewRouter(&fakeMessenger{}, up, creds, ref)

	_, err := r.Cloud(context.Background(), 7, &fetch.File{Path: "/data/x.mp4"}, "7/x.mp4", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, ref.calls)
	assert.Same(t, fresh, creds.saved, "refreshed credential must be persisted")
	assert.Equal(t, 1, up.calls)
}

func TestCloudExpiredWithoutRefresher(t *testing.T) {
	expired := validCred()
	expired.Expiry = time.Now().Add(-time.Hour)
	up := &fakeUploader{}
	r := NewRouter(&fakeMessenger{}, up, &fakeCreds{creds: map[int64]*store.Credential{7: expired}}, nil)

	_, err := r.Cloud(context.Background(), 7, &fetch.File{Path: "/data/x.mp4"}, "7/x.mp4", nil)
	assert.ErrorIs(t, err, ErrCredentialMissing)
	assert.Zero(t, up.calls)
}

func TestCloudUploadFailure(t *testing.T) {
	up := &fakeUploader{err: errors.New("bucket gone")}
	r := NewRouter(&fakeMessenger{}, up, &fakeCreds{creds: map[int64]*store.Credential{7: validCred()}}, nil)

	_, err := r.Cloud(context.Background(), 7, &fetch.File{Path: "/data/x.mp4"}, "7/x.mp4", nil)
	assert.ErrorIs(t, err, ErrUploadFailed)
}

func TestHasCredential(t *testing.T) {
	r := NewRouter(&fakeMessenger{}, nil, &fakeCreds{creds: map[int64]*store.Credential{7: validCred()}}, nil)

	ok, err := r.HasCredential(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.HasCredential(context.Background(), 8)
	require.NoError(t, err)
	assert.False(t, ok)
}
