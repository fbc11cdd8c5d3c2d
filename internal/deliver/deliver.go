// Package deliver routes an acquired file to the user: directly through the
// chat transport or to the cloud-storage backend behind a shareable link.
package deliver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/you/tg-mediafetch/internal/chat"
	"github.com/you/tg-mediafetch/internal/fetch"
	"github.com/you/tg-mediafetch/internal/logx"
	"github.com/you/tg-mediafetch/internal/store"
)

var (
	// ErrCredentialMissing means the user has no cloud credential on record;
	// the upload is not attempted.
	ErrCredentialMissing = errors.New("deliver: no cloud credential on record")
	// ErrTransportRejected wraps transport-side refusals of a direct send.
	ErrTransportRejected = errors.New("deliver: transport rejected file")
	// ErrUploadFailed wraps cloud upload failures.
	ErrUploadFailed = errors.New("deliver: upload failed")
)

// Uploader is the cloud-storage capability: store a local file under key and
// return a shareable link.
type Uploader interface {
	Upload(ctx context.Context, localPath, key string, sink fetch.Sink) (string, error)
}

// Refresher exchanges an expired credential for a fresh one. Token mechanics
// live behind this interface.
type Refresher interface {
	Refresh(ctx context.Context, cred *store.Credential) (*store.Credential, error)
}

// CredentialSource is the slice of the user store the router needs.
type CredentialSource interface {
	Credential(ctx context.Context, telegramID int64) (*store.Credential, error)
	SetCredential(ctx context.Context, telegramID int64, cred *store.Credential) error
}

// Router executes the chosen delivery path.
type Router struct {
	msg       chat.Messenger
	uploader  Uploader
	creds     CredentialSource
	refresher Refresher
}

func NewRouter(msg chat.Messenger, uploader Uploader, creds CredentialSource, refresher Refresher) *Router {
	return &Router{msg: msg, uploader: uploader, creds: creds, refresher: refresher}
}

// Direct streams the file through the chat transport's native file path.
func (r *Router) Direct(ctx context.Context, chatID int64, file *fetch.File, format, caption string) error {
	var err error
	switch format {
	case "audio":
		err = r.msg.SendAudio(chatID, file.Path, caption)
	case "video":
		err = r.msg.SendVideo(chatID, file.Path, caption)
	default:
		err = r.msg.SendDocument(chatID, file.Path, caption)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransportRejected, err)
	}
	return nil
}

// Cloud uploads the file to the storage backend under the user's namespace
// and returns the shareable link. It fails fast when no credential is on
// record, and refreshes an expired one before uploading.
func (r *Router) Cloud(ctx context.Context, userID int64, file *fetch.File, key string, sink fetch.Sink) (string, error) {
	cred, err := r.creds.Credential(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("deliver: load credential: %w", err)
	}
	if cred == nil {
		return "", ErrCredentialMissing
	}

	if !cred.Expiry.IsZero() && cred.Expiry.Before(time.Now()) {
		if r.refresher == nil {
			return "", fmt.Errorf("%w: credential expired", ErrCredentialMissing)
		}
		fresh, err := r.refresher.Refresh(ctx, cred)
		if err != nil {
			return "", fmt.Errorf("deliver: refresh credential: %w", err)
		}
		if err := r.creds.SetCredential(ctx, userID, fresh); err != nil {
			logx.FromCtx(ctx).Warn().Err(err).Msg("storing refreshed credential failed")
		}
		cred = fresh
	}

	link, err := r.uploader.Upload(ctx, file.Path, key, sink)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return link, nil
}

// HasCredential reports whether userID can use the cloud route at all. Used
// to fail fast before any upload work.
func (r *Router) HasCredential(ctx context.Context, userID int64) (bool, error) {
	cred, err := r.creds.Credential(ctx, userID)
	if err != nil {
		return false, err
	}
	return cred != nil, nil
}
