// Package store persists users and job history.
package store

import (
	"context"
	"time"

	"golang.org/x/oauth2"
)

// User is one chat-transport identity, created on first contact and updated
// on every contact.
type User struct {
	TelegramID     int64
	Username       string
	Language       string
	TotalDownloads int64
	FirstSeen      time.Time
	LastActive     time.Time
}

// Credential is the user's cloud-storage credential, stored as a structured,
// versioned record rather than an opaque blob. Refresh replaces the whole
// record.
type Credential struct {
	Version int `json:"version"`
	oauth2.Token
}

// JobRecord is the write-once history row for one terminal job. It feeds the
// status/admin surface and is never read back into orchestration.
type JobRecord struct {
	UserID      int64
	URL         string
	Format      string
	Quality     string
	Status      string // "completed" or "failed"
	CreatedAt   time.Time
	CompletedAt time.Time
	FileSize    int64
	ErrorText   string
	ShareLink   string
}

// Stats is the admin reporting rollup.
type Stats struct {
	Users     int64
	Jobs      int64
	Completed int64
	Failed    int64
}

// Repository defines the persistence operations the orchestrator needs.
type Repository interface {
	// UpsertUser creates the user on first contact or bumps last_active and
	// username on subsequent ones, returning the current record.
	UpsertUser(ctx context.Context, telegramID int64, username string) (*User, error)

	// SetLanguage updates the user's preferred language.
	SetLanguage(ctx context.Context, telegramID int64, lang string) error

	// IncrementDownloads bumps the cumulative successful-download counter.
	IncrementDownloads(ctx context.Context, telegramID int64) error

	// Credential returns the stored cloud credential, or nil when none is
	// on record.
	Credential(ctx context.Context, telegramID int64) (*Credential, error)

	// SetCredential stores or replaces the cloud credential.
	SetCredential(ctx context.Context, telegramID int64, cred *Credential) error

	// RecordJob appends one terminal job history row.
	RecordJob(ctx context.Context, rec *JobRecord) error

	// Stats returns the admin rollup.
	Stats(ctx context.Context) (*Stats, error)

	Close() error
}
