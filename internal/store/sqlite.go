package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the SQLite database at dbPath.
func NewSQLite(dbPath string) (Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// WAL mode for better concurrency between bot and worker.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS users (
		telegram_id INTEGER PRIMARY KEY,
		username TEXT NOT NULL DEFAULT '',
		language TEXT NOT NULL DEFAULT 'en',
		total_downloads INTEGER NOT NULL DEFAULT 0,
		credential_json TEXT,
		first_seen INTEGER NOT NULL,
		last_active INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS jobs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		url TEXT NOT NULL,
		format TEXT NOT NULL,
		quality TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		completed_at INTEGER,
		file_size INTEGER,
		error_text TEXT,
		share_link TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_jobs_user ON jobs(user_id, created_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpsertUser(ctx context.Context, telegramID int64, username string) (*User, error) {
	now := time.Now().Unix()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (telegram_id, username, first_seen, last_active)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(telegram_id) DO UPDATE SET
			last_active = excluded.last_active,
			username = CASE WHEN excluded.username != '' THEN excluded.username ELSE users.username END`,
		telegramID, username, now, now)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT telegram_id, username, language, total_downloads, first_seen, last_active
		FROM users WHERE telegram_id = ?`, telegramID)

	var u User
	var firstSeen, lastActive int64
	if err := row.Scan(&u.TelegramID, &u.Username, &u.Language, &u.TotalDownloads, &firstSeen, &lastActive); err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}
	u.FirstSeen = time.Unix(firstSeen, 0)
	u.LastActive = time.Unix(lastActive, 0)
	return &u, nil
}

func (s *SQLiteStore) SetLanguage(ctx context.Context, telegramID int64, lang string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET language = ? WHERE telegram_id = ?`, lang, telegramID)
	if err != nil {
		return fmt.Errorf("set language: %w", err)
	}
	return nil
}

func (s *SQLiteStore) IncrementDownloads(ctx context.Context, telegramID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET total_downloads = total_downloads + 1 WHERE telegram_id = ?`, telegramID)
	if err != nil {
		return fmt.Errorf("increment downloads: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Credential(ctx context.Context, telegramID int64) (*Credential, error) {
	var raw sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT credential_json FROM users WHERE telegram_id = ?`, telegramID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var cred Credential
	if err := json.Unmarshal([]byte(raw.String), &cred); err != nil {
		return nil, fmt.Errorf("decode credential: %w", err)
	}
	return &cred, nil
}

func (s *SQLiteStore) SetCredential(ctx context.Context, telegramID int64, cred *Credential) error {
	b, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE users SET credential_json = ? WHERE telegram_id = ?`, string(b), telegramID)
	if err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RecordJob(ctx context.Context, rec *JobRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (user_id, url, format, quality, status, created_at, completed_at, file_size, error_text, share_link)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.UserID, rec.URL, rec.Format, rec.Quality, rec.Status,
		rec.CreatedAt.Unix(), rec.CompletedAt.Unix(), rec.FileSize, rec.ErrorText, rec.ShareLink)
	if err != nil {
		return fmt.Errorf("record job: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	row := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM jobs),
			(SELECT COUNT(*) FROM jobs WHERE status = 'completed'),
			(SELECT COUNT(*) FROM jobs WHERE status = 'failed')`)
	if err := row.Scan(&st.Users, &st.Jobs, &st.Completed, &st.Failed); err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	return &st, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
