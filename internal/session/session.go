// Package session holds the in-flight conversational state of one job, keyed
// by chat, in an external TTL store so a restart loses the job cleanly instead
// of resuming into undefined state.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// State is the orchestration state of the active job session.
type State string

const (
	StateAwaitingFormat   State = "awaiting_format"
	StateAwaitingQuality  State = "awaiting_quality"
	StateAcquiring        State = "acquiring"
	StateAwaitingDelivery State = "awaiting_delivery"
	StateDelivering       State = "delivering"
)

// Session is the mutable per-conversation record, reset between requests.
// JobID changes whenever a new URL supersedes the previous session; async
// completions compare it before touching the conversation.
type Session struct {
	JobID       string `json:"job_id"`
	State       State  `json:"state"`
	URL         string `json:"url"`
	Format      string `json:"format,omitempty"`
	Quality     string `json:"quality,omitempty"`
	FilePath    string `json:"file_path,omitempty"`
	FileSize    int64  `json:"file_size,omitempty"`
	StatusMsgID int    `json:"status_msg_id,omitempty"`
	CreatedAt   int64  `json:"created_at"`
}

// ErrNotFound is returned when no session is active for the chat.
var ErrNotFound = errors.New("session: not found")

// KV is the slice of the key/value store the session layer needs.
type KV interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error) // "" + ErrNotFound when absent
	Del(ctx context.Context, key string) error

	// Update runs fn against the current value of key under optimistic
	// concurrency: when another writer lands first, fn is re-evaluated
	// against the fresh value. Returning write=false leaves the key alone;
	// an empty next value deletes it.
	Update(ctx context.Context, key string, ttl time.Duration, fn func(current string, exists bool) (next string, write bool, err error)) error
}

const ttl = 24 * time.Hour

// Store reads and writes sessions. One entry per chat; writing replaces any
// previous session unconditionally.
type Store struct {
	kv KV
}

func NewStore(kv KV) *Store { return &Store{kv: kv} }

func key(chatID int64) string { return fmt.Sprintf("session:%d", chatID) }

func (s *Store) Put(ctx context.Context, chatID int64, sess *Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, key(chatID), string(b), ttl)
}

func (s *Store) Get(ctx context.Context, chatID int64) (*Session, error) {
	raw, err := s.kv.Get(ctx, key(chatID))
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("session: decode: %w", err)
	}
	return &sess, nil
}

// Clear removes the chat's session. Clearing an absent session is a no-op.
func (s *Store) Clear(ctx context.Context, chatID int64) error {
	return s.kv.Del(ctx, key(chatID))
}

// Swap atomically advances the session when it still belongs to jobID and
// sits in the want state. A writer whose session was superseded in the
// meantime loses: the swap reports false and the stored session is untouched.
func (s *Store) Swap(ctx context.Context, chatID int64, jobID string, want State, mutate func(*Session)) (bool, error) {
	swapped := false
	err := s.kv.Update(ctx, key(chatID), ttl, func(cur string, exists bool) (string, bool, error) {
		swapped = false
		if !exists {
			return "", false, nil
		}
		var sess Session
		if err := json.Unmarshal([]byte(cur), &sess); err != nil {
			return "", false, fmt.Errorf("session: decode: %w", err)
		}
		if sess.JobID != jobID || sess.State != want {
			return "", false, nil
		}
		mutate(&sess)
		b, err := json.Marshal(&sess)
		if err != nil {
			return "", false, err
		}
		swapped = true
		return string(b), true, nil
	})
	if err != nil {
		return false, err
	}
	return swapped, nil
}

// ClearIfJob removes the session only while it still belongs to jobID, so a
// finishing job never deletes the session of the job that superseded it.
func (s *Store) ClearIfJob(ctx context.Context, chatID int64, jobID string) (bool, error) {
	cleared := false
	err := s.kv.Update(ctx, key(chatID), ttl, func(cur string, exists bool) (string, bool, error) {
		cleared = false
		if !exists {
			return "", false, nil
		}
		var sess Session
		if err := json.Unmarshal([]byte(cur), &sess); err != nil {
			return "", false, fmt.Errorf("session: decode: %w", err)
		}
		if sess.JobID != jobID {
			return "", false, nil
		}
		cleared = true
		return "", true, nil
	})
	if err != nil {
		return false, err
	}
	return cleared, nil
}

// RedisKV implements KV on go-redis.
type RedisKV struct {
	rdb *redis.Client
}

func NewRedisKV(rdb *redis.Client) *RedisKV { return &RedisKV{rdb: rdb} }

func (r *RedisKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.rdb.Set(ctx, key, value, ttl).Err()
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	v, err := r.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	return v, err
}

func (r *RedisKV) Del(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, key).Err()
}

// updateRetries bounds re-runs after a WATCH conflict; each retry re-reads the
// fresh value, so a superseded writer converges on write=false quickly.
const updateRetries = 3

func (r *RedisKV) Update(ctx context.Context, key string, ttl time.Duration, fn func(string, bool) (string, bool, error)) error {
	var err error
	for i := 0; i < updateRetries; i++ {
		err = r.rdb.Watch(ctx, func(tx *redis.Tx) error {
			cur, gerr := tx.Get(ctx, key).Result()
			exists := gerr == nil
			if gerr != nil && gerr != redis.Nil {
				return gerr
			}
			next, write, ferr := fn(cur, exists)
			if ferr != nil || !write {
				return ferr
			}
			_, perr := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				if next == "" {
					pipe.Del(ctx, key)
				} else {
					pipe.Set(ctx, key, next, ttl)
				}
				return nil
			})
			return perr
		}, key)
		if err != redis.TxFailedErr {
			return err
		}
	}
	return err
}
