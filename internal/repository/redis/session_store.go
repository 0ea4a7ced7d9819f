package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/Krishna2005-yadav/Crop-System/internal/core/domain"
	"github.com/Krishna2005-yadav/Crop-System/internal/core/port"
	"github.com/Krishna2005-yadav/Crop-System/internal/repository"
)

const defaultSessionPrefix = "crop:session"

// SessionStore keeps login sessions as JSON values with a TTL matching their
// expiry, plus a per-user index set used to revoke every session of a user.
type SessionStore struct {
	client *red.Client
	prefix string
	now    func() time.Time
}

// NewSessionStore constructs a Redis-backed session store.
func NewSessionStore(client *red.Client, keyPrefix string) *SessionStore {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultSessionPrefix
	}
	return &SessionStore{client: client, prefix: prefix, now: time.Now}
}

// WithClock overrides the time source used to compute TTLs.
func (s *SessionStore) WithClock(now func() time.Time) *SessionStore {
	if now != nil {
		s.now = now
	}
	return s
}

// Save stores session until its expiry.
func (s *SessionStore) Save(ctx context.Context, session domain.Session) error {
	key := s.key(session.ID)
	if key == "" {
		return fmt.Errorf("session id is required")
	}
	ttl := session.TTL(s.now())
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	userKey := s.userKey(session.UserID)
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, key, payload, ttl)
	pipe.SAdd(ctx, userKey, session.ID)
	pipe.Expire(ctx, userKey, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis save session: %w", err)
	}
	return nil
}

// Get loads a live session or returns repository.ErrNotFound.
func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	key := s.key(id)
	if key == "" {
		return nil, repository.ErrNotFound
	}

	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if !session.IsActive(s.now()) {
		return nil, repository.ErrNotFound
	}
	return &session, nil
}

// Delete removes one session. Missing sessions are not an error.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	key := s.key(id)
	if key == "" {
		return nil
	}

	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil && !errors.Is(err, red.Nil) {
		return fmt.Errorf("redis get session: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(raw) > 0 {
		var session domain.Session
		if json.Unmarshal(raw, &session) == nil {
			pipe.SRem(ctx, s.userKey(session.UserID), session.ID)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

// DeleteForUser removes every session of userID and reports how many were live.
func (s *SessionStore) DeleteForUser(ctx context.Context, userID int64) (int, error) {
	userKey := s.userKey(userID)
	ids, err := s.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return 0, fmt.Errorf("redis list user sessions: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, s.key(id))
	}

	pipe := s.client.TxPipeline()
	deleted := pipe.Del(ctx, keys...)
	pipe.Del(ctx, userKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("redis delete user sessions: %w", err)
	}
	return int(deleted.Val()), nil
}

func (s *SessionStore) key(id string) string {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return ""
	}
	return s.prefix + ":" + trimmed
}

func (s *SessionStore) userKey(userID int64) string {
	return s.prefix + ":user:" + strconv.FormatInt(userID, 10)
}

var _ port.SessionStore = (*SessionStore)(nil)
