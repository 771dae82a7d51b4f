package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"casestatus/internal/identity/models"
	id "casestatus/pkg/domain"
	"casestatus/pkg/platform/sentinel"
)

const (
	sessionKeyPrefix = "casestatus:session:"

	// revokedRetention keeps revoked sessions visible long enough for the
	// gate to report them as revoked rather than missing.
	revokedRetention = 24 * time.Hour

	scanBatch = 200
)

type sessionJSON struct {
	ID                string `json:"id"`
	UserID            string `json:"user_id"`
	Status            string `json:"status"`
	DeviceDisplayName string `json:"device_display_name,omitempty"`
	CreatedAt         int64  `json:"created_at"`           // Unix nano
	ExpiresAt         int64  `json:"expires_at"`           // Unix nano
	RevokedAt         *int64 `json:"revoked_at,omitempty"` // Unix nano
}

func sessionToJSON(s *models.Session) *sessionJSON {
	j := &sessionJSON{
		ID:                s.ID.String(),
		UserID:            s.UserID.String(),
		Status:            string(s.Status),
		DeviceDisplayName: s.DeviceDisplayName,
		CreatedAt:         s.CreatedAt.UnixNano(),
		ExpiresAt:         s.ExpiresAt.UnixNano(),
	}
	if s.RevokedAt != nil {
		ts := s.RevokedAt.UnixNano()
		j.RevokedAt = &ts
	}
	return j
}

func sessionFromJSON(j *sessionJSON) (*models.Session, error) {
	sessionID, err := uuid.Parse(j.ID)
	if err != nil {
		return nil, fmt.Errorf("parse session id: %w", err)
	}
	userID, err := uuid.Parse(j.UserID)
	if err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}

	s := &models.Session{
		ID:                id.SessionID(sessionID),
		UserID:            id.UserID(userID),
		Status:            models.SessionStatus(j.Status),
		DeviceDisplayName: j.DeviceDisplayName,
		CreatedAt:         time.Unix(0, j.CreatedAt),
		ExpiresAt:         time.Unix(0, j.ExpiresAt),
	}
	if j.RevokedAt != nil {
		t := time.Unix(0, *j.RevokedAt)
		s.RevokedAt = &t
	}
	return s, nil
}

func decodeSession(data string) (*models.Session, error) {
	var j sessionJSON
	if err := json.Unmarshal([]byte(data), &j); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return sessionFromJSON(&j)
}

// RedisStore shares session state between instances. Keys expire with the session.
type RedisStore struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed session store.
func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func sessionKey(sessionID id.SessionID) string {
	return sessionKeyPrefix + sessionID.String()
}

func ttlFor(session *models.Session, now time.Time) time.Duration {
	if session.IsRevoked() {
		return revokedRetention
	}
	if remaining := session.ExpiresAt.Sub(now); remaining > 0 {
		return remaining
	}
	// Already expired: keep briefly so lookups report expiry, not absence.
	return time.Minute
}

func (s *RedisStore) Create(ctx context.Context, session *models.Session) error {
	if session == nil {
		return fmt.Errorf("session is required")
	}
	data, err := json.Marshal(sessionToJSON(session))
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(session.ID), data, ttlFor(session, time.Now())).Err(); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *RedisStore) FindByID(ctx context.Context, sessionID id.SessionID) (*models.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find session by id: %w", err)
	}
	return decodeSession(data)
}

// Revoke marks the session revoked under an optimistic WATCH lock so a
// concurrent writer cannot resurrect it.
func (s *RedisStore) Revoke(ctx context.Context, sessionID id.SessionID, now time.Time) error {
	key := sessionKey(sessionID)

	return s.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get session for revoke: %w", err)
		}

		session, err := decodeSession(data)
		if err != nil {
			return err
		}
		session.Revoke(now)

		updated, err := json.Marshal(sessionToJSON(session))
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, ttlFor(session, now))
			return nil
		})
		return err
	}, key)
}

// CountActive scans every session key. It is meant for the dashboard, not the request path.
func (s *RedisStore) CountActive(ctx context.Context, now time.Time) (int, error) {
	count := 0
	iter := s.client.Scan(ctx, 0, sessionKeyPrefix+"*", scanBatch).Iterator()

	batch := make([]string, 0, scanBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		values, err := s.client.MGet(ctx, batch...).Result()
		if err != nil {
			return fmt.Errorf("load sessions: %w", err)
		}
		for _, v := range values {
			raw, ok := v.(string)
			if !ok {
				continue
			}
			session, err := decodeSession(raw)
			if err != nil {
				continue
			}
			if session.CheckUsable(now) == nil {
				count++
			}
		}
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := flush(); err != nil {
				return 0, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("scan sessions: %w", err)
	}
	if err := flush(); err != nil {
		return 0, err
	}
	return count, nil
}
