package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	sessionKeyPrefix  = "chat_session:"
	messagesKeyPrefix = "chat_messages:"
)

// SessionStore persists sessions and their append-only transcripts in Redis.
// Messages are stored as a capped list; both keys share the session TTL so
// sessions age out together with their history.
type SessionStore struct {
	redis       *redis.Client
	tracer      trace.Tracer
	ttl         time.Duration
	maxMessages int64
}

// NewSessionStore creates a session store. Returns nil when redisClient is
// nil so callers can treat persistence as optional in tests.
func NewSessionStore(redisClient *redis.Client, ttl time.Duration, maxMessages int64) *SessionStore {
	if redisClient == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	if maxMessages <= 0 {
		maxMessages = 250
	}
	return &SessionStore{
		redis:       redisClient,
		tracer:      otel.Tracer("engage.internal.chat.session_store"),
		ttl:         ttl,
		maxMessages: maxMessages,
	}
}

// Ensure creates the session header if it does not exist and returns it.
func (s *SessionStore) Ensure(ctx context.Context, sessionID string) (SessionMeta, error) {
	if s == nil || s.redis == nil {
		return SessionMeta{ID: sessionID}, nil
	}
	if sessionID == "" {
		return SessionMeta{}, errors.New("chat: sessionID required")
	}

	ctx, span := s.tracer.Start(ctx, "chat.session_store.ensure")
	defer span.End()

	key := sessionKey(sessionID)
	raw, err := s.redis.Get(ctx, key).Result()
	if err == nil {
		var meta SessionMeta
		if unmarshalErr := json.Unmarshal([]byte(raw), &meta); unmarshalErr == nil {
			return meta, nil
		}
		// Corrupt header: fall through and rewrite it.
	} else if err != redis.Nil {
		span.RecordError(err)
		return SessionMeta{}, fmt.Errorf("chat: get session: %w", err)
	}

	meta := SessionMeta{
		ID:        sessionID,
		Online:    true,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.putMeta(ctx, meta); err != nil {
		span.RecordError(err)
		return SessionMeta{}, err
	}
	return meta, nil
}

// Get returns the session header, or a zero meta with ok=false when absent.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (SessionMeta, bool, error) {
	if s == nil || s.redis == nil {
		return SessionMeta{}, false, nil
	}

	ctx, span := s.tracer.Start(ctx, "chat.session_store.get")
	defer span.End()

	raw, err := s.redis.Get(ctx, sessionKey(sessionID)).Result()
	if err == redis.Nil {
		return SessionMeta{}, false, nil
	}
	if err != nil {
		span.RecordError(err)
		return SessionMeta{}, false, fmt.Errorf("chat: get session: %w", err)
	}
	var meta SessionMeta
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return SessionMeta{}, false, fmt.Errorf("chat: decode session: %w", err)
	}
	return meta, true, nil
}

// SetPreferredLanguage records the session's resolved language once known.
func (s *SessionStore) SetPreferredLanguage(ctx context.Context, sessionID, language string) error {
	if s == nil || s.redis == nil {
		return nil
	}
	meta, ok, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if !ok {
		meta = SessionMeta{ID: sessionID, Online: true, CreatedAt: time.Now().UTC()}
	}
	meta.PreferredLanguage = language
	return s.putMeta(ctx, meta)
}

// Append stores one message at the end of the session transcript. Message
// order in the list is conversational order.
func (s *SessionStore) Append(ctx context.Context, msg Message) error {
	if s == nil || s.redis == nil {
		return nil
	}
	if msg.SessionID == "" {
		return errors.New("chat: message sessionID required")
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("chat: marshal message: %w", err)
	}

	ctx, span := s.tracer.Start(ctx, "chat.session_store.append")
	defer span.End()

	key := messagesKey(msg.SessionID)
	pipe := s.redis.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, s.ttl)
	pipe.Expire(ctx, sessionKey(msg.SessionID), s.ttl)
	if s.maxMessages > 0 {
		pipe.LTrim(ctx, key, -s.maxMessages, -1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("chat: append message: %w", err)
	}
	return nil
}

// List returns up to limit most recent messages, oldest first. A limit of
// zero returns the whole transcript.
func (s *SessionStore) List(ctx context.Context, sessionID string, limit int64) ([]Message, error) {
	if s == nil || s.redis == nil {
		return nil, nil
	}
	if sessionID == "" {
		return nil, errors.New("chat: sessionID required")
	}

	ctx, span := s.tracer.Start(ctx, "chat.session_store.list")
	defer span.End()

	start := int64(0)
	if limit > 0 {
		start = -limit
	}
	raw, err := s.redis.LRange(ctx, messagesKey(sessionID), start, -1).Result()
	if err != nil {
		span.RecordError(err)
		if err == redis.Nil {
			return []Message{}, nil
		}
		return nil, fmt.Errorf("chat: list messages: %w", err)
	}

	out := make([]Message, 0, len(raw))
	for _, item := range raw {
		var msg Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			span.RecordError(err)
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

func (s *SessionStore) putMeta(ctx context.Context, meta SessionMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("chat: marshal session: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey(meta.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("chat: put session: %w", err)
	}
	return nil
}

func sessionKey(sessionID string) string  { return sessionKeyPrefix + sessionID }
func messagesKey(sessionID string) string { return messagesKeyPrefix + sessionID }
