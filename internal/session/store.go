package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Store persists session snapshots in Redis, one key per identity.
type Store struct {
	rdb    *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

// NewStore creates a Redis-backed session store. A zero ttl keeps sessions
// until explicitly overwritten; an abandoned dialogue simply stays at its
// last state until the caller returns.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if rdb == nil {
		panic("session: redis client required")
	}
	return &Store{
		rdb:    rdb,
		ttl:    ttl,
		tracer: otel.Tracer("salon.internal.session"),
	}
}

func (s *Store) key(identity string) string {
	return "session:" + identity
}

// Get loads the session for an identity. A missing or unreadable snapshot
// yields the initial (menu, empty draft) session rather than an error: a
// corrupt row must not trap the caller out of the bot.
func (s *Store) Get(ctx context.Context, identity string) (Session, error) {
	ctx, span := s.tracer.Start(ctx, "session.get")
	defer span.End()

	data, err := s.rdb.Get(ctx, s.key(identity)).Bytes()
	if err == redis.Nil {
		return New(identity), nil
	}
	if err != nil {
		return Session{}, fmt.Errorf("session: load %s: %w", identity, err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return New(identity), nil
	}
	if sess.Identity == "" {
		sess.Identity = identity
	}
	if !sess.State.Valid() {
		sess.Reset()
	}
	return sess, nil
}

// Put overwrites the session snapshot for its identity.
func (s *Store) Put(ctx context.Context, sess Session) error {
	ctx, span := s.tracer.Start(ctx, "session.put")
	defer span.End()

	sess.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session: marshal %s: %w", sess.Identity, err)
	}
	if err := s.rdb.Set(ctx, s.key(sess.Identity), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("session: save %s: %w", sess.Identity, err)
	}
	return nil
}

// Reset deletes the stored snapshot, returning the identity to first-contact state.
func (s *Store) Reset(ctx context.Context, identity string) error {
	ctx, span := s.tracer.Start(ctx, "session.reset")
	defer span.End()

	if err := s.rdb.Del(ctx, s.key(identity)).Err(); err != nil {
		return fmt.Errorf("session: reset %s: %w", identity, err)
	}
	return nil
}
