package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sessions in Redis. Each session is stored as JSON under
// its token and expires with the session; an id index and a per-user set
// support Delete, Touch and DeleteByUserID.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a store. An empty prefix defaults to "session".
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "session"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) Create(ctx context.Context, s *Session) error {
	return r.write(ctx, s, "")
}

func (r *RedisStore) Get(ctx context.Context, token string) (*Session, error) {
	data, err := r.client.Get(ctx, r.tokenKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrStore, err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Join(ErrStore, err)
	}
	if s.IsExpired() {
		return nil, ErrExpired
	}
	return &s, nil
}

func (r *RedisStore) Update(ctx context.Context, s *Session) error {
	oldToken, err := r.client.Get(ctx, r.idKey(s.ID)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return errors.Join(ErrStore, err)
	}
	return r.write(ctx, s, oldToken)
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	token, err := r.client.Get(ctx, r.idKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return errors.Join(ErrStore, err)
	}

	s, err := r.Get(ctx, token)
	if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrExpired) {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, r.tokenKey(token), r.idKey(id))
		if s != nil && s.UserID != nil {
			p.SRem(ctx, r.userKey(*s.UserID), id)
		}
		return nil
	})
	if err != nil {
		return errors.Join(ErrStore, err)
	}
	return nil
}

func (r *RedisStore) DeleteByUserID(ctx context.Context, userID string) error {
	ids, err := r.client.SMembers(ctx, r.userKey(userID)).Result()
	if err != nil {
		return errors.Join(ErrStore, err)
	}
	for _, id := range ids {
		if err := r.Delete(ctx, id); err != nil {
			return err
		}
	}
	if err := r.client.Del(ctx, r.userKey(userID)).Err(); err != nil {
		return errors.Join(ErrStore, err)
	}
	return nil
}

func (r *RedisStore) Touch(ctx context.Context, id string, lastActiveAt time.Time) error {
	token, err := r.client.Get(ctx, r.idKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return errors.Join(ErrStore, err)
	}

	s, err := r.Get(ctx, token)
	if err != nil {
		return err
	}
	s.LastActiveAt = lastActiveAt
	return r.write(ctx, s, token)
}

// DeleteExpired is a no-op: Redis expires entries on its own.
func (r *RedisStore) DeleteExpired(context.Context) (int64, error) {
	return 0, nil
}

func (r *RedisStore) write(ctx context.Context, s *Session, oldToken string) error {
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return ErrExpired
	}
	data, err := json.Marshal(s)
	if err != nil {
		return errors.Join(ErrStore, err)
	}

	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		if oldToken != "" && oldToken != s.Token {
			p.Del(ctx, r.tokenKey(oldToken))
		}
		p.Set(ctx, r.tokenKey(s.Token), data, ttl)
		p.Set(ctx, r.idKey(s.ID), s.Token, ttl)
		if s.UserID != nil {
			p.SAdd(ctx, r.userKey(*s.UserID), s.ID)
			p.Expire(ctx, r.userKey(*s.UserID), ttl)
		}
		return nil
	})
	if err != nil {
		return errors.Join(ErrStore, err)
	}
	return nil
}

func (r *RedisStore) tokenKey(token string) string { return r.prefix + ":s:" + token }
func (r *RedisStore) idKey(id string) string       { return r.prefix + ":id:" + id }
func (r *RedisStore) userKey(id string) string     { return r.prefix + ":u:" + id }
