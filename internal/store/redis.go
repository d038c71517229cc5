package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis keeps all keys as fields of one hash, so several profiles can
// share a server under different hash keys.
type Redis struct {
	client *redis.Client
	key    string
}

// NewRedis wraps client; key names the hash (default "ltpanel:settings").
func NewRedis(client *redis.Client, key string) *Redis {
	if key == "" {
		key = "ltpanel:settings"
	}
	return &Redis{client: client, key: key}
}

func (r *Redis) Get(ctx context.Context, keys []string) (map[string][]byte, error) {
	vals, err := r.client.HMGet(ctx, r.key, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis store: hmget %s: %w", r.key, err)
	}
	out := make(map[string][]byte, len(keys))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok { // nil for missing fields
			continue
		}
		out[keys[i]] = []byte(s)
	}
	return out, nil
}

// Commit watches the hash, so a write by another client between the
// version read and EXEC aborts the transaction.
func (r *Redis) Commit(ctx context.Context, version int64, values map[string][]byte) error {
	fields := make(map[string]any, len(values))
	for k, v := range values {
		fields[k] = string(v)
	}
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.HGet(ctx, r.key, KeyVersion).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		cur, err := storedVersion(raw)
		if err != nil {
			return err
		}
		if cur != version {
			return ErrConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, r.key, fields)
			return nil
		})
		return err
	}, r.key)
	switch {
	case errors.Is(err, redis.TxFailedErr):
		return ErrConflict
	case errors.Is(err, ErrConflict):
		return err
	case err != nil:
		return fmt.Errorf("redis store: hset %s: %w", r.key, err)
	}
	return nil
}

func (r *Redis) Close() error { return r.client.Close() }
