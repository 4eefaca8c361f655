package snapshot

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/c360/marlink/errors"
)

// redisStore keeps snapshots in Redis so multiple processes share one
// fleet picture. Values are JSON under a key prefix; Redis handles TTL
// expiry natively.
type redisStore[T any] struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis creates a Redis-backed store. prefix namespaces the keys,
// for example "marlink:vessel:". A non-positive ttl falls back to
// DefaultTTL. The caller owns the client's lifecycle; Close here does
// not close it.
func NewRedis[T any](client *redis.Client, prefix string, ttl time.Duration) (Store[T], error) {
	if client == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "snapshot", "NewRedis", "client validation")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &redisStore[T]{client: client, prefix: prefix, ttl: ttl}, nil
}

func (s *redisStore[T]) Put(ctx context.Context, key string, value T) error {
	if key == "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "snapshot", "Put", "key validation")
	}

	data, err := json.Marshal(value)
	if err != nil {
		return errors.WrapInvalid(err, "snapshot", "Put", "value encoding")
	}

	if err := s.client.Set(ctx, s.prefix+key, data, s.ttl).Err(); err != nil {
		return errors.WrapTransient(err, "snapshot", "Put", "redis set")
	}
	return nil
}

func (s *redisStore[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var zero T

	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err == redis.Nil {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, errors.WrapTransient(err, "snapshot", "Get", "redis get")
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return zero, false, errors.WrapInvalid(err, "snapshot", "Get", "value decoding")
	}
	return value, true, nil
}

func (s *redisStore[T]) All(ctx context.Context) ([]T, error) {
	keys, err := s.scanKeys(ctx)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return []T{}, nil
	}

	raw, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.WrapTransient(err, "snapshot", "All", "redis mget")
	}

	values := make([]T, 0, len(raw))
	for _, item := range raw {
		str, ok := item.(string)
		if !ok {
			// Key expired between SCAN and MGET
			continue
		}
		var value T
		if err := json.Unmarshal([]byte(str), &value); err != nil {
			continue
		}
		values = append(values, value)
	}
	return values, nil
}

func (s *redisStore[T]) Delete(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Del(ctx, s.prefix+key).Result()
	if err != nil {
		return false, errors.WrapTransient(err, "snapshot", "Delete", "redis del")
	}
	return n > 0, nil
}

func (s *redisStore[T]) Len(ctx context.Context) (int, error) {
	keys, err := s.scanKeys(ctx)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

func (s *redisStore[T]) Close() error {
	return nil
}

func (s *redisStore[T]) scanKeys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, errors.WrapTransient(err, "snapshot", "scanKeys", "redis scan")
	}
	return keys, nil
}
