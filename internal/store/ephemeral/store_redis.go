package ephemeral

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// delIfEqual deletes a key only when its value matches the argument. The
// read-compare-delete must be indivisible, which only a script gives us.
var delIfEqual = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore implements Store on a Redis connection. Conditional writes use
// SET NX EX, counters use a pipelined INCR+EXPIRE, and topic logs are
// Redis streams.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing client; the client lifecycle is managed
// by the caller.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setnx %q: %w", key, err)
	}
	return ok, nil
}

func (s *RedisStore) Del(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Del(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("del %q: %w", key, err)
	}
	return n == 1, nil
}

func (s *RedisStore) DelIfEqual(ctx context.Context, key, value string) (bool, error) {
	n, err := delIfEqual.Run(ctx, s.client, []string{key}, value).Int64()
	if err != nil {
		return false, fmt.Errorf("compare-and-delete %q: %w", key, err)
	}
	return n == 1, nil
}

func (s *RedisStore) IncrExpire(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("incr+expire %q: %w", key, err)
	}
	return incr.Val(), nil
}

func (s *RedisStore) GetInt64(ctx context.Context, key string) (int64, error) {
	n, err := s.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get %q: %w", key, err)
	}
	return n, nil
}

func (s *RedisStore) Append(ctx context.Context, topic string, data []byte) (string, error) {
	id, err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: topic,
		Values: map[string]any{"data": data},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd %q: %w", topic, err)
	}
	return id, nil
}

func (s *RedisStore) Range(ctx context.Context, topic string, limit int64) ([]Entry, error) {
	var (
		msgs []redis.XMessage
		err  error
	)
	if limit > 0 {
		msgs, err = s.client.XRangeN(ctx, topic, "-", "+", limit).Result()
	} else {
		msgs, err = s.client.XRange(ctx, topic, "-", "+").Result()
	}
	if err != nil {
		return nil, fmt.Errorf("xrange %q: %w", topic, err)
	}

	entries := make([]Entry, 0, len(msgs))
	for _, msg := range msgs {
		data, _ := msg.Values["data"].(string)
		entries = append(entries, Entry{ID: msg.ID, Data: []byte(data)})
	}
	return entries, nil
}

func (s *RedisStore) Health(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
