package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "verification:"

// RedisStore хранит коды в Redis с истечением по TTL.
type RedisStore struct {
	client redis.Cmdable
}

// NewRedisStore создаёт хранилище поверх клиента Redis.
func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

// NewRedisClient подключается к Redis по адресу host:port и проверяет соединение.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Save сохраняет код получателя с временем жизни ttl.
func (s *RedisStore) Save(ctx context.Context, recipient, code string, ttl time.Duration) error {
	if err := s.client.Set(ctx, keyPrefix+recipient, code, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Get возвращает код получателя.
func (s *RedisStore) Get(ctx context.Context, recipient string) (string, error) {
	code, err := s.client.Get(ctx, keyPrefix+recipient).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCodeNotFound
		}
		return "", fmt.Errorf("redis get: %w", err)
	}
	return code, nil
}

// Delete удаляет код получателя. DEL атомарен, поэтому true получает ровно один вызов.
func (s *RedisStore) Delete(ctx context.Context, recipient string) (bool, error) {
	n, err := s.client.Del(ctx, keyPrefix+recipient).Result()
	if err != nil {
		return false, fmt.Errorf("redis del: %w", err)
	}
	return n == 1, nil
}
