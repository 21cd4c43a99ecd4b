package storage

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisStorage 基于 Redis 的存储，所有 key 带统一前缀
type RedisStorage struct {
	client redis.UniversalClient
	prefix string
}

var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage 创建 Redis 存储
func NewRedisStorage(client redis.UniversalClient, prefix string) *RedisStorage {
	return &RedisStorage{client: client, prefix: prefix}
}

// Close 关闭底层客户端
func (s *RedisStorage) Close() error {
	return s.client.Close()
}

func (s *RedisStorage) key(k string) string {
	return s.prefix + k
}

func (s *RedisStorage) SecurityLevel() SecurityLevel {
	return SecurityLevelStandard
}

func (s *RedisStorage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "failed to get key %s", key)
	}
	return copyBytes(value), true, nil
}

func (s *RedisStorage) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return errors.Wrapf(err, "failed to set key %s", key)
	}
	return nil
}

func (s *RedisStorage) Remove(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return errors.Wrapf(err, "failed to remove key %s", key)
	}
	return nil
}

func (s *RedisStorage) RemoveAll(ctx context.Context) error {
	keys, err := s.scan(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return errors.Wrap(err, "failed to remove all keys")
	}
	return nil
}

func (s *RedisStorage) FindKey(ctx context.Context, substring string) ([]string, error) {
	keys, err := s.AllKeys(ctx)
	if err != nil {
		return nil, err
	}
	return filterKeys(keys, substring), nil
}

func (s *RedisStorage) AllKeys(ctx context.Context) ([]string, error) {
	keys, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, strings.TrimPrefix(k, s.prefix))
	}
	return filterKeys(out, ""), nil
}

// scan 返回带前缀的原始 key
func (s *RedisStorage) scan(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to scan redis keys")
	}
	return keys, nil
}
