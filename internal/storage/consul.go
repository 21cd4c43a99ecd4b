package storage

import (
	"context"
	"strings"

	"github.com/hashicorp/consul/api"
	"github.com/pkg/errors"
)

// ConsulStorage 基于 Consul KV 的存储
type ConsulStorage struct {
	kv     *api.KV
	prefix string
}

var _ Storage = (*ConsulStorage)(nil)

// NewConsulStorage 创建 Consul KV 存储，prefix 形如 "walletkit/"
func NewConsulStorage(address string, prefix string) (*ConsulStorage, error) {
	config := api.DefaultConfig()
	if address != "" {
		config.Address = address
	}
	client, err := api.NewClient(config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create consul client")
	}
	return NewConsulStorageWithClient(client, prefix), nil
}

// NewConsulStorageWithClient 使用已有客户端创建存储
func NewConsulStorageWithClient(client *api.Client, prefix string) *ConsulStorage {
	prefix = strings.TrimPrefix(prefix, "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &ConsulStorage{kv: client.KV(), prefix: prefix}
}

func (s *ConsulStorage) key(k string) string {
	return s.prefix + k
}

func (s *ConsulStorage) SecurityLevel() SecurityLevel {
	return SecurityLevelStandard
}

func (s *ConsulStorage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	pair, _, err := s.kv.Get(s.key(key), (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, false, errors.Wrapf(err, "failed to get key %s", key)
	}
	if pair == nil {
		return nil, false, nil
	}
	return copyBytes(pair.Value), true, nil
}

func (s *ConsulStorage) Set(ctx context.Context, key string, value []byte) error {
	pair := &api.KVPair{Key: s.key(key), Value: copyBytes(value)}
	if _, err := s.kv.Put(pair, (&api.WriteOptions{}).WithContext(ctx)); err != nil {
		return errors.Wrapf(err, "failed to set key %s", key)
	}
	return nil
}

func (s *ConsulStorage) Remove(ctx context.Context, key string) error {
	if _, err := s.kv.Delete(s.key(key), (&api.WriteOptions{}).WithContext(ctx)); err != nil {
		return errors.Wrapf(err, "failed to remove key %s", key)
	}
	return nil
}

func (s *ConsulStorage) RemoveAll(ctx context.Context) error {
	if s.prefix == "" {
		return errors.New("refusing to delete the whole consul KV tree without a prefix")
	}
	if _, err := s.kv.DeleteTree(s.prefix, (&api.WriteOptions{}).WithContext(ctx)); err != nil {
		return errors.Wrap(err, "failed to remove all keys")
	}
	return nil
}

func (s *ConsulStorage) FindKey(ctx context.Context, substring string) ([]string, error) {
	keys, err := s.AllKeys(ctx)
	if err != nil {
		return nil, err
	}
	return filterKeys(keys, substring), nil
}

func (s *ConsulStorage) AllKeys(ctx context.Context) ([]string, error) {
	keys, _, err := s.kv.Keys(s.prefix, "", (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, errors.Wrap(err, "failed to list consul keys")
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, strings.TrimPrefix(k, s.prefix))
	}
	return filterKeys(out, ""), nil
}
