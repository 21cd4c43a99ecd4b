package storage

import (
	"context"

	"github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"
)

// BadgerOptions Badger 后端参数
type BadgerOptions struct {
	// Path 数据目录，InMemory 为 true 时忽略
	Path string
	// EncryptionKey 16/24/32 字节 AES 密钥，为空时不加密
	EncryptionKey []byte
	// InMemory 仅在内存中运行（测试用）
	InMemory bool
}

// BadgerStorage 基于 Badger 的本地持久化存储
type BadgerStorage struct {
	db *badger.DB
}

var _ Storage = (*BadgerStorage)(nil)

// NewBadgerStorage 打开 Badger 数据库
func NewBadgerStorage(opts BadgerOptions) (*BadgerStorage, error) {
	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if opts.Path == "" {
			return nil, errors.New("badger storage path is required")
		}
		bopts = badger.DefaultOptions(opts.Path)
	}
	bopts = bopts.WithLogger(nil)

	if len(opts.EncryptionKey) > 0 {
		// 启用加密时 badger 要求配置索引缓存
		bopts = bopts.WithEncryptionKey(opts.EncryptionKey).WithIndexCacheSize(16 << 20)
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open badger storage")
	}
	return &BadgerStorage{db: db}, nil
}

// Close 关闭数据库
func (s *BadgerStorage) Close() error {
	return s.db.Close()
}

func (s *BadgerStorage) SecurityLevel() SecurityLevel {
	return SecurityLevelStandard
}

func (s *BadgerStorage) Get(_ context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "failed to get key %s", key)
	}
	return copyBytes(value), true, nil
}

func (s *BadgerStorage) Set(_ context.Context, key string, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), copyBytes(value))
	})
	if err != nil {
		return errors.Wrapf(err, "failed to set key %s", key)
	}
	return nil
}

func (s *BadgerStorage) Remove(_ context.Context, key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return errors.Wrapf(err, "failed to remove key %s", key)
	}
	return nil
}

func (s *BadgerStorage) RemoveAll(_ context.Context) error {
	if err := s.db.DropAll(); err != nil {
		return errors.Wrap(err, "failed to drop badger storage")
	}
	return nil
}

func (s *BadgerStorage) FindKey(ctx context.Context, substring string) ([]string, error) {
	keys, err := s.AllKeys(ctx)
	if err != nil {
		return nil, err
	}
	return filterKeys(keys, substring), nil
}

func (s *BadgerStorage) AllKeys(_ context.Context) ([]string, error) {
	var keys []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list badger keys")
	}
	return filterKeys(keys, ""), nil
}
