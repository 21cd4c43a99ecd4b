package storage

import (
	"context"
	"database/sql"

	// postgres 驱动
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	migrate "github.com/rubenv/sql-migrate"
)

var postgresMigrations = &migrate.MemoryMigrationSource{
	Migrations: []*migrate.Migration{
		{
			Id: "20260301000000-create-walletkit-storage",
			Up: []string{`
				CREATE TABLE IF NOT EXISTS walletkit_storage (
					key        TEXT PRIMARY KEY,
					value      BYTEA NOT NULL,
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				)`,
			},
			Down: []string{`DROP TABLE IF EXISTS walletkit_storage`},
		},
	},
}

var postgresMigrationSet = migrate.MigrationSet{TableName: "walletkit_migrations"}

// PostgreSQLStorage 基于 PostgreSQL 的存储
type PostgreSQLStorage struct {
	db *sql.DB
}

var _ Storage = (*PostgreSQLStorage)(nil)

// OpenPostgreSQLStorage 连接数据库并执行迁移
func OpenPostgreSQLStorage(ctx context.Context, dsn string) (*PostgreSQLStorage, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open postgres")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping postgres")
	}
	store, err := NewPostgreSQLStorage(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewPostgreSQLStorage 使用已有连接创建存储并执行迁移
func NewPostgreSQLStorage(db *sql.DB) (*PostgreSQLStorage, error) {
	if _, err := postgresMigrationSet.Exec(db, "postgres", postgresMigrations, migrate.Up); err != nil {
		return nil, errors.Wrap(err, "failed to migrate walletkit storage")
	}
	return &PostgreSQLStorage{db: db}, nil
}

// PostgreSQLMigrationRecords 已执行的迁移记录
func PostgreSQLMigrationRecords(db *sql.DB) ([]*migrate.MigrationRecord, error) {
	records, err := postgresMigrationSet.GetMigrationRecords(db, "postgres")
	if err != nil {
		return nil, errors.Wrap(err, "failed to read walletkit migrations")
	}
	return records, nil
}

// DB 底层连接
func (s *PostgreSQLStorage) DB() *sql.DB {
	return s.db
}

// Close 关闭连接
func (s *PostgreSQLStorage) Close() error {
	return s.db.Close()
}

func (s *PostgreSQLStorage) SecurityLevel() SecurityLevel {
	return SecurityLevelStandard
}

func (s *PostgreSQLStorage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM walletkit_storage WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "failed to get key %s", key)
	}
	return copyBytes(value), true, nil
}

func (s *PostgreSQLStorage) Set(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO walletkit_storage (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, key, copyBytes(value)); err != nil {
		return errors.Wrapf(err, "failed to set key %s", key)
	}
	return nil
}

func (s *PostgreSQLStorage) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM walletkit_storage WHERE key = $1`, key); err != nil {
		return errors.Wrapf(err, "failed to remove key %s", key)
	}
	return nil
}

func (s *PostgreSQLStorage) RemoveAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM walletkit_storage`); err != nil {
		return errors.Wrap(err, "failed to remove all keys")
	}
	return nil
}

func (s *PostgreSQLStorage) FindKey(ctx context.Context, substring string) ([]string, error) {
	return s.queryKeys(ctx, `SELECT key FROM walletkit_storage WHERE strpos(key, $1) > 0 ORDER BY key`, substring)
}

func (s *PostgreSQLStorage) AllKeys(ctx context.Context) ([]string, error) {
	return s.queryKeys(ctx, `SELECT key FROM walletkit_storage ORDER BY key`)
}

func (s *PostgreSQLStorage) queryKeys(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list keys")
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, errors.Wrap(err, "failed to scan key")
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate keys")
	}
	return keys, nil
}
