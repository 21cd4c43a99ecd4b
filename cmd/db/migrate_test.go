package db

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateRequiresDSN(t *testing.T) {
	assert.Error(t, migrate(t.Context(), ""))
}

func TestMigrate(t *testing.T) {
	dsn := os.Getenv("WALLETKIT_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("WALLETKIT_TEST_POSTGRES_DSN not set")
	}

	require.NoError(t, migrate(t.Context(), dsn))
	// 重复执行不会报错
	require.NoError(t, migrate(t.Context(), dsn))
}
