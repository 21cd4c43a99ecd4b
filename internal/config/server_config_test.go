package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/SafeMPC/flow-wallet-kit/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultServiceConfigFromEnv(t *testing.T) {
	cfg := config.DefaultServiceConfigFromEnv()

	assert.Equal(t, ":8080", cfg.Echo.ListenAddress)
	assert.Equal(t, []string{"mainnet", "testnet"}, cfg.Networks)
	assert.Equal(t, "https://rest-mainnet.onflow.org", cfg.Access.Endpoints["mainnet"])
	assert.Equal(t, 10*time.Second, cfg.Indexer.Timeout)
	assert.Equal(t, "0xd8a7e05a7ac670c0", cfg.Contracts["mainnet"].HybridCustody)
	assert.Equal(t, "0x8c5303eaa26202d6", cfg.Contracts["testnet"].EVM)
	assert.Equal(t, "0x9a0766d93b6608b7", cfg.Contracts["testnet"].FungibleToken)
	assert.Equal(t, "0x1d7e57aa55817448", cfg.Contracts["mainnet"].NonFungibleToken)
	assert.Equal(t, "badger", cfg.Storage.Backend)
	assert.Equal(t, zerolog.InfoLevel, cfg.Logger.ZerologLevel())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("WALLETKIT_ECHO_LISTEN_ADDRESS", "127.0.0.1:9999")
	t.Setenv("WALLETKIT_NETWORKS", "testnet,emulator")
	t.Setenv("WALLETKIT_INDEXER_ENDPOINTS_TESTNET", "http://indexer.local")
	t.Setenv("WALLETKIT_INDEXER_TIMEOUT", "3s")
	t.Setenv("WALLETKIT_STORAGE_BACKEND", "memory")
	t.Setenv("WALLETKIT_LOGGER_LEVEL", "debug")

	cfg := config.DefaultServiceConfigFromEnv()

	assert.Equal(t, "127.0.0.1:9999", cfg.Echo.ListenAddress)
	assert.Equal(t, []string{"testnet", "emulator"}, cfg.Networks)
	assert.Equal(t, "http://indexer.local", cfg.Indexer.Endpoints["testnet"])
	assert.Equal(t, 3*time.Second, cfg.Indexer.Timeout)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, zerolog.DebugLevel, cfg.Logger.ZerologLevel())
}

func TestLoadServiceConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "walletkit.yaml")
	err := os.WriteFile(path, []byte(`
networks: [emulator]
storage:
  backend: redis
  redis_addr: redis:6379
access:
  endpoints:
    emulator: http://emulator:8888
`), 0o600)
	require.NoError(t, err)

	cfg, err := config.LoadServiceConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"emulator"}, cfg.Networks)
	assert.Equal(t, "redis", cfg.Storage.Backend)
	assert.Equal(t, "redis:6379", cfg.Storage.RedisAddr)
	assert.Equal(t, "http://emulator:8888", cfg.Access.Endpoints["emulator"])
	assert.Equal(t, "https://rest-testnet.onflow.org", cfg.Access.Endpoints["testnet"])

	_, err = config.LoadServiceConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestZerologLevelFallback(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, config.LoggerServer{Level: "loud"}.ZerologLevel())
	assert.Equal(t, zerolog.WarnLevel, config.LoggerServer{Level: "WARN"}.ZerologLevel())
}
