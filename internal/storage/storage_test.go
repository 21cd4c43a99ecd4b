package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStorageContract(t *testing.T, s Storage) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.RemoveAll(ctx))

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	value := []byte{0x00, 0x01, 0xff, 'k', 'e', 'y'}
	require.NoError(t, s.Set(ctx, "key-abc", value))
	require.NoError(t, s.Set(ctx, "key-def", []byte("second")))
	require.NoError(t, s.Set(ctx, "Account-mainnet-0x01", []byte("{}")))

	got, ok, err := s.Get(ctx, "key-abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, value, got)

	// 返回值与内部数据互不影响
	got[0] = 0x42
	again, _, err := s.Get(ctx, "key-abc")
	require.NoError(t, err)
	assert.Equal(t, value, again)

	require.NoError(t, s.Set(ctx, "key-abc", []byte("overwritten")))
	got, _, err = s.Get(ctx, "key-abc")
	require.NoError(t, err)
	assert.Equal(t, []byte("overwritten"), got)

	found, err := s.FindKey(ctx, "key-")
	require.NoError(t, err)
	assert.Equal(t, []string{"key-abc", "key-def"}, found)

	all, err := s.AllKeys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"key-abc", "key-def", "Account-mainnet-0x01"}, all)

	require.NoError(t, s.Remove(ctx, "key-abc"))
	require.NoError(t, s.Remove(ctx, "key-abc"))
	_, ok, err = s.Get(ctx, "key-abc")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.RemoveAll(ctx))
	all, err = s.AllKeys(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func testStorageConcurrency(t *testing.T, s Storage) {
	t.Helper()
	ctx := context.Background()

	a := bytes.Repeat([]byte{'a'}, 4096)
	b := bytes.Repeat([]byte{'b'}, 4096)
	require.NoError(t, s.Set(ctx, "torn", a))

	var wg sync.WaitGroup
	errCh := make(chan error, 64)
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			v := a
			if i%2 == 0 {
				v = b
			}
			if err := s.Set(ctx, "torn", v); err != nil {
				errCh <- err
			}
		}(i)
		go func() {
			defer wg.Done()
			v, ok, err := s.Get(ctx, "torn")
			if err != nil {
				errCh <- err
				return
			}
			if !ok || !(bytes.Equal(v, a) || bytes.Equal(v, b)) {
				errCh <- fmt.Errorf("torn read: ok=%v len=%d", ok, len(v))
			}
		}()
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		t.Error(err)
	}
}

func TestMemoryStorage(t *testing.T) {
	s := NewMemoryStorage()
	assert.Equal(t, SecurityLevelInMemory, s.SecurityLevel())
	testStorageContract(t, s)
	testStorageConcurrency(t, s)
}

func TestBadgerStorage(t *testing.T) {
	s, err := NewBadgerStorage(BadgerOptions{InMemory: true})
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, SecurityLevelStandard, s.SecurityLevel())
	testStorageContract(t, s)
	testStorageConcurrency(t, s)
}

func TestBadgerStorageEncryptedOnDisk(t *testing.T) {
	dir := t.TempDir()
	key := bytes.Repeat([]byte{7}, 32)

	s, err := NewBadgerStorage(BadgerOptions{Path: dir, EncryptionKey: key})
	require.NoError(t, err)
	require.NoError(t, s.Set(context.Background(), "key-1", []byte("secret")))
	require.NoError(t, s.Close())

	reopened, err := NewBadgerStorage(BadgerOptions{Path: dir, EncryptionKey: key})
	require.NoError(t, err)
	defer reopened.Close()

	got, ok, err := reopened.Get(context.Background(), "key-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("secret"), got)
}

func TestBadgerStorageRequiresPath(t *testing.T) {
	_, err := NewBadgerStorage(BadgerOptions{})
	assert.Error(t, err)
}

func TestRedisStorage(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	// 前缀之外的 key 不受影响
	require.NoError(t, client.Set(context.Background(), "other:key", "v", 0).Err())

	s := NewRedisStorage(client, "walletkit:")
	testStorageContract(t, s)
	testStorageConcurrency(t, s)

	assert.True(t, mr.Exists("other:key"))
}

func TestConsulStorage(t *testing.T) {
	addr := os.Getenv("WALLETKIT_TEST_CONSUL")
	if addr == "" {
		t.Skip("Skipping Consul storage tests - set WALLETKIT_TEST_CONSUL to a running Consul agent")
	}

	s, err := NewConsulStorage(addr, "walletkit-test")
	require.NoError(t, err)
	testStorageContract(t, s)
	testStorageConcurrency(t, s)
}

func TestPostgreSQLStorage(t *testing.T) {
	dsn := os.Getenv("WALLETKIT_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("Skipping PostgreSQL storage tests - set WALLETKIT_TEST_POSTGRES_DSN")
	}

	s, err := OpenPostgreSQLStorage(context.Background(), dsn)
	require.NoError(t, err)
	defer s.Close()

	testStorageContract(t, s)
	testStorageConcurrency(t, s)
}

func TestSecurityLevelString(t *testing.T) {
	assert.Equal(t, "in_memory", SecurityLevelInMemory.String())
	assert.Equal(t, "standard", SecurityLevelStandard.String())
	assert.Equal(t, "hardware", SecurityLevelHardware.String())
}
