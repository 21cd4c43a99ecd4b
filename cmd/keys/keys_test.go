package keys

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/SafeMPC/flow-wallet-kit/internal/api"
	"github.com/SafeMPC/flow-wallet-kit/internal/keys"
	"github.com/SafeMPC/flow-wallet-kit/internal/test"
	"github.com/SafeMPC/flow-wallet-kit/internal/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "correct horse battery staple"

func decode(t *testing.T, buf *bytes.Buffer) keyOutput {
	t.Helper()
	var out keyOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	return out
}

func TestCreateShowDeleteKey(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server, _ *test.Upstreams) {
		ctx := t.Context()

		var buf bytes.Buffer
		require.NoError(t, createKey(ctx, s, "seed_phrase", 24, testPassword, &buf))
		created := decode(t, &buf)

		assert.Equal(t, keys.KeyTypeSeedPhrase, created.Type)
		assert.Len(t, created.Mnemonic, 24)
		assert.Len(t, created.PublicKeys, 2)
		assert.True(t, strings.HasPrefix(created.EVMAddress, "0x"))

		buf.Reset()
		require.NoError(t, listKeys(ctx, s, &buf))
		assert.Equal(t, created.ID+"\n", buf.String())

		buf.Reset()
		require.NoError(t, showKey(ctx, s, created.ID, testPassword, &buf))
		shown := decode(t, &buf)
		assert.Equal(t, created.PublicKeys, shown.PublicKeys)
		assert.Empty(t, shown.Mnemonic)

		err := showKey(ctx, s, created.ID, "wrong", &buf)
		assert.True(t, errors.Is(err, types.ErrInvalidPassword))

		require.NoError(t, deleteKey(ctx, s, created.ID, testPassword))
		err = showKey(ctx, s, created.ID, testPassword, &buf)
		assert.True(t, errors.Is(err, types.ErrEmptyKeychain))
	})
}

func TestCreateHardwareKey(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server, _ *test.Upstreams) {
		var buf bytes.Buffer
		require.NoError(t, createKey(t.Context(), s, "hardware", 0, testPassword, &buf))
		created := decode(t, &buf)

		assert.True(t, created.HardwareBacked)
		assert.Len(t, created.PublicKeys, 1)
		assert.Empty(t, created.EVMAddress)

		require.NoError(t, deleteKey(t.Context(), s, created.ID, testPassword))
	})
}

func TestRestoreRawKey(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server, _ *test.Upstreams) {
		secret := "0x1111111111111111111111111111111111111111111111111111111111111111"

		var buf bytes.Buffer
		require.NoError(t, restoreKey(t.Context(), s, "private_key", secret, testPassword, &buf))
		first := decode(t, &buf)
		assert.Equal(t, keys.KeyTypeRaw, first.Type)

		buf.Reset()
		require.NoError(t, restoreKey(t.Context(), s, "raw", secret, testPassword, &buf))
		assert.Equal(t, first.ID, decode(t, &buf).ID)

		err := restoreKey(t.Context(), s, "raw", "not hex", testPassword, &buf)
		assert.True(t, errors.Is(err, types.ErrInvalidPrivateKey))

		err = restoreKey(t.Context(), s, "paper", secret, testPassword, &buf)
		assert.True(t, errors.Is(err, types.ErrInvalidKeyType))
	})
}
