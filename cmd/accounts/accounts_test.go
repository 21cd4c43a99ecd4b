package accounts

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/SafeMPC/flow-wallet-kit/internal/api"
	"github.com/SafeMPC/flow-wallet-kit/internal/crypto"
	"github.com/SafeMPC/flow-wallet-kit/internal/flow"
	"github.com/SafeMPC/flow-wallet-kit/internal/indexer"
	"github.com/SafeMPC/flow-wallet-kit/internal/test"
	"github.com/SafeMPC/flow-wallet-kit/internal/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindAccounts(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server, up *test.Upstreams) {
		d, err := crypto.GenerateScalar()
		require.NoError(t, err)
		pub, err := crypto.PublicKeyFromScalar(crypto.ECDSASecp256k1, d)
		require.NoError(t, err)
		pubHex := hex.EncodeToString(pub)

		up.Indexer.AddRows(pubHex,
			indexer.AccountRow{Address: "0x01", KeyID: 0, Weight: 1000, Signing: "ECDSA_secp256k1", Hashing: "SHA2_256"},
			indexer.AccountRow{Address: "0x02", KeyID: 3, Weight: 1, Signing: "ECDSA_secp256k1", Hashing: "SHA2_256"},
		)

		var buf bytes.Buffer
		require.NoError(t, findAccounts(t.Context(), s, "testnet", pubHex, true, &buf))

		var res types.AccountsByKeyResponse
		require.NoError(t, json.Unmarshal(buf.Bytes(), &res))
		require.Len(t, res.Accounts, 1)
		assert.Equal(t, "0x0000000000000001", res.Accounts[0].Address)

		buf.Reset()
		require.NoError(t, findAccounts(t.Context(), s, "flow-testnet", pubHex, false, &buf))
		require.NoError(t, json.Unmarshal(buf.Bytes(), &res))
		assert.Len(t, res.Accounts, 2)

		err = findAccounts(t.Context(), s, "mainnet", pubHex, true, &buf)
		assert.True(t, errors.Is(err, types.ErrIncorrectKeyIndexerURL))
	})
}

func TestShowAccount(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server, up *test.Upstreams) {
		addr := flow.HexToAddress("0xf8d6e0586b0a20c7")
		up.Access.AddAccount(flow.Account{Address: addr, Balance: 42})
		up.Access.SetCOA(addr, "00000000000000000000000000000000000000ff")

		var buf bytes.Buffer
		require.NoError(t, showAccount(t.Context(), s, "emulator", "f8d6e0586b0a20c7", true, &buf))

		var res types.AccountResponse
		require.NoError(t, json.Unmarshal(buf.Bytes(), &res))
		assert.Equal(t, "0xf8d6e0586b0a20c7", res.Address)
		assert.Equal(t, uint64(42), res.Balance)
		require.NotNil(t, res.COA)
		assert.Equal(t, "0x00000000000000000000000000000000000000ff", res.COA.Address)

		err := showAccount(t.Context(), s, "emulator", "0x99", false, &buf)
		assert.True(t, errors.Is(err, types.ErrAccountNotFound))

		err = showAccount(t.Context(), s, "emulator", "zz", false, &buf)
		assert.True(t, errors.Is(err, types.ErrInvalidAddress))
	})
}
