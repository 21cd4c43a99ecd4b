package accounts_test

import (
	"encoding/hex"
	"net/http"
	"testing"

	"github.com/SafeMPC/flow-wallet-kit/internal/api"
	"github.com/SafeMPC/flow-wallet-kit/internal/api/httperrors"
	"github.com/SafeMPC/flow-wallet-kit/internal/crypto"
	"github.com/SafeMPC/flow-wallet-kit/internal/indexer"
	"github.com/SafeMPC/flow-wallet-kit/internal/test"
	"github.com/SafeMPC/flow-wallet-kit/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPublicKey(t *testing.T) string {
	t.Helper()
	d, err := crypto.GenerateScalar()
	require.NoError(t, err)
	pub, err := crypto.PublicKeyFromScalar(crypto.ECDSAP256, d)
	require.NoError(t, err)
	return hex.EncodeToString(pub)
}

func TestGetAccountsByKey(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server, up *test.Upstreams) {
		pub := newPublicKey(t)
		up.Indexer.AddRows(pub,
			indexer.AccountRow{Address: "0x0000000000000001", KeyID: 0, Weight: 1000, SigAlgo: 2, HashAlgo: 3},
			indexer.AccountRow{Address: "0x0000000000000001", KeyID: 1, Weight: 1000, SigAlgo: 2, HashAlgo: 1},
			indexer.AccountRow{Address: "0x0000000000000002", KeyID: 0, Weight: 500, SigAlgo: 2, HashAlgo: 3},
		)

		res := test.PerformRequest(t, s, http.MethodGet, "/api/v1/networks/testnet/keys/"+pub+"/accounts", nil, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode)

		var response types.AccountsByKeyResponse
		test.ParseResponseAndValidate(t, res, &response)

		assert.Equal(t, "testnet", response.Network)
		require.Len(t, response.Accounts, 1)
		assert.Equal(t, "0x0000000000000001", response.Accounts[0].Address)
		require.Len(t, response.Accounts[0].Keys, 2)
		assert.Equal(t, "ECDSA_P256", response.Accounts[0].Keys[0].SigningAlgorithm)
		assert.Equal(t, pub, response.Accounts[0].Keys[0].PublicKey)

		res = test.PerformRequest(t, s, http.MethodGet, "/api/v1/networks/testnet/keys/"+pub+"/accounts?full_weight=false", nil, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode)
		test.ParseResponseAndValidate(t, res, &response)
		assert.Len(t, response.Accounts, 2)
	})
}

func TestGetAccountsByKeyEmpty(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server, _ *test.Upstreams) {
		res := test.PerformRequest(t, s, http.MethodGet, "/api/v1/networks/emulator/keys/"+newPublicKey(t)+"/accounts", nil, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode)

		var response types.AccountsByKeyResponse
		test.ParseResponseAndValidate(t, res, &response)
		assert.NotNil(t, response.Accounts)
		assert.Empty(t, response.Accounts)
	})
}

func TestGetAccountsByKeyBadRequest(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server, _ *test.Upstreams) {
		pub := newPublicKey(t)

		res := test.PerformRequest(t, s, http.MethodGet, "/api/v1/networks/mainnet/keys/"+pub+"/accounts", nil, nil)
		test.RequireHTTPError(t, res, httperrors.ErrBadRequestUnsupportedNetwork)

		res = test.PerformRequest(t, s, http.MethodGet, "/api/v1/networks/moonnet/keys/"+pub+"/accounts", nil, nil)
		test.RequireHTTPError(t, res, httperrors.ErrBadRequestUnsupportedNetwork)

		res = test.PerformRequest(t, s, http.MethodGet, "/api/v1/networks/testnet/keys/abcd/accounts", nil, nil)
		test.RequireHTTPError(t, res, httperrors.ErrBadRequestInvalidPublicKey)
	})
}

func TestGetAccountsByKeyUpstreamFailure(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server, up *test.Upstreams) {
		up.Indexer.FailWith(http.StatusServiceUnavailable)

		res := test.PerformRequest(t, s, http.MethodGet, "/api/v1/networks/testnet/keys/"+newPublicKey(t)+"/accounts", nil, nil)
		test.RequireHTTPError(t, res, httperrors.ErrBadGatewayUpstream)
	})
}
