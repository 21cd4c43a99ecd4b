package access_test

import (
	"net/http"
	"testing"

	"github.com/SafeMPC/flow-wallet-kit/internal/access"
	"github.com/SafeMPC/flow-wallet-kit/internal/crypto"
	"github.com/SafeMPC/flow-wallet-kit/internal/flow"
	"github.com/SafeMPC/flow-wallet-kit/internal/metrics"
	"github.com/SafeMPC/flow-wallet-kit/internal/test"
	"github.com/SafeMPC/flow-wallet-kit/internal/types"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContracts() map[flow.ChainID]access.Contracts {
	return map[flow.ChainID]access.Contracts{
		flow.Testnet: {
			HybridCustody:    "0x294e44e1ec6993c6",
			MetadataViews:    "0x631e88ae7f1d7c20",
			FungibleToken:    "0x9a0766d93b6608b7",
			NonFungibleToken: "0x631e88ae7f1d7c20",
			EVM:              "0x8c5303eaa26202d6",
		},
	}
}

func TestGetAccount(t *testing.T) {
	node := test.NewFakeAccessNode(t)

	d, err := crypto.GenerateScalar()
	require.NoError(t, err)
	pub, err := crypto.PublicKeyFromScalar(crypto.ECDSASecp256k1, d)
	require.NoError(t, err)

	addr := flow.HexToAddress("0xe467b9dd11fa00df")
	node.AddAccount(flow.Account{
		Address: addr,
		Balance: 100001000,
		Keys: []flow.AccountPublicKey{
			{Index: 0, PublicKey: pub, SigAlgo: crypto.ECDSASecp256k1, HashAlgo: crypto.SHA2_256, Weight: 1000, SequenceNumber: 7},
			{Index: 1, PublicKey: pub, SigAlgo: crypto.ECDSASecp256k1, HashAlgo: crypto.SHA2_256, Weight: 1000, Revoked: true},
		},
	})

	client := access.NewClient(map[flow.ChainID]string{flow.Testnet: node.URL()})
	account, err := client.GetAccount(t.Context(), flow.Testnet, addr)
	require.NoError(t, err)

	assert.Equal(t, addr, account.Address)
	assert.Equal(t, uint64(100001000), account.Balance)
	require.Len(t, account.Keys, 2)
	assert.Equal(t, pub, account.Keys[0].PublicKey)
	assert.Equal(t, crypto.ECDSASecp256k1, account.Keys[0].SigAlgo)
	assert.Equal(t, crypto.SHA2_256, account.Keys[0].HashAlgo)
	assert.Equal(t, uint64(7), account.Keys[0].SequenceNumber)
	assert.True(t, account.Keys[1].Revoked)
}

func TestGetAccountErrors(t *testing.T) {
	node := test.NewFakeAccessNode(t)
	m := metrics.New()
	client := access.NewClient(map[flow.ChainID]string{flow.Testnet: node.URL()}, access.WithMetrics(m))

	_, err := client.GetAccount(t.Context(), flow.Testnet, flow.HexToAddress("0x01"))
	assert.True(t, errors.Is(err, types.ErrAccountNotFound))

	_, err = client.GetAccount(t.Context(), flow.Mainnet, flow.HexToAddress("0x01"))
	assert.True(t, errors.Is(err, types.ErrUnsupportedChain))

	count, err := testutil.GatherAndCount(m.Registry(), "walletkit_access_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestLinkedAccountsChildMetadata(t *testing.T) {
	node := test.NewFakeAccessNode(t)
	parent := flow.HexToAddress("0x84221fe0294044d7")
	node.SetChildren(parent, map[flow.Address]flow.ChildMetadata{
		flow.HexToAddress("0x1111"): {Name: "Game", Description: "game account", Icon: "https://example.com/game.png"},
		flow.HexToAddress("0x2222"): {Name: "Market"},
	})

	client := access.NewClient(map[flow.ChainID]string{flow.Testnet: node.URL()})
	linked := access.NewLinkedAccounts(client, testContracts())

	children, err := linked.ChildMetadata(t.Context(), flow.Testnet, parent)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "Game", children[flow.HexToAddress("0x1111")].Name)
	assert.Equal(t, "https://example.com/game.png", children[flow.HexToAddress("0x1111")].Icon)
	assert.Equal(t, "Market", children[flow.HexToAddress("0x2222")].Name)

	empty, err := linked.ChildMetadata(t.Context(), flow.Testnet, flow.HexToAddress("0x99"))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestLinkedAccountsChildPermissions(t *testing.T) {
	node := test.NewFakeAccessNode(t)
	parent := flow.HexToAddress("0x84221fe0294044d7")
	node.SetChildren(parent, map[flow.Address]flow.ChildMetadata{
		flow.HexToAddress("0x1111"): {
			Name: "Game",
			Permissions: []flow.TokenPermission{
				{Kind: flow.NonFungibleToken, Identifier: "A.1111.Moments.Collection", Read: true},
				{Kind: flow.FungibleToken, Identifier: "A.7e60df042a9c0868.FlowToken.Vault", Read: true, Transfer: true},
			},
		},
		flow.HexToAddress("0x2222"): {Name: "Market"},
	})

	client := access.NewClient(map[flow.ChainID]string{flow.Testnet: node.URL()})
	linked := access.NewLinkedAccounts(client, testContracts())

	children, err := linked.ChildMetadata(t.Context(), flow.Testnet, parent)
	require.NoError(t, err)

	assert.Equal(t, []flow.TokenPermission{
		{Kind: flow.FungibleToken, Identifier: "A.7e60df042a9c0868.FlowToken.Vault", Read: true, Transfer: true},
		{Kind: flow.NonFungibleToken, Identifier: "A.1111.Moments.Collection", Read: true},
	}, children[flow.HexToAddress("0x1111")].Permissions)
	assert.Empty(t, children[flow.HexToAddress("0x2222")].Permissions)
	assert.Equal(t, "Game", children[flow.HexToAddress("0x1111")].Name)
}

func TestLinkedAccountsEVMAddress(t *testing.T) {
	node := test.NewFakeAccessNode(t)
	addr := flow.HexToAddress("0x84221fe0294044d7")
	node.SetCOA(addr, "000000000000000000000002b87c966bc00bc2c4")

	client := access.NewClient(map[flow.ChainID]string{flow.Testnet: node.URL()})
	linked := access.NewLinkedAccounts(client, testContracts())

	evm, err := linked.EVMAddress(t.Context(), flow.Testnet, addr)
	require.NoError(t, err)
	assert.Equal(t, "0x000000000000000000000002b87c966bc00bc2c4", evm)
	assert.True(t, crypto.IsValidEVMAddress(evm))

	none, err := linked.EVMAddress(t.Context(), flow.Testnet, flow.HexToAddress("0x01"))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLinkedAccountsFailures(t *testing.T) {
	node := test.NewFakeAccessNode(t)
	node.FailChildren(true)
	node.FailCOA(true)

	client := access.NewClient(map[flow.ChainID]string{flow.Testnet: node.URL(), flow.Mainnet: node.URL()})
	linked := access.NewLinkedAccounts(client, testContracts())

	_, err := linked.ChildMetadata(t.Context(), flow.Testnet, flow.HexToAddress("0x01"))
	assert.True(t, errors.Is(err, types.ErrAccessRequestFailed))

	_, err = linked.EVMAddress(t.Context(), flow.Testnet, flow.HexToAddress("0x01"))
	assert.True(t, errors.Is(err, types.ErrAccessRequestFailed))

	_, err = linked.EVMAddress(t.Context(), flow.Mainnet, flow.HexToAddress("0x01"))
	assert.True(t, errors.Is(err, types.ErrUnsupportedChain))
}

func TestExecuteScriptNonBase64Result(t *testing.T) {
	srv := test.NewStaticServer(t, http.StatusOK, `{"value": 1}`)
	client := access.NewClient(map[flow.ChainID]string{flow.Testnet: srv.URL})

	_, err := client.ExecuteScript(t.Context(), flow.Testnet, "access(all) fun main(): Int { return 1 }")
	assert.True(t, errors.Is(err, types.ErrAccessRequestFailed))
}
