package flow

import (
	"encoding/json"
	"testing"

	"github.com/SafeMPC/flow-wallet-kit/internal/crypto"
	"github.com/SafeMPC/flow-wallet-kit/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChainID(t *testing.T) {
	tests := []struct {
		in   string
		want ChainID
	}{
		{"mainnet", Mainnet},
		{"flow-testnet", Testnet},
		{" Emulator ", Emulator},
		{"local", Emulator},
	}
	for _, tt := range tests {
		got, err := ParseChainID(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseChainID("previewnet")
	assert.ErrorIs(t, err, types.ErrUnsupportedChain)

	ids, err := ParseChainIDs([]string{"mainnet", "flow-mainnet", "testnet"})
	require.NoError(t, err)
	assert.Equal(t, []ChainID{Mainnet, Testnet}, ids)
}

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("0x1")
	require.NoError(t, err)
	assert.Equal(t, "0x0000000000000001", addr.Hex())

	addr, err = ParseAddress("f8d6e0586b0a20c7")
	require.NoError(t, err)
	assert.Equal(t, "0xf8d6e0586b0a20c7", addr.String())

	_, err = ParseAddress("0x")
	assert.ErrorIs(t, err, types.ErrInvalidAddress)
	_, err = ParseAddress("0x0011223344556677889")
	assert.ErrorIs(t, err, types.ErrInvalidAddress)
	_, err = ParseAddress("zz")
	assert.ErrorIs(t, err, types.ErrInvalidAddress)

	assert.True(t, HexToAddress("nope").IsEmpty())
}

func TestAddressJSON(t *testing.T) {
	in := struct {
		Address Address `json:"address"`
	}{Address: HexToAddress("0x01cf0e2f2f715450")}

	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"address":"0x01cf0e2f2f715450"}`, string(raw))

	var out struct {
		Address Address `json:"address"`
	}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in.Address, out.Address)
}

func TestAccountKeys(t *testing.T) {
	pub := []byte{1, 2, 3}
	acct := Account{
		Address: HexToAddress("0x1"),
		Keys: []AccountPublicKey{
			{Index: 0, PublicKey: pub, SigAlgo: crypto.ECDSAP256, Weight: 1000},
			{Index: 1, PublicKey: pub, SigAlgo: crypto.ECDSAP256, Weight: 999},
			{Index: 2, PublicKey: pub, SigAlgo: crypto.ECDSAP256, Weight: 1000, Revoked: true},
			{Index: 3, PublicKey: pub, SigAlgo: crypto.ECDSASecp256k1, Weight: 1000},
		},
	}

	matched := acct.MatchingKeys(pub, crypto.ECDSAP256)
	require.Len(t, matched, 1)
	assert.Equal(t, uint32(0), matched[0].Index)
	assert.Empty(t, acct.MatchingKeys([]byte{9}, crypto.ECDSAP256))
	assert.Empty(t, acct.MatchingKeys(nil, crypto.ECDSAP256))
	assert.True(t, acct.HasFullWeightKey())

	acct.MergeKeys([]AccountPublicKey{{Index: 3, Weight: 1}, {Index: 4, Weight: 1}})
	assert.Len(t, acct.Keys, 5)
	k, ok := acct.Key(3)
	require.True(t, ok)
	assert.Equal(t, 1000, k.Weight)
}

func TestNewCOA(t *testing.T) {
	coa, err := NewCOA("0x00000000000000000000000249250a5c27ecab3b", Mainnet)
	require.NoError(t, err)
	assert.Equal(t, Mainnet, coa.ChainID)

	_, err = NewCOA("0x1234", Mainnet)
	assert.ErrorIs(t, err, types.ErrInvalidEVMAddress)
}

func TestParseTokenPermission(t *testing.T) {
	tests := []struct {
		key    string
		grants string
		ok     bool
		want   TokenPermission
	}{
		{"ft:A.7e60df042a9c0868.FlowToken.Vault", "read,transfer", true,
			TokenPermission{Kind: FungibleToken, Identifier: "A.7e60df042a9c0868.FlowToken.Vault", Read: true, Transfer: true}},
		{"nft:A.1d7e57aa55817448.Moments.Collection", "read", true,
			TokenPermission{Kind: NonFungibleToken, Identifier: "A.1d7e57aa55817448.Moments.Collection", Read: true}},
		{"ft:X", "mint, burn,unknown", true, TokenPermission{Kind: FungibleToken, Identifier: "X", Mint: true, Burn: true}},
		{"name", "Game", false, TokenPermission{}},
		{"ft:", "read", false, TokenPermission{}},
		{"sft:X", "read", false, TokenPermission{}},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := ParseTokenPermission(tt.key, tt.grants)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	p := TokenPermission{Kind: FungibleToken, Identifier: "X", Read: true, Burn: true}
	parsed, ok := ParseTokenPermission(TokenPermissionKey(p.Kind, p.Identifier), p.Grants())
	require.True(t, ok)
	assert.Equal(t, p, parsed)
}

func TestSortTokenPermissions(t *testing.T) {
	perms := []TokenPermission{
		{Kind: NonFungibleToken, Identifier: "A"},
		{Kind: FungibleToken, Identifier: "B"},
		{Kind: FungibleToken, Identifier: "A"},
	}
	SortTokenPermissions(perms)
	assert.Equal(t, []TokenPermission{
		{Kind: FungibleToken, Identifier: "A"},
		{Kind: FungibleToken, Identifier: "B"},
		{Kind: NonFungibleToken, Identifier: "A"},
	}, perms)
}
