package crypto

import (
	"encoding/hex"
	"testing"

	"github.com/SafeMPC/flow-wallet-kit/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestSignAndVerify(t *testing.T) {
	d, err := GenerateScalar()
	require.NoError(t, err)

	for _, algo := range AllSigningAlgorithms {
		t.Run(algo.String(), func(t *testing.T) {
			pub, err := PublicKeyFromScalar(algo, d)
			require.NoError(t, err)
			assert.Len(t, pub, PublicKeyLength)

			digest, err := Hash(SHA2_256, []byte("hello flow"))
			require.NoError(t, err)

			sig, err := SignDigest(algo, d, digest)
			require.NoError(t, err)
			assert.Len(t, sig, SignatureLength)
			assert.True(t, VerifyDigest(algo, pub, digest, sig))

			tampered := append([]byte(nil), sig...)
			tampered[10] ^= 0xff
			assert.False(t, VerifyDigest(algo, pub, digest, tampered))

			other, err := Hash(SHA2_256, []byte("hello evm"))
			require.NoError(t, err)
			assert.False(t, VerifyDigest(algo, pub, other, sig))
		})
	}
}

func TestVerifyDigestRejectsMalformedInput(t *testing.T) {
	digest, err := Hash(SHA3_256, []byte("x"))
	require.NoError(t, err)

	assert.False(t, VerifyDigest(ECDSAP256, make([]byte, 10), digest, make([]byte, 64)))
	assert.False(t, VerifyDigest(ECDSAP256, make([]byte, 64), digest, make([]byte, 64)))
	assert.False(t, VerifyDigest(ECDSASecp256k1, make([]byte, 64), digest, make([]byte, 12)))
	assert.False(t, VerifyDigest(UnknownSigningAlgorithm, make([]byte, 64), digest, make([]byte, 64)))
}

func TestPublicKeyFromScalarInvalid(t *testing.T) {
	_, err := PublicKeyFromScalar(ECDSAP256, make([]byte, 32))
	assert.ErrorIs(t, err, types.ErrInvalidPrivateKey)

	_, err = PublicKeyFromScalar(ECDSASecp256k1, []byte{1, 2, 3})
	assert.ErrorIs(t, err, types.ErrInvalidPrivateKey)

	_, err = PublicKeyFromScalar(UnknownSigningAlgorithm, make([]byte, 32))
	assert.ErrorIs(t, err, types.ErrInvalidSignatureAlgorithm)
}

func TestHashAlgorithms(t *testing.T) {
	sum, err := Hash(SHA2_256, []byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", hex.EncodeToString(sum))

	sum, err = Hash(SHA3_256, []byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, "3a985da74fe225b2045c172d6bd390bd855f086e3e9d525b46bfe24511431532", hex.EncodeToString(sum))

	for _, algo := range []HashingAlgorithm{SHA2_384, SHA3_384, Keccak256} {
		_, err := Hash(algo, []byte("abc"))
		assert.NoError(t, err, algo.String())
	}

	_, err = Hash(HashingAlgorithm(99), []byte("abc"))
	assert.ErrorIs(t, err, types.ErrUnsupportedHashAlgorithm)
}

func TestParseDerivationPath(t *testing.T) {
	indices, err := ParseDerivationPath(DefaultFlowPath)
	require.NoError(t, err)
	assert.Equal(t, []uint32{44 | HardenedOffset, 539 | HardenedOffset, HardenedOffset, 0, 0}, indices)
	assert.Equal(t, DefaultFlowPath, FormatDerivationPath(indices))

	_, err = ParseDerivationPath("")
	assert.Error(t, err)
	_, err = ParseDerivationPath("m/44'/abc")
	assert.Error(t, err)
	_, err = ParseDerivationPath("m//0")
	assert.Error(t, err)
}

func TestWithAddressIndex(t *testing.T) {
	path, err := WithAddressIndex(DefaultFlowPath, 7)
	require.NoError(t, err)
	assert.Equal(t, "m/44'/539'/0'/0/7", path)

	path, err = WithAddressIndex("m/44'/60'/3'", 1)
	require.NoError(t, err)
	assert.Equal(t, "m/44'/60'/1'", path)

	_, err = WithAddressIndex("m", 1)
	assert.Error(t, err)
}

func TestDerivePrivateKeyVectors(t *testing.T) {
	seed := mustHex(t, "000102030405060708090a0b0c0d0e0f")

	tests := []struct {
		algo SigningAlgorithm
		path string
		want string
	}{
		{ECDSASecp256k1, "m", "e8f32e723decf4051aefac8e2c93c9c5b214313817cdb01a1494b917c8436b35"},
		{ECDSASecp256k1, "m/0'", "edb2e14f9ee77d26dd93b4ecede8d16ed408ce149b6cd80b0715a2d911a0afea"},
		{ECDSAP256, "m", "612091aaa12e22dd2abef664f8a01a82cae99ad7441b7ef8110424915c268bc2"},
		{ECDSAP256, "m/0'", "6939694369114c67917a182c59ddb8cafc3004e63ca5d3b84403ba8613debc0c"},
	}

	for _, tt := range tests {
		t.Run(tt.algo.String()+tt.path, func(t *testing.T) {
			key, err := DerivePrivateKey(tt.algo, seed, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, hex.EncodeToString(key))
		})
	}
}

func TestDerivePrivateKeyNonHardened(t *testing.T) {
	seed := mustHex(t, "000102030405060708090a0b0c0d0e0f")

	for _, algo := range AllSigningAlgorithms {
		a, err := DerivePrivateKey(algo, seed, "m/44'/539'/0'/0/0")
		require.NoError(t, err)
		b, err := DerivePrivateKey(algo, seed, "m/44'/539'/0'/0/1")
		require.NoError(t, err)
		assert.NotEqual(t, a, b)

		_, err = PublicKeyFromScalar(algo, a)
		assert.NoError(t, err)
	}
}

func TestEthereumHelpers(t *testing.T) {
	priv := make([]byte, 32)
	priv[31] = 1

	pub, err := PublicKeyFromScalar(ECDSASecp256k1, priv)
	require.NoError(t, err)

	addr, err := EthereumAddress(pub)
	require.NoError(t, err)
	assert.Equal(t, "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf", addr.Hex())

	digest := EthereumPersonalHash([]byte("hello"))
	sig, err := EthereumSignDigest(priv, digest)
	require.NoError(t, err)
	require.Len(t, sig, 65)
	assert.Contains(t, []byte{27, 28}, sig[64])

	recovered, err := EthereumRecoverAddress(digest, sig)
	require.NoError(t, err)
	assert.Equal(t, addr, recovered)

	_, err = EthereumSignDigest(priv, []byte("short"))
	assert.ErrorIs(t, err, types.ErrInvalidEthereumMessage)

	_, err = EthereumTypedDataHash([]byte("{not json"))
	assert.ErrorIs(t, err, types.ErrInvalidEthereumTypedData)

	assert.True(t, IsValidEVMAddress("0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf"))
	assert.False(t, IsValidEVMAddress("7E5F4552091A69125d5DfCb7b8C2659029395Bdf"))
	assert.False(t, IsValidEVMAddress("0x1234"))
}

func TestEthereumTypedDataHash(t *testing.T) {
	typed := `{
		"types": {
			"EIP712Domain": [{"name": "name", "type": "string"}, {"name": "chainId", "type": "uint256"}],
			"Mail": [{"name": "contents", "type": "string"}]
		},
		"primaryType": "Mail",
		"domain": {"name": "Flow Wallet", "chainId": "747"},
		"message": {"contents": "hello"}
	}`

	hash, err := EthereumTypedDataHash([]byte(typed))
	require.NoError(t, err)
	assert.Len(t, hash, 32)
}

func TestNormalizePublicKey(t *testing.T) {
	priv := make([]byte, 32)
	priv[31] = 9
	pub, err := PublicKeyFromScalar(ECDSAP256, priv)
	require.NoError(t, err)

	prefixed := append([]byte{0x04}, pub...)
	normalized, err := NormalizePublicKey(prefixed)
	require.NoError(t, err)
	assert.Equal(t, pub, normalized)

	decoded, err := DecodePublicKeyHex("0x" + hex.EncodeToString(pub))
	require.NoError(t, err)
	assert.Equal(t, pub, decoded)

	_, err = NormalizePublicKey([]byte{1, 2})
	assert.Error(t, err)
}
