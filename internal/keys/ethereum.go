package keys

import (
	"github.com/SafeMPC/flow-wallet-kit/internal/crypto"
)

// EthereumKey 可在 EVM 上签名的密钥（RawKey、SeedPhraseKey）
type EthereumKey interface {
	Key

	// EthAddress EIP-55 校验和地址
	EthAddress() (string, error)
	// EthPublicKey 65 字节非压缩公钥（0x04 || X || Y）
	EthPublicKey() []byte
	// EthPrivateKey 32 字节 secp256k1 私钥
	EthPrivateKey() []byte
	// EthSignDigest 对 32 字节摘要签名，返回 r || s || v，v ∈ {27, 28}
	EthSignDigest(digest []byte) ([]byte, error)
	// EthSignPersonalMessage EIP-191 personal_sign
	EthSignPersonalMessage(message []byte) ([]byte, error)
	// EthSignTypedData EIP-712 结构化数据签名
	EthSignTypedData(typedDataJSON []byte) ([]byte, error)
}

// RecoverEthAddress 从摘要与签名恢复签名者地址
func RecoverEthAddress(digest []byte, signature []byte) (string, error) {
	addr, err := crypto.EthereumRecoverAddress(digest, signature)
	if err != nil {
		return "", err
	}
	return addr.Hex(), nil
}

type scalarSource func() ([]byte, error)

func ethAddress(src scalarSource) (string, error) {
	scalar, err := src()
	if err != nil {
		return "", err
	}
	pub, err := crypto.PublicKeyFromScalar(crypto.ECDSASecp256k1, scalar)
	if err != nil {
		return "", err
	}
	addr, err := crypto.EthereumAddress(pub)
	if err != nil {
		return "", err
	}
	return addr.Hex(), nil
}

func ethPublicKey(src scalarSource) []byte {
	scalar, err := src()
	if err != nil {
		return nil
	}
	pub, err := crypto.PublicKeyFromScalar(crypto.ECDSASecp256k1, scalar)
	if err != nil {
		return nil
	}
	return append([]byte{0x04}, pub...)
}

func ethSignDigest(src scalarSource, digest []byte) ([]byte, error) {
	scalar, err := src()
	if err != nil {
		return nil, err
	}
	return crypto.EthereumSignDigest(scalar, digest)
}
