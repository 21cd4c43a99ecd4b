package crypto

import (
	"encoding/json"

	"github.com/SafeMPC/flow-wallet-kit/internal/types"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/pkg/errors"
)

// EthereumAddress 通过 Keccak256(X || Y) 的后 20 字节生成 EIP-55 地址
func EthereumAddress(publicKey []byte) (common.Address, error) {
	pub, err := NormalizePublicKey(publicKey)
	if err != nil {
		return common.Address{}, err
	}
	hash := ethcrypto.Keccak256(pub)
	return common.BytesToAddress(hash[12:]), nil
}

// IsValidEVMAddress 判断字符串是否是合法的 0x 前缀 20 字节十六进制地址
func IsValidEVMAddress(address string) bool {
	if len(address) != 42 {
		return false
	}
	return common.IsHexAddress(address)
}

// EthereumSignDigest 对 32 字节摘要做可恢复签名，返回 r || s || v（v = 27/28）
func EthereumSignDigest(privateKey []byte, digest []byte) ([]byte, error) {
	if len(digest) != 32 {
		return nil, errors.Wrapf(types.ErrInvalidEthereumMessage, "digest must be 32 bytes, got %d", len(digest))
	}
	priv, err := ethcrypto.ToECDSA(privateKey)
	if err != nil {
		return nil, errors.Wrap(types.ErrInvalidPrivateKey, err.Error())
	}
	sig, err := ethcrypto.Sign(digest, priv)
	if err != nil {
		return nil, errors.Wrap(types.ErrSign, err.Error())
	}
	sig[64] += 27
	return sig, nil
}

// EthereumPersonalHash EIP-191 personal_sign 摘要
func EthereumPersonalHash(message []byte) []byte {
	return accounts.TextHash(message)
}

// EthereumTypedDataHash 计算 EIP-712 结构化数据摘要
func EthereumTypedDataHash(typedDataJSON []byte) ([]byte, error) {
	var typedData apitypes.TypedData
	if err := json.Unmarshal(typedDataJSON, &typedData); err != nil {
		return nil, errors.Wrap(types.ErrInvalidEthereumTypedData, err.Error())
	}
	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return nil, errors.Wrap(types.ErrInvalidEthereumTypedData, err.Error())
	}
	return hash, nil
}

// EthereumRecoverAddress 从摘要与 65 字节签名（v = 27/28 或 0/1）恢复签名者地址
func EthereumRecoverAddress(digest []byte, sig []byte) (common.Address, error) {
	if len(digest) != 32 {
		return common.Address{}, errors.Wrapf(types.ErrInvalidEthereumMessage, "digest must be 32 bytes, got %d", len(digest))
	}
	if len(sig) != 65 {
		return common.Address{}, errors.Errorf("invalid signature length: %d", len(sig))
	}
	normalized := make([]byte, 65)
	copy(normalized, sig)
	if normalized[64] >= 27 {
		normalized[64] -= 27
	}
	pub, err := ethcrypto.SigToPub(digest, normalized)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "failed to recover public key")
	}
	return ethcrypto.PubkeyToAddress(*pub), nil
}
