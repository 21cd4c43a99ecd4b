package crypto

import (
	"crypto/sha256"
	"crypto/sha512"
	"hash"

	"github.com/SafeMPC/flow-wallet-kit/internal/types"
	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"
)

// NewHasher 按算法创建哈希器
func NewHasher(algo HashingAlgorithm) (hash.Hash, error) {
	switch algo {
	case SHA2_256:
		return sha256.New(), nil
	case SHA2_384:
		return sha512.New384(), nil
	case SHA3_256:
		return sha3.New256(), nil
	case SHA3_384:
		return sha3.New384(), nil
	case Keccak256:
		return sha3.NewLegacyKeccak256(), nil
	default:
		return nil, errors.Wrapf(types.ErrUnsupportedHashAlgorithm, "hashing algorithm %s (%d)", algo, int(algo))
	}
}

// Hash 计算 data 的摘要
func Hash(algo HashingAlgorithm, data []byte) ([]byte, error) {
	h, err := NewHasher(algo)
	if err != nil {
		return nil, err
	}
	h.Write(data)
	return h.Sum(nil), nil
}
