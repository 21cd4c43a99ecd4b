package keys

import (
	"context"
	"encoding/hex"
	"strings"

	"github.com/SafeMPC/flow-wallet-kit/internal/crypto"
	"github.com/SafeMPC/flow-wallet-kit/internal/storage"
	"github.com/SafeMPC/flow-wallet-kit/internal/types"
	"github.com/pkg/errors"
)

// RawKeyOptions 创建 RawKey 的高级选项
type RawKeyOptions struct {
	// SigningAlgorithms 限制密钥可用的签名算法，为空时支持全部
	SigningAlgorithms []crypto.SigningAlgorithm
}

// RawKey 单个 32 字节私钥标量，同时可用于 P-256 与 secp256k1
type RawKey struct {
	keyStore

	scalar     []byte
	algorithms []crypto.SigningAlgorithm
	id         string
}

var (
	_ Key         = (*RawKey)(nil)
	_ EthereumKey = (*RawKey)(nil)
)

type rawKeyPayload struct {
	PrivateKey string                    `json:"privateKey"`
	Algorithms []crypto.SigningAlgorithm `json:"algorithms"`
}

// CreateRawKey 生成新的随机私钥
func CreateRawKey(store storage.Storage) (*RawKey, error) {
	return CreateRawKeyWithOptions(RawKeyOptions{}, store)
}

// CreateRawKeyWithOptions 按选项生成新的随机私钥
func CreateRawKeyWithOptions(opts RawKeyOptions, store storage.Storage) (*RawKey, error) {
	scalar, err := crypto.GenerateScalar()
	if err != nil {
		return nil, err
	}
	return newRawKey(scalar, opts.SigningAlgorithms, store)
}

// RestoreRawKey 从私钥字节（或其十六进制文本）恢复
func RestoreRawKey(secret []byte, store storage.Storage) (*RawKey, error) {
	if len(secret) == 0 {
		return nil, errors.Wrap(types.ErrEmptyKey, "private key is empty")
	}
	scalar := secret
	if len(secret) != crypto.PrivateKeyLength {
		decoded, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(string(secret)), "0x"))
		if err != nil {
			return nil, errors.Wrap(types.ErrInvalidPrivateKey, "private key must be 32 bytes or hex encoded")
		}
		scalar = decoded
	}
	return newRawKey(scalar, nil, store)
}

func newRawKey(scalar []byte, requested []crypto.SigningAlgorithm, store storage.Storage) (*RawKey, error) {
	if len(scalar) != crypto.PrivateKeyLength {
		return nil, errors.Wrapf(types.ErrInvalidPrivateKey, "private key must be %d bytes, got %d", crypto.PrivateKeyLength, len(scalar))
	}
	if len(requested) == 0 {
		requested = crypto.AllSigningAlgorithms
	}

	algorithms := make([]crypto.SigningAlgorithm, 0, len(requested))
	for _, algo := range requested {
		if _, err := crypto.PublicKeyFromScalar(algo, scalar); err == nil {
			algorithms = append(algorithms, algo)
		}
	}
	if len(algorithms) == 0 {
		return nil, errors.Wrap(types.ErrInvalidPrivateKey, "private key is not valid for any supported curve")
	}

	k := &RawKey{
		keyStore:   keyStore{store: store},
		scalar:     append([]byte(nil), scalar...),
		algorithms: algorithms,
	}
	k.id = keyID(k)
	return k, nil
}

func (k *RawKey) ID() string {
	return k.id
}

func (k *RawKey) Type() KeyType {
	return KeyTypeRaw
}

func (k *RawKey) IsHardwareBacked() bool {
	return false
}

func (k *RawKey) SupportedSigningAlgorithms() []crypto.SigningAlgorithm {
	return append([]crypto.SigningAlgorithm(nil), k.algorithms...)
}

func (k *RawKey) PublicKey(algo crypto.SigningAlgorithm) []byte {
	if !supports(k.algorithms, algo) {
		return nil
	}
	pub, err := crypto.PublicKeyFromScalar(algo, k.scalar)
	if err != nil {
		return nil
	}
	return pub
}

func (k *RawKey) PrivateKey(algo crypto.SigningAlgorithm) []byte {
	if !supports(k.algorithms, algo) {
		return nil
	}
	return append([]byte(nil), k.scalar...)
}

func (k *RawKey) Sign(data []byte, signAlgo crypto.SigningAlgorithm, hashAlgo crypto.HashingAlgorithm) ([]byte, error) {
	if !supports(k.algorithms, signAlgo) {
		return nil, errors.Wrapf(types.ErrInvalidSignatureAlgorithm, "raw key does not support %s", signAlgo)
	}
	return signWithScalar(k.scalar, data, signAlgo, hashAlgo)
}

func (k *RawKey) IsValidSignature(signature []byte, message []byte, signAlgo crypto.SigningAlgorithm, hashAlgo crypto.HashingAlgorithm) bool {
	return verifyWithPublicKey(k.PublicKey(signAlgo), signature, message, signAlgo, hashAlgo)
}

func (k *RawKey) Store(ctx context.Context, id string, password string) error {
	payload := rawKeyPayload{
		PrivateKey: hex.EncodeToString(k.scalar),
		Algorithms: k.algorithms,
	}
	return k.put(ctx, id, password, KeyTypeRaw, payload)
}

func (k *RawKey) ethScalar() ([]byte, error) {
	if !supports(k.algorithms, crypto.ECDSASecp256k1) {
		return nil, errors.Wrap(types.ErrInvalidSignatureAlgorithm, "raw key does not support secp256k1")
	}
	return k.scalar, nil
}

func (k *RawKey) EthAddress() (string, error) {
	return ethAddress(k.ethScalar)
}

func (k *RawKey) EthPublicKey() []byte {
	return ethPublicKey(k.ethScalar)
}

func (k *RawKey) EthPrivateKey() []byte {
	scalar, err := k.ethScalar()
	if err != nil {
		return nil
	}
	return append([]byte(nil), scalar...)
}

func (k *RawKey) EthSignDigest(digest []byte) ([]byte, error) {
	return ethSignDigest(k.ethScalar, digest)
}

func (k *RawKey) EthSignPersonalMessage(message []byte) ([]byte, error) {
	return k.EthSignDigest(crypto.EthereumPersonalHash(message))
}

func (k *RawKey) EthSignTypedData(typedDataJSON []byte) ([]byte, error) {
	digest, err := crypto.EthereumTypedDataHash(typedDataJSON)
	if err != nil {
		return nil, err
	}
	return k.EthSignDigest(digest)
}

func rawKeyFromPayload(p rawKeyPayload, store storage.Storage) (*RawKey, error) {
	scalar, err := hex.DecodeString(p.PrivateKey)
	if err != nil {
		return nil, errors.Wrap(types.ErrInvalidPrivateKey, "failed to decode stored private key")
	}
	return newRawKey(scalar, p.Algorithms, store)
}
