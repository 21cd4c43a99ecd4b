// Package keys 实现 Flow 钱包的密钥抽象：原始私钥（RawKey）、助记词（SeedPhraseKey）
// 与硬件密钥（HardwareKey）。三种密钥都实现 Key 接口，并通过 storage.Storage 以口令加密的
// keystore 信封持久化，信封中的类型标签决定 Get 时恢复成哪种密钥。
package keys

import (
	"context"
	"encoding/hex"
	"strings"

	"github.com/SafeMPC/flow-wallet-kit/internal/crypto"
	"github.com/SafeMPC/flow-wallet-kit/internal/storage"
	"github.com/SafeMPC/flow-wallet-kit/internal/types"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// KeyType 密钥类型标签
type KeyType string

const (
	KeyTypeRaw        KeyType = "raw"
	KeyTypeSeedPhrase KeyType = "seed_phrase"
	KeyTypeHardware   KeyType = "hardware"
)

// ParseKeyType 解析密钥类型
func ParseKeyType(s string) (KeyType, error) {
	switch KeyType(strings.ToLower(strings.TrimSpace(s))) {
	case KeyTypeRaw, "private_key", "private-key":
		return KeyTypeRaw, nil
	case KeyTypeSeedPhrase, "seed-phrase", "mnemonic":
		return KeyTypeSeedPhrase, nil
	case KeyTypeHardware, "secure_enclave", "hsm":
		return KeyTypeHardware, nil
	}
	return "", errors.Wrapf(types.ErrInvalidKeyType, "key type %q", s)
}

// Key 统一的签名密钥接口
type Key interface {
	// ID 稳定标识，默认取公钥编码
	ID() string
	Type() KeyType
	IsHardwareBacked() bool
	// SupportedSigningAlgorithms 可以物化公钥的签名算法
	SupportedSigningAlgorithms() []crypto.SigningAlgorithm
	// PublicKey 64 字节 X || Y，不支持的算法返回 nil
	PublicKey(algo crypto.SigningAlgorithm) []byte
	// PrivateKey 32 字节私钥，HardwareKey 永远返回 nil
	PrivateKey(algo crypto.SigningAlgorithm) []byte
	// Sign 先按 hashAlgo 计算摘要再签名，返回 r || s
	Sign(data []byte, signAlgo crypto.SigningAlgorithm, hashAlgo crypto.HashingAlgorithm) ([]byte, error)
	// IsValidSignature 任何校验失败都返回 false
	IsValidSignature(signature []byte, message []byte, signAlgo crypto.SigningAlgorithm, hashAlgo crypto.HashingAlgorithm) bool
	// Store 以口令加密后写入存储
	Store(ctx context.Context, id string, password string) error
	// Remove 删除存储中的密钥
	Remove(ctx context.Context, id string) error
	// AllKeys 列出存储中全部密钥 ID
	AllKeys(ctx context.Context) ([]string, error)
}

// keyStoragePrefix 存储中密钥条目的前缀
const keyStoragePrefix = "key-"

func storageKey(id string) string {
	return keyStoragePrefix + id
}

// keyID 取第一个可用公钥的十六进制编码，都不可用时退化为 UUID
func keyID(k Key) string {
	for _, algo := range k.SupportedSigningAlgorithms() {
		if pub := k.PublicKey(algo); len(pub) > 0 {
			return hex.EncodeToString(pub)
		}
	}
	return uuid.NewString()
}

func supports(algos []crypto.SigningAlgorithm, algo crypto.SigningAlgorithm) bool {
	for _, a := range algos {
		if a == algo {
			return true
		}
	}
	return false
}

func signWithScalar(scalar []byte, data []byte, signAlgo crypto.SigningAlgorithm, hashAlgo crypto.HashingAlgorithm) ([]byte, error) {
	if len(scalar) == 0 {
		return nil, errors.Wrap(types.ErrEmptyKey, "no private key material")
	}
	digest, err := crypto.Hash(hashAlgo, data)
	if err != nil {
		return nil, err
	}
	sig, err := crypto.SignDigest(signAlgo, scalar, digest)
	if err != nil {
		return nil, errors.Wrap(types.ErrSign, err.Error())
	}
	return sig, nil
}

func verifyWithPublicKey(pub []byte, signature []byte, message []byte, signAlgo crypto.SigningAlgorithm, hashAlgo crypto.HashingAlgorithm) bool {
	if len(pub) == 0 {
		return false
	}
	digest, err := crypto.Hash(hashAlgo, message)
	if err != nil {
		return false
	}
	return crypto.VerifyDigest(signAlgo, pub, digest, signature)
}

// keyStore 三种密钥共享的持久化实现
type keyStore struct {
	store storage.Storage
}

func (s keyStore) requireStorage() error {
	if s.store == nil {
		return errors.Wrap(types.ErrEmptyKeychain, "storage not configured")
	}
	return nil
}

func (s keyStore) put(ctx context.Context, id string, password string, keyType KeyType, payload interface{}) error {
	if err := s.requireStorage(); err != nil {
		return err
	}
	if id == "" {
		return errors.New("key id is required")
	}
	blob, err := sealEnvelope(id, keyType, password, payload)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, storageKey(id), blob)
}

// Remove 删除存储中的密钥
func (s keyStore) Remove(ctx context.Context, id string) error {
	if err := s.requireStorage(); err != nil {
		return err
	}
	return s.store.Remove(ctx, storageKey(id))
}

// AllKeys 列出存储中全部密钥 ID
func (s keyStore) AllKeys(ctx context.Context) ([]string, error) {
	if err := s.requireStorage(); err != nil {
		return nil, err
	}
	return AllKeys(ctx, s.store)
}

// AllKeys 列出存储中全部密钥 ID
func AllKeys(ctx context.Context, store storage.Storage) ([]string, error) {
	found, err := store.FindKey(ctx, keyStoragePrefix)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list keys")
	}
	ids := make([]string, 0, len(found))
	for _, k := range found {
		if strings.HasPrefix(k, keyStoragePrefix) {
			ids = append(ids, strings.TrimPrefix(k, keyStoragePrefix))
		}
	}
	return ids, nil
}
