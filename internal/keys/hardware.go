package keys

import (
	"context"

	"github.com/SafeMPC/flow-wallet-kit/internal/crypto"
	"github.com/SafeMPC/flow-wallet-kit/internal/storage"
	"github.com/SafeMPC/flow-wallet-kit/internal/types"
	"github.com/pkg/errors"
)

// HardwareKey 由 Enclave 保管的 P-256 密钥，私钥永远不离开 Enclave
type HardwareKey struct {
	keyStore

	enclave   Enclave
	label     string
	publicKey []byte
	id        string
}

var _ Key = (*HardwareKey)(nil)

type hardwarePayload struct {
	Label string `json:"label"`
}

// CreateHardwareKey 在 Enclave 中生成新密钥
func CreateHardwareKey(ctx context.Context, enclave Enclave, store storage.Storage) (*HardwareKey, error) {
	if enclave == nil {
		return nil, errors.Wrap(types.ErrEmptyKey, "enclave not configured")
	}
	label, err := enclave.GenerateKey()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate enclave key")
	}
	return RestoreHardwareKey(label, enclave, store)
}

// RestoreHardwareKey 按标签绑定 Enclave 中已有的密钥
func RestoreHardwareKey(label string, enclave Enclave, store storage.Storage) (*HardwareKey, error) {
	if enclave == nil {
		return nil, errors.Wrap(types.ErrEmptyKey, "enclave not configured")
	}
	if label == "" {
		return nil, errors.Wrap(types.ErrEmptyKey, "enclave key label is empty")
	}
	pub, err := enclave.PublicKey(label)
	if err != nil {
		return nil, errors.Wrap(types.ErrEmptyKey, err.Error())
	}

	k := &HardwareKey{
		keyStore:  keyStore{store: store},
		enclave:   enclave,
		label:     label,
		publicKey: pub,
	}
	k.id = keyID(k)
	return k, nil
}

// Label Enclave 中的密钥标签
func (k *HardwareKey) Label() string {
	return k.label
}

// SecurityLevel Enclave 的安全等级
func (k *HardwareKey) SecurityLevel() storage.SecurityLevel {
	return k.enclave.SecurityLevel()
}

// Destroy 从 Enclave 中销毁密钥并删除存储条目
func (k *HardwareKey) Destroy(ctx context.Context, id string) error {
	if err := k.enclave.DeleteKey(k.label); err != nil {
		return errors.Wrap(err, "failed to delete enclave key")
	}
	if k.store == nil {
		return nil
	}
	return k.Remove(ctx, id)
}

func (k *HardwareKey) ID() string {
	return k.id
}

func (k *HardwareKey) Type() KeyType {
	return KeyTypeHardware
}

func (k *HardwareKey) IsHardwareBacked() bool {
	return true
}

func (k *HardwareKey) SupportedSigningAlgorithms() []crypto.SigningAlgorithm {
	return []crypto.SigningAlgorithm{crypto.ECDSAP256}
}

func (k *HardwareKey) PublicKey(algo crypto.SigningAlgorithm) []byte {
	if algo != crypto.ECDSAP256 {
		return nil
	}
	return append([]byte(nil), k.publicKey...)
}

// PrivateKey 永远返回 nil
func (k *HardwareKey) PrivateKey(crypto.SigningAlgorithm) []byte {
	return nil
}

func (k *HardwareKey) Sign(data []byte, signAlgo crypto.SigningAlgorithm, hashAlgo crypto.HashingAlgorithm) ([]byte, error) {
	if signAlgo != crypto.ECDSAP256 {
		return nil, errors.Wrapf(types.ErrInvalidSignatureAlgorithm, "hardware key does not support %s", signAlgo)
	}
	digest, err := crypto.Hash(hashAlgo, data)
	if err != nil {
		return nil, err
	}
	sig, err := k.enclave.SignDigest(k.label, digest)
	if err != nil {
		return nil, errors.Wrap(types.ErrSign, err.Error())
	}
	return sig, nil
}

func (k *HardwareKey) IsValidSignature(signature []byte, message []byte, signAlgo crypto.SigningAlgorithm, hashAlgo crypto.HashingAlgorithm) bool {
	return verifyWithPublicKey(k.PublicKey(signAlgo), signature, message, signAlgo, hashAlgo)
}

func (k *HardwareKey) Store(ctx context.Context, id string, password string) error {
	return k.put(ctx, id, password, KeyTypeHardware, hardwarePayload{Label: k.label})
}
