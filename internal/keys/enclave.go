package keys

import (
	"sync"

	"github.com/SafeMPC/flow-wallet-kit/internal/crypto"
	"github.com/SafeMPC/flow-wallet-kit/internal/storage"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Enclave 不可导出私钥的 P-256 密钥容器（安全芯片、HSM 等）
type Enclave interface {
	// GenerateKey 在容器内生成新密钥，返回其标签
	GenerateKey() (label string, err error)
	// PublicKey 返回 64 字节 X || Y
	PublicKey(label string) ([]byte, error)
	// SignDigest 对摘要签名，返回 r || s
	SignDigest(label string, digest []byte) ([]byte, error)
	// DeleteKey 销毁容器内的密钥
	DeleteKey(label string) error
	// SecurityLevel 容器的安全等级
	SecurityLevel() storage.SecurityLevel
}

// SoftwareEnclave 进程内的 Enclave 实现，私钥只在进程内存中且不可导出
type SoftwareEnclave struct {
	mu   sync.RWMutex
	keys map[string][]byte
}

var _ Enclave = (*SoftwareEnclave)(nil)

// NewSoftwareEnclave 创建进程内 Enclave
func NewSoftwareEnclave() *SoftwareEnclave {
	return &SoftwareEnclave{keys: make(map[string][]byte)}
}

func (e *SoftwareEnclave) GenerateKey() (string, error) {
	scalar, err := crypto.GenerateScalar()
	if err != nil {
		return "", err
	}
	label := uuid.NewString()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.keys[label] = scalar
	return label, nil
}

func (e *SoftwareEnclave) scalar(label string) ([]byte, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	scalar, ok := e.keys[label]
	if !ok {
		return nil, errors.Errorf("enclave key %s not found", label)
	}
	return scalar, nil
}

func (e *SoftwareEnclave) PublicKey(label string) ([]byte, error) {
	scalar, err := e.scalar(label)
	if err != nil {
		return nil, err
	}
	return crypto.PublicKeyFromScalar(crypto.ECDSAP256, scalar)
}

func (e *SoftwareEnclave) SignDigest(label string, digest []byte) ([]byte, error) {
	scalar, err := e.scalar(label)
	if err != nil {
		return nil, err
	}
	return crypto.SignDigest(crypto.ECDSAP256, scalar, digest)
}

func (e *SoftwareEnclave) DeleteKey(label string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.keys, label)
	return nil
}

func (e *SoftwareEnclave) SecurityLevel() storage.SecurityLevel {
	return storage.SecurityLevelInMemory
}

// PKCS11Config PKCS#11 Enclave 参数
type PKCS11Config struct {
	// Library PKCS#11 模块路径，例如 /usr/lib/softhsm/libsofthsm2.so
	Library string
	// SlotIndex 使用第几个带令牌的 slot
	SlotIndex int
	// PIN 用户 PIN
	PIN string
}
