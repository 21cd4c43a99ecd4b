//go:build !cgo

package keys

import (
	"github.com/SafeMPC/flow-wallet-kit/internal/storage"
	"github.com/pkg/errors"
)

var errPKCS11Unavailable = errors.New("pkcs11 enclave requires a cgo build")

// PKCS11Enclave 非 cgo 构建下不可用
type PKCS11Enclave struct{}

var _ Enclave = (*PKCS11Enclave)(nil)

// NewPKCS11Enclave 非 cgo 构建下总是返回错误
func NewPKCS11Enclave(PKCS11Config) (*PKCS11Enclave, error) {
	return nil, errPKCS11Unavailable
}

func (e *PKCS11Enclave) Close() error {
	return nil
}

func (e *PKCS11Enclave) GenerateKey() (string, error) {
	return "", errPKCS11Unavailable
}

func (e *PKCS11Enclave) PublicKey(string) ([]byte, error) {
	return nil, errPKCS11Unavailable
}

func (e *PKCS11Enclave) SignDigest(string, []byte) ([]byte, error) {
	return nil, errPKCS11Unavailable
}

func (e *PKCS11Enclave) DeleteKey(string) error {
	return errPKCS11Unavailable
}

func (e *PKCS11Enclave) SecurityLevel() storage.SecurityLevel {
	return storage.SecurityLevelHardware
}
