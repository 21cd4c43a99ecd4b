package keys

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"

	"github.com/SafeMPC/flow-wallet-kit/internal/types"
	"github.com/pkg/errors"
	"golang.org/x/crypto/pbkdf2"
)

const (
	keystoreVersion = 1
	keystoreCipher  = "aes-256-gcm"
	keystoreKDF     = "pbkdf2"
	keystorePRF     = "hmac-sha256"
	keystoreDKLen   = 32
)

// kdfIterations PBKDF2 迭代次数，测试中会调低
var kdfIterations = 262144

// envelope 持久化的 keystore 信封
type envelope struct {
	Version int          `json:"version"`
	Type    KeyType      `json:"type"`
	ID      string       `json:"id"`
	Crypto  cryptoParams `json:"crypto"`
}

type cryptoParams struct {
	Cipher       string       `json:"cipher"`
	Ciphertext   string       `json:"ciphertext"`
	CipherParams cipherParams `json:"cipherparams"`
	KDF          string       `json:"kdf"`
	KDFParams    kdfParams    `json:"kdfparams"`
}

type cipherParams struct {
	IV string `json:"iv"`
}

type kdfParams struct {
	DKLen int    `json:"dklen"`
	Salt  string `json:"salt"`
	C     int    `json:"c"`
	PRF   string `json:"prf"`
}

// sealEnvelope 将密钥载荷以口令加密并封装为 JSON
func sealEnvelope(id string, keyType KeyType, password string, payload interface{}) ([]byte, error) {
	plaintext, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal key payload")
	}

	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		return nil, errors.Wrap(err, "failed to generate salt")
	}
	key := pbkdf2.Key([]byte(password), salt, kdfIterations, keystoreDKLen, sha256.New)

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	iv := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, errors.Wrap(err, "failed to generate iv")
	}

	// 类型标签与 ID 作为 GCM 附加数据
	ciphertext := gcm.Seal(nil, iv, plaintext, additionalData(id, keyType))

	env := envelope{
		Version: keystoreVersion,
		Type:    keyType,
		ID:      id,
		Crypto: cryptoParams{
			Cipher:       keystoreCipher,
			Ciphertext:   hex.EncodeToString(ciphertext),
			CipherParams: cipherParams{IV: hex.EncodeToString(iv)},
			KDF:          keystoreKDF,
			KDFParams: kdfParams{
				DKLen: keystoreDKLen,
				Salt:  hex.EncodeToString(salt),
				C:     kdfIterations,
				PRF:   keystorePRF,
			},
		},
	}
	return json.Marshal(env)
}

// parseEnvelope 解析信封头（不解密）
func parseEnvelope(blob []byte) (*envelope, error) {
	var env envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return nil, errors.Wrap(err, "failed to parse keystore envelope")
	}
	if env.Version != keystoreVersion {
		return nil, errors.Errorf("unsupported keystore version %d", env.Version)
	}
	if env.Crypto.Cipher != keystoreCipher || env.Crypto.KDF != keystoreKDF {
		return nil, errors.Errorf("unsupported keystore crypto %s/%s", env.Crypto.Cipher, env.Crypto.KDF)
	}
	return &env, nil
}

// open 解密信封载荷，口令错误返回 ErrInvalidPassword
func (env *envelope) open(password string, payload interface{}) error {
	salt, err := hex.DecodeString(env.Crypto.KDFParams.Salt)
	if err != nil {
		return errors.Wrap(err, "failed to decode salt")
	}
	iv, err := hex.DecodeString(env.Crypto.CipherParams.IV)
	if err != nil {
		return errors.Wrap(err, "failed to decode iv")
	}
	ciphertext, err := hex.DecodeString(env.Crypto.Ciphertext)
	if err != nil {
		return errors.Wrap(err, "failed to decode ciphertext")
	}
	if env.Crypto.KDFParams.C <= 0 || env.Crypto.KDFParams.DKLen != keystoreDKLen {
		return errors.New("invalid keystore kdf params")
	}

	key := pbkdf2.Key([]byte(password), salt, env.Crypto.KDFParams.C, env.Crypto.KDFParams.DKLen, sha256.New)
	gcm, err := newGCM(key)
	if err != nil {
		return err
	}
	if len(iv) != gcm.NonceSize() {
		return errors.New("invalid keystore iv")
	}

	plaintext, err := gcm.Open(nil, iv, ciphertext, additionalData(env.ID, env.Type))
	if err != nil {
		return errors.Wrap(types.ErrInvalidPassword, "failed to decrypt keystore")
	}
	if err := json.Unmarshal(plaintext, payload); err != nil {
		return errors.Wrap(err, "failed to decode key payload")
	}
	return nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cipher")
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create gcm")
	}
	return gcm, nil
}

func additionalData(id string, keyType KeyType) []byte {
	return []byte(string(keyType) + ":" + id)
}
