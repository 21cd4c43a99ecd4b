package crypto

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"strings"

	"github.com/SafeMPC/flow-wallet-kit/internal/types"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/pkg/errors"
)

const (
	// PrivateKeyLength 私钥标量长度
	PrivateKeyLength = 32
	// PublicKeyLength Flow 公钥编码长度（X || Y，无 0x04 前缀）
	PublicKeyLength = 64
	// SignatureLength Flow 签名长度（r || s）
	SignatureLength = 64
)

// ValidScalar 判断 32 字节标量是否同时是 P-256 与 secp256k1 上的合法私钥
func ValidScalar(d []byte) bool {
	if len(d) != PrivateKeyLength {
		return false
	}
	k := new(big.Int).SetBytes(d)
	if k.Sign() == 0 {
		return false
	}
	return k.Cmp(elliptic.P256().Params().N) < 0 && k.Cmp(btcec.S256().N) < 0
}

// GenerateScalar 生成一个在两条曲线上都合法的随机私钥标量
func GenerateScalar() ([]byte, error) {
	d := make([]byte, PrivateKeyLength)
	for {
		if _, err := rand.Read(d); err != nil {
			return nil, errors.Wrap(err, "failed to read random bytes")
		}
		if ValidScalar(d) {
			return d, nil
		}
	}
}

// PublicKeyFromScalar 根据私钥标量计算指定曲线上的公钥（64 字节 X || Y）
func PublicKeyFromScalar(algo SigningAlgorithm, d []byte) ([]byte, error) {
	switch algo {
	case ECDSAP256:
		priv, err := ecdh.P256().NewPrivateKey(d)
		if err != nil {
			return nil, errors.Wrap(types.ErrInvalidPrivateKey, err.Error())
		}
		return priv.PublicKey().Bytes()[1:], nil
	case ECDSASecp256k1:
		if !validSecp256k1Scalar(d) {
			return nil, errors.Wrap(types.ErrInvalidPrivateKey, "scalar out of range for secp256k1")
		}
		priv := secp256k1.PrivKeyFromBytes(d)
		return priv.PubKey().SerializeUncompressed()[1:], nil
	default:
		return nil, errors.Wrapf(types.ErrInvalidSignatureAlgorithm, "signing algorithm %s", algo)
	}
}

// SignDigest 使用私钥标量对摘要签名，返回 r || s
//
// secp256k1 采用 RFC6979 确定性签名；P-256 使用随机 k。
func SignDigest(algo SigningAlgorithm, d []byte, digest []byte) ([]byte, error) {
	if len(digest) == 0 {
		return nil, errors.Wrap(types.ErrSign, "empty digest")
	}

	switch algo {
	case ECDSAP256:
		priv, err := p256PrivateKey(d)
		if err != nil {
			return nil, err
		}
		r, s, err := ecdsa.Sign(rand.Reader, priv, digest)
		if err != nil {
			return nil, errors.Wrap(types.ErrSign, err.Error())
		}
		return serializeRS(r, s), nil
	case ECDSASecp256k1:
		if !validSecp256k1Scalar(d) {
			return nil, errors.Wrap(types.ErrInvalidPrivateKey, "scalar out of range for secp256k1")
		}
		priv := secp256k1.PrivKeyFromBytes(d)
		// SignCompact 返回 V || R || S
		compact := secpecdsa.SignCompact(priv, digest, false)
		sig := make([]byte, SignatureLength)
		copy(sig, compact[1:])
		return sig, nil
	default:
		return nil, errors.Wrapf(types.ErrInvalidSignatureAlgorithm, "signing algorithm %s", algo)
	}
}

// VerifyDigest 校验 r || s 签名，任何失败都返回 false
func VerifyDigest(algo SigningAlgorithm, publicKey []byte, digest []byte, sig []byte) bool {
	if len(sig) != SignatureLength || len(digest) == 0 {
		return false
	}
	pub, err := NormalizePublicKey(publicKey)
	if err != nil {
		return false
	}

	switch algo {
	case ECDSAP256:
		pk, err := P256PublicKey(pub)
		if err != nil {
			return false
		}
		r := new(big.Int).SetBytes(sig[:32])
		s := new(big.Int).SetBytes(sig[32:])
		return ecdsa.Verify(pk, digest, r, s)
	case ECDSASecp256k1:
		pk, err := secp256k1.ParsePubKey(append([]byte{0x04}, pub...))
		if err != nil {
			return false
		}
		var r, s secp256k1.ModNScalar
		if overflow := r.SetByteSlice(sig[:32]); overflow || r.IsZero() {
			return false
		}
		if overflow := s.SetByteSlice(sig[32:]); overflow || s.IsZero() {
			return false
		}
		return secpecdsa.NewSignature(&r, &s).Verify(digest, pk)
	default:
		return false
	}
}

// P256PublicKey 将 64 字节公钥解析为 ecdsa.PublicKey，并校验点在曲线上
func P256PublicKey(pub []byte) (*ecdsa.PublicKey, error) {
	if len(pub) != PublicKeyLength {
		return nil, errors.Errorf("invalid P-256 public key length: %d", len(pub))
	}
	if _, err := ecdh.P256().NewPublicKey(append([]byte{0x04}, pub...)); err != nil {
		return nil, errors.Wrap(err, "point is not on P-256")
	}
	return &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(pub[:32]),
		Y:     new(big.Int).SetBytes(pub[32:]),
	}, nil
}

// NormalizePublicKey 统一公钥编码为 64 字节 X || Y
// 支持 64 字节原始编码、65 字节 0x04 前缀编码以及 33 字节 secp256k1 压缩编码
func NormalizePublicKey(pub []byte) ([]byte, error) {
	switch {
	case len(pub) == PublicKeyLength:
		return pub, nil
	case len(pub) == 65 && pub[0] == 0x04:
		return pub[1:], nil
	case len(pub) == 33 && (pub[0] == 0x02 || pub[0] == 0x03):
		key, err := btcec.ParsePubKey(pub)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse compressed secp256k1 pubkey")
		}
		return key.SerializeUncompressed()[1:], nil
	default:
		return nil, errors.Errorf("unsupported public key format: len=%d", len(pub))
	}
}

// DecodePublicKeyHex 解析十六进制公钥（可带 0x 前缀）
func DecodePublicKeyHex(s string) ([]byte, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode public key hex")
	}
	return NormalizePublicKey(raw)
}

func p256PrivateKey(d []byte) (*ecdsa.PrivateKey, error) {
	pub, err := PublicKeyFromScalar(ECDSAP256, d)
	if err != nil {
		return nil, err
	}
	pk, err := P256PublicKey(pub)
	if err != nil {
		return nil, err
	}
	return &ecdsa.PrivateKey{PublicKey: *pk, D: new(big.Int).SetBytes(d)}, nil
}

func validSecp256k1Scalar(d []byte) bool {
	if len(d) != PrivateKeyLength {
		return false
	}
	k := new(big.Int).SetBytes(d)
	return k.Sign() > 0 && k.Cmp(btcec.S256().N) < 0
}

func serializeRS(r, s *big.Int) []byte {
	sig := make([]byte, SignatureLength)
	r.FillBytes(sig[:32])
	s.FillBytes(sig[32:])
	return sig
}
