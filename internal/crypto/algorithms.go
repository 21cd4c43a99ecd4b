// Package crypto 提供 Flow 账户密钥使用的签名算法与哈希算法，以及与平台无关的 ECDSA 原语封装。
package crypto

import "strings"

// SigningAlgorithm Flow 链上签名算法编码
type SigningAlgorithm int

const (
	UnknownSigningAlgorithm SigningAlgorithm = 0
	ECDSAP256               SigningAlgorithm = 2
	ECDSASecp256k1          SigningAlgorithm = 3
)

// AllSigningAlgorithms 钱包支持的全部签名算法（按账户发现的查询顺序）
var AllSigningAlgorithms = []SigningAlgorithm{ECDSAP256, ECDSASecp256k1}

func (a SigningAlgorithm) String() string {
	switch a {
	case ECDSAP256:
		return "ECDSA_P256"
	case ECDSASecp256k1:
		return "ECDSA_secp256k1"
	default:
		return "UNKNOWN"
	}
}

// ParseSigningAlgorithm 解析签名算法名称，无法识别时返回 UnknownSigningAlgorithm
func ParseSigningAlgorithm(s string) SigningAlgorithm {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ECDSA_P256", "P256", "P-256", "NIST256P1":
		return ECDSAP256
	case "ECDSA_SECP256K1", "SECP256K1":
		return ECDSASecp256k1
	default:
		return UnknownSigningAlgorithm
	}
}

// HashingAlgorithm Flow 链上哈希算法编码
type HashingAlgorithm int

const (
	UnknownHashingAlgorithm HashingAlgorithm = 0
	SHA2_256                HashingAlgorithm = 1
	SHA2_384                HashingAlgorithm = 2
	SHA3_256                HashingAlgorithm = 3
	SHA3_384                HashingAlgorithm = 4
	Keccak256               HashingAlgorithm = 6
)

func (h HashingAlgorithm) String() string {
	switch h {
	case SHA2_256:
		return "SHA2_256"
	case SHA2_384:
		return "SHA2_384"
	case SHA3_256:
		return "SHA3_256"
	case SHA3_384:
		return "SHA3_384"
	case Keccak256:
		return "KECCAK_256"
	default:
		return "UNKNOWN"
	}
}

// ParseHashingAlgorithm 解析哈希算法名称，无法识别时返回 UnknownHashingAlgorithm
func ParseHashingAlgorithm(s string) HashingAlgorithm {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SHA2_256", "SHA256":
		return SHA2_256
	case "SHA2_384", "SHA384":
		return SHA2_384
	case "SHA3_256":
		return SHA3_256
	case "SHA3_384":
		return SHA3_384
	case "KECCAK_256", "KECCAK256":
		return Keccak256
	default:
		return UnknownHashingAlgorithm
	}
}
