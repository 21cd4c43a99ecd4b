package types

import "github.com/pkg/errors"

// 钱包核心错误分类。所有对外暴露的错误都包装其中之一，调用方使用 errors.Is 判断类型。
var (
	// 密钥材料缺失
	ErrEmptyKey      = errors.New("empty key")
	ErrEmptyKeychain = errors.New("key not found in keychain")
	ErrEmptySignKey  = errors.New("no signing key available for account")

	// 解密/鉴权失败（区别于未找到）
	ErrInvalidPassword = errors.New("invalid password")

	// 密码学操作失败
	ErrSign                      = errors.New("sign error")
	ErrInvalidSignatureAlgorithm = errors.New("invalid signature algorithm")
	ErrUnsupportedHashAlgorithm  = errors.New("unsupported hash algorithm")
	ErrInvalidPrivateKey         = errors.New("invalid private key")
	ErrInvalidMnemonic           = errors.New("invalid mnemonic")
	ErrInvalidKeyType            = errors.New("invalid key type")

	// Ethereum 兼容层输入校验
	ErrInvalidEthereumMessage   = errors.New("invalid ethereum message")
	ErrInvalidEthereumTypedData = errors.New("invalid ethereum typed data")
	ErrInvalidEVMAddress        = errors.New("invalid evm address")

	// 网络层
	ErrKeyIndexerRequestFailed = errors.New("key indexer request failed")
	ErrIncorrectKeyIndexerURL  = errors.New("incorrect key indexer url")
	ErrDecodeKeyIndexerFailed  = errors.New("decode key indexer response failed")
	ErrAccessRequestFailed     = errors.New("access node request failed")
	ErrUnsupportedChain        = errors.New("unsupported chain")
	ErrInvalidAddress          = errors.New("invalid flow address")
	ErrAccountNotFound         = errors.New("account not found")

	// 缓存未命中或解码失败，始终可恢复
	ErrLoadCacheFailed = errors.New("load cache failed")

	// 钱包归属校验失败
	ErrInvalidWalletType = errors.New("invalid wallet type")

	// 安全校验拒绝
	ErrFailedSecurityCheck = errors.New("failed security check")
)
