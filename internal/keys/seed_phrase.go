package keys

import (
	"context"
	"strings"

	"github.com/SafeMPC/flow-wallet-kit/internal/crypto"
	"github.com/SafeMPC/flow-wallet-kit/internal/storage"
	"github.com/SafeMPC/flow-wallet-kit/internal/types"
	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip39"
)

// SeedPhraseKeyOptions 创建 SeedPhraseKey 的高级选项
type SeedPhraseKeyOptions struct {
	// WordCount 助记词词数：12、15、18、21、24，默认 12
	WordCount int
	// Passphrase BIP-39 附加口令
	Passphrase string
	// DerivationPath Flow 密钥派生路径，默认 m/44'/539'/0'/0/0
	DerivationPath string
	// EthereumPath EVM 密钥派生路径，默认 m/44'/60'/0'/0/0
	EthereumPath string
	// SigningAlgorithms 限制可用的签名算法，为空时支持全部
	SigningAlgorithms []crypto.SigningAlgorithm
}

func (o SeedPhraseKeyOptions) withDefaults() SeedPhraseKeyOptions {
	if o.WordCount == 0 {
		o.WordCount = 12
	}
	if o.DerivationPath == "" {
		o.DerivationPath = crypto.DefaultFlowPath
	}
	if o.EthereumPath == "" {
		o.EthereumPath = crypto.DefaultEthereumPath
	}
	if len(o.SigningAlgorithms) == 0 {
		o.SigningAlgorithms = crypto.AllSigningAlgorithms
	}
	return o
}

// SeedPhraseKey BIP-39 助记词密钥，按路径派生 P-256（SLIP-10）与 secp256k1（BIP-32）私钥
type SeedPhraseKey struct {
	keyStore

	mnemonic   string
	passphrase string
	path       string
	ethPath    string
	algorithms []crypto.SigningAlgorithm
	scalars    map[crypto.SigningAlgorithm][]byte
	ethScalar  []byte
	id         string
}

var (
	_ Key         = (*SeedPhraseKey)(nil)
	_ EthereumKey = (*SeedPhraseKey)(nil)
)

type seedPhrasePayload struct {
	Mnemonic       string                    `json:"mnemonic"`
	Passphrase     string                    `json:"passphrase,omitempty"`
	DerivationPath string                    `json:"derivationPath"`
	EthereumPath   string                    `json:"ethereumPath"`
	Algorithms     []crypto.SigningAlgorithm `json:"algorithms"`
}

// CreateSeedPhraseKey 生成 12 词助记词密钥
func CreateSeedPhraseKey(store storage.Storage) (*SeedPhraseKey, error) {
	return CreateSeedPhraseKeyWithOptions(SeedPhraseKeyOptions{}, store)
}

// CreateSeedPhraseKeyWithOptions 按选项生成助记词密钥
func CreateSeedPhraseKeyWithOptions(opts SeedPhraseKeyOptions, store storage.Storage) (*SeedPhraseKey, error) {
	opts = opts.withDefaults()

	var bits int
	switch opts.WordCount {
	case 12, 15, 18, 21, 24:
		bits = opts.WordCount / 3 * 32
	default:
		return nil, errors.Wrapf(types.ErrInvalidMnemonic, "unsupported word count %d", opts.WordCount)
	}

	entropy, err := bip39.NewEntropy(bits)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate entropy")
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate mnemonic")
	}
	return newSeedPhraseKey(mnemonic, opts, store)
}

// RestoreSeedPhraseKey 从助记词恢复，使用默认路径
func RestoreSeedPhraseKey(mnemonic string, store storage.Storage) (*SeedPhraseKey, error) {
	return RestoreSeedPhraseKeyWithOptions(mnemonic, SeedPhraseKeyOptions{}, store)
}

// RestoreSeedPhraseKeyWithOptions 从助记词恢复，WordCount 选项被忽略
func RestoreSeedPhraseKeyWithOptions(mnemonic string, opts SeedPhraseKeyOptions, store storage.Storage) (*SeedPhraseKey, error) {
	return newSeedPhraseKey(mnemonic, opts.withDefaults(), store)
}

func newSeedPhraseKey(mnemonic string, opts SeedPhraseKeyOptions, store storage.Storage) (*SeedPhraseKey, error) {
	mnemonic = strings.Join(strings.Fields(strings.ToLower(mnemonic)), " ")
	if mnemonic == "" {
		return nil, errors.Wrap(types.ErrEmptyKey, "mnemonic is empty")
	}
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, errors.Wrap(types.ErrInvalidMnemonic, "mnemonic checksum or word list mismatch")
	}
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, opts.Passphrase)
	if err != nil {
		return nil, errors.Wrap(types.ErrInvalidMnemonic, err.Error())
	}

	k := &SeedPhraseKey{
		keyStore:   keyStore{store: store},
		mnemonic:   mnemonic,
		passphrase: opts.Passphrase,
		path:       opts.DerivationPath,
		ethPath:    opts.EthereumPath,
		scalars:    make(map[crypto.SigningAlgorithm][]byte, len(opts.SigningAlgorithms)),
	}

	for _, algo := range opts.SigningAlgorithms {
		scalar, err := crypto.DerivePrivateKey(algo, seed, opts.DerivationPath)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to derive %s key at %s", algo, opts.DerivationPath)
		}
		k.scalars[algo] = scalar
		k.algorithms = append(k.algorithms, algo)
	}

	k.ethScalar, err = crypto.DerivePrivateKey(crypto.ECDSASecp256k1, seed, opts.EthereumPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to derive ethereum key at %s", opts.EthereumPath)
	}

	k.id = keyID(k)
	return k, nil
}

// Mnemonic 助记词单词列表
func (k *SeedPhraseKey) Mnemonic() []string {
	return strings.Fields(k.mnemonic)
}

// DerivationPath Flow 密钥派生路径
func (k *SeedPhraseKey) DerivationPath() string {
	return k.path
}

// EthereumPath EVM 密钥派生路径
func (k *SeedPhraseKey) EthereumPath() string {
	return k.ethPath
}

// DeriveKey 派生 address index 为 index 的子密钥，接收者本身不变
func (k *SeedPhraseKey) DeriveKey(index uint32) (*SeedPhraseKey, error) {
	path, err := crypto.WithAddressIndex(k.path, index)
	if err != nil {
		return nil, err
	}
	ethPath, err := crypto.WithAddressIndex(k.ethPath, index)
	if err != nil {
		return nil, err
	}
	return newSeedPhraseKey(k.mnemonic, SeedPhraseKeyOptions{
		Passphrase:        k.passphrase,
		DerivationPath:    path,
		EthereumPath:      ethPath,
		SigningAlgorithms: k.algorithms,
	}, k.store)
}

func (k *SeedPhraseKey) ID() string {
	return k.id
}

func (k *SeedPhraseKey) Type() KeyType {
	return KeyTypeSeedPhrase
}

func (k *SeedPhraseKey) IsHardwareBacked() bool {
	return false
}

func (k *SeedPhraseKey) SupportedSigningAlgorithms() []crypto.SigningAlgorithm {
	return append([]crypto.SigningAlgorithm(nil), k.algorithms...)
}

func (k *SeedPhraseKey) PublicKey(algo crypto.SigningAlgorithm) []byte {
	scalar, ok := k.scalars[algo]
	if !ok {
		return nil
	}
	pub, err := crypto.PublicKeyFromScalar(algo, scalar)
	if err != nil {
		return nil
	}
	return pub
}

func (k *SeedPhraseKey) PrivateKey(algo crypto.SigningAlgorithm) []byte {
	scalar, ok := k.scalars[algo]
	if !ok {
		return nil
	}
	return append([]byte(nil), scalar...)
}

func (k *SeedPhraseKey) Sign(data []byte, signAlgo crypto.SigningAlgorithm, hashAlgo crypto.HashingAlgorithm) ([]byte, error) {
	scalar, ok := k.scalars[signAlgo]
	if !ok {
		return nil, errors.Wrapf(types.ErrInvalidSignatureAlgorithm, "seed phrase key does not support %s", signAlgo)
	}
	return signWithScalar(scalar, data, signAlgo, hashAlgo)
}

func (k *SeedPhraseKey) IsValidSignature(signature []byte, message []byte, signAlgo crypto.SigningAlgorithm, hashAlgo crypto.HashingAlgorithm) bool {
	return verifyWithPublicKey(k.PublicKey(signAlgo), signature, message, signAlgo, hashAlgo)
}

func (k *SeedPhraseKey) Store(ctx context.Context, id string, password string) error {
	payload := seedPhrasePayload{
		Mnemonic:       k.mnemonic,
		Passphrase:     k.passphrase,
		DerivationPath: k.path,
		EthereumPath:   k.ethPath,
		Algorithms:     k.algorithms,
	}
	return k.put(ctx, id, password, KeyTypeSeedPhrase, payload)
}

func (k *SeedPhraseKey) ethSource() ([]byte, error) {
	if len(k.ethScalar) == 0 {
		return nil, errors.Wrap(types.ErrEmptyKey, "ethereum key not derived")
	}
	return k.ethScalar, nil
}

func (k *SeedPhraseKey) EthAddress() (string, error) {
	return ethAddress(k.ethSource)
}

func (k *SeedPhraseKey) EthPublicKey() []byte {
	return ethPublicKey(k.ethSource)
}

func (k *SeedPhraseKey) EthPrivateKey() []byte {
	return append([]byte(nil), k.ethScalar...)
}

func (k *SeedPhraseKey) EthSignDigest(digest []byte) ([]byte, error) {
	return ethSignDigest(k.ethSource, digest)
}

func (k *SeedPhraseKey) EthSignPersonalMessage(message []byte) ([]byte, error) {
	return k.EthSignDigest(crypto.EthereumPersonalHash(message))
}

func (k *SeedPhraseKey) EthSignTypedData(typedDataJSON []byte) ([]byte, error) {
	digest, err := crypto.EthereumTypedDataHash(typedDataJSON)
	if err != nil {
		return nil, err
	}
	return k.EthSignDigest(digest)
}

func seedPhraseKeyFromPayload(p seedPhrasePayload, store storage.Storage) (*SeedPhraseKey, error) {
	return newSeedPhraseKey(p.Mnemonic, SeedPhraseKeyOptions{
		Passphrase:        p.Passphrase,
		DerivationPath:    p.DerivationPath,
		EthereumPath:      p.EthereumPath,
		SigningAlgorithms: p.Algorithms,
	}.withDefaults(), store)
}
