package wallet

import (
	"context"
	"encoding/hex"

	"github.com/SafeMPC/flow-wallet-kit/internal/account"
	"github.com/SafeMPC/flow-wallet-kit/internal/flow"
	"github.com/SafeMPC/flow-wallet-kit/internal/keys"
	"github.com/SafeMPC/flow-wallet-kit/internal/types"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// AccountFinder 按公钥查找账户（公钥索引服务）
type AccountFinder interface {
	FindFlowAccounts(ctx context.Context, publicKeyHex string, chain flow.ChainID) ([]flow.Account, error)
}

// KeyWallet 持有签名密钥的钱包
type KeyWallet struct {
	*container

	finder AccountFinder
}

var _ Wallet = (*KeyWallet)(nil)

// NewKeyWallet 创建密钥钱包
func NewKeyWallet(key keys.Key, networks []flow.ChainID, finder AccountFinder, opts ...Option) (*KeyWallet, error) {
	if key == nil {
		return nil, errors.Wrap(types.ErrEmptyKey, "key wallet requires a key")
	}
	if finder == nil {
		return nil, errors.New("key wallet requires an account finder")
	}

	w := &KeyWallet{finder: finder}
	w.container = newContainer(TypeKey, string(TypeKey)+"-"+key.ID(), key, networks, opts)
	w.container.fetch = w.FetchAccountsForNetwork
	return w, nil
}

// FetchAccountsForNetwork 为密钥支持的每个签名算法并发查询索引服务，按地址合并结果
func (w *KeyWallet) FetchAccountsForNetwork(ctx context.Context, chain flow.ChainID) ([]flow.Account, error) {
	algorithms := w.key.SupportedSigningAlgorithms()
	results := make([][]flow.Account, len(algorithms))

	g, gctx := errgroup.WithContext(ctx)
	for i, algo := range algorithms {
		pub := w.key.PublicKey(algo)
		if len(pub) == 0 {
			continue
		}
		publicKey := hex.EncodeToString(pub)
		g.Go(func() error {
			found, err := w.finder.FindFlowAccounts(gctx, publicKey, chain)
			if err != nil {
				return err
			}
			results[i] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return mergeByAddress(results), nil
}

// mergeByAddress 按地址去重，同一地址的密钥按索引合并，保持首次出现的顺序
func mergeByAddress(groups [][]flow.Account) []flow.Account {
	merged := make([]flow.Account, 0)
	positions := make(map[flow.Address]int)

	for _, group := range groups {
		for _, a := range group {
			pos, ok := positions[a.Address]
			if !ok {
				positions[a.Address] = len(merged)
				a.Keys = append([]flow.AccountPublicKey(nil), a.Keys...)
				merged = append(merged, a)
				continue
			}
			merged[pos].MergeKeys(a.Keys)
		}
	}
	return merged
}

// AddAccount 只接受使用同一个密钥实例的账户
func (w *KeyWallet) AddAccount(a *account.Account) error {
	if a == nil {
		return errors.New("account is nil")
	}
	if a.Key() != w.key {
		return errors.Wrapf(types.ErrInvalidWalletType, "account %s is not backed by the wallet key", a.Address().Hex())
	}
	w.putAccount(a)
	return nil
}
