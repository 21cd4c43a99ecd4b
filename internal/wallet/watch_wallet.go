package wallet

import (
	"context"

	"github.com/SafeMPC/flow-wallet-kit/internal/account"
	"github.com/SafeMPC/flow-wallet-kit/internal/flow"
	"github.com/SafeMPC/flow-wallet-kit/internal/types"
	"github.com/pkg/errors"
)

// AccountLookup 按地址直接读取账户（Access 节点）
type AccountLookup interface {
	GetAccount(ctx context.Context, chain flow.ChainID, address flow.Address) (*flow.Account, error)
}

// WatchWallet 只读钱包，观察单个地址
type WatchWallet struct {
	*container

	address flow.Address
	lookup  AccountLookup
}

var _ Wallet = (*WatchWallet)(nil)

// NewWatchWallet 创建观察钱包
func NewWatchWallet(address flow.Address, networks []flow.ChainID, lookup AccountLookup, opts ...Option) (*WatchWallet, error) {
	if address.IsEmpty() {
		return nil, errors.Wrap(types.ErrInvalidAddress, "watch wallet requires an address")
	}
	if lookup == nil {
		return nil, errors.New("watch wallet requires an account lookup")
	}

	w := &WatchWallet{address: address, lookup: lookup}
	w.container = newContainer(TypeWatch, string(TypeWatch)+"-"+address.Hex(), nil, networks, opts)
	w.container.fetch = w.FetchAccountsForNetwork
	return w, nil
}

// Address 观察的地址
func (w *WatchWallet) Address() flow.Address {
	return w.address
}

// FetchAccountsForNetwork 直接读取该地址在网络上的账户
func (w *WatchWallet) FetchAccountsForNetwork(ctx context.Context, chain flow.ChainID) ([]flow.Account, error) {
	a, err := w.lookup.GetAccount(ctx, chain, w.address)
	if err != nil {
		return nil, err
	}
	return []flow.Account{*a}, nil
}

// AddAccount 只接受不带密钥的账户
func (w *WatchWallet) AddAccount(a *account.Account) error {
	if a == nil {
		return errors.New("account is nil")
	}
	if a.CanSign() {
		return errors.Wrapf(types.ErrInvalidWalletType, "watch wallet cannot hold signing account %s", a.Address().Hex())
	}
	w.putAccount(a)
	return nil
}
