// Package wallet 聚合多个网络上的账户：KeyWallet 通过公钥索引发现账户，
// WatchWallet 只观察单个地址。两者共享并发刷新、快照发布与缓存逻辑。
package wallet

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/SafeMPC/flow-wallet-kit/internal/account"
	"github.com/SafeMPC/flow-wallet-kit/internal/flow"
	"github.com/SafeMPC/flow-wallet-kit/internal/keys"
	"github.com/SafeMPC/flow-wallet-kit/internal/metrics"
	"github.com/SafeMPC/flow-wallet-kit/internal/storage"
	"github.com/SafeMPC/flow-wallet-kit/internal/util"
	"golang.org/x/sync/errgroup"
)

// Type 钱包类型
type Type string

const (
	TypeKey   Type = "key"
	TypeWatch Type = "watch"
)

// Snapshot 各网络的账户列表
type Snapshot map[flow.ChainID][]*account.Account

// Wallet KeyWallet 与 WatchWallet 的公共接口
type Wallet interface {
	Type() Type
	// TypeID 钱包类型 + 标识，用于缓存 ID
	TypeID() string
	GetKeyForAccount() keys.Key
	Networks() []flow.ChainID
	AddNetwork(chain flow.ChainID) bool
	RemoveNetwork(chain flow.ChainID) bool
	FetchAccountsForNetwork(ctx context.Context, chain flow.ChainID) ([]flow.Account, error)
	FetchAllNetworkAccounts(ctx context.Context) (Snapshot, error)
	RefreshAccounts(ctx context.Context) error
	AddAccount(a *account.Account) error
	Account(address flow.Address) (*account.Account, bool)
	Accounts() Snapshot
	IsLoading() bool
	Subscribe() (<-chan Snapshot, func())
	LoadLinkedAccounts(ctx context.Context)
	Cache(ctx context.Context) error
	LoadCache(ctx context.Context) error
}

// Option 钱包选项
type Option func(*options)

type options struct {
	store    storage.Storage
	security account.SecurityDelegate
	provider account.LinkedAccountProvider
	metrics  *metrics.Service
}

// WithStorage 钱包与账户缓存使用的存储
func WithStorage(s storage.Storage) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithSecurityDelegate 传给每个账户的签名安全检查
func WithSecurityDelegate(d account.SecurityDelegate) Option {
	return func(o *options) {
		o.security = d
	}
}

// WithLinkedAccountProvider 传给每个账户的子账户 / COA 数据源
func WithLinkedAccountProvider(p account.LinkedAccountProvider) Option {
	return func(o *options) {
		o.provider = p
	}
}

// WithMetrics 记录刷新指标
func WithMetrics(m *metrics.Service) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// container 两种钱包共享的状态
type container struct {
	options

	typ    Type
	typeID string
	key    keys.Key
	fetch  func(ctx context.Context, chain flow.ChainID) ([]flow.Account, error)

	mu       sync.RWMutex
	networks []flow.ChainID
	accounts Snapshot
	subs     map[int]chan Snapshot
	nextSub  int
	loading  atomic.Int32
}

func newContainer(typ Type, typeID string, key keys.Key, networks []flow.ChainID, opts []Option) *container {
	c := &container{
		typ:      typ,
		typeID:   typeID,
		key:      key,
		accounts: make(Snapshot),
		subs:     make(map[int]chan Snapshot),
	}
	for _, opt := range opts {
		opt(&c.options)
	}
	for _, chain := range networks {
		if !c.hasNetwork(chain) {
			c.networks = append(c.networks, chain)
		}
	}
	return c
}

// Type 钱包类型
func (c *container) Type() Type {
	return c.typ
}

// TypeID 钱包类型 + 标识
func (c *container) TypeID() string {
	return c.typeID
}

// GetKeyForAccount WatchWallet 返回 nil
func (c *container) GetKeyForAccount() keys.Key {
	return c.key
}

func (c *container) hasNetwork(chain flow.ChainID) bool {
	for _, n := range c.networks {
		if n == chain {
			return true
		}
	}
	return false
}

// Networks 当前跟踪的网络
func (c *container) Networks() []flow.ChainID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]flow.ChainID(nil), c.networks...)
}

// AddNetwork 添加网络，已存在时返回 false
func (c *container) AddNetwork(chain flow.ChainID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hasNetwork(chain) {
		return false
	}
	c.networks = append(c.networks, chain)
	return true
}

// RemoveNetwork 移除网络及其账户，不存在时返回 false
func (c *container) RemoveNetwork(chain flow.ChainID) bool {
	c.mu.Lock()
	idx := -1
	for i, n := range c.networks {
		if n == chain {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return false
	}
	c.networks = append(c.networks[:idx], c.networks[idx+1:]...)

	next := c.accounts.clone()
	delete(next, chain)
	c.publishLocked(next)
	c.mu.Unlock()
	return true
}

// IsLoading 是否正在刷新
func (c *container) IsLoading() bool {
	return c.loading.Load() > 0
}

func (c *container) newAccount(a flow.Account, chain flow.ChainID) *account.Account {
	return account.New(a, chain, c.key,
		account.WithStorage(c.store),
		account.WithSecurityDelegate(c.security),
		account.WithLinkedAccountProvider(c.provider),
		account.WithMetrics(c.metrics),
	)
}

// FetchAllNetworkAccounts 并发拉取所有网络的账户，整体替换后发布。
// 单个网络失败时记录日志并以空列表代替，不影响其它网络。
func (c *container) FetchAllNetworkAccounts(ctx context.Context) (Snapshot, error) {
	c.loading.Add(1)
	defer c.loading.Add(-1)

	networks := c.Networks()
	log := util.LogFromContext(ctx).With().Str("wallet", string(c.typ)).Logger()

	var (
		mu     sync.Mutex
		result = make(Snapshot, len(networks))
		g      errgroup.Group
	)

	for _, chain := range networks {
		g.Go(func() error {
			found, err := c.fetch(ctx, chain)
			c.metrics.ObserveWalletRefresh(string(c.typ), metrics.Result(err))

			accounts := make([]*account.Account, 0, len(found))
			if err != nil {
				log.Error().Err(err).Str("chain", chain.String()).Msg("Failed to fetch accounts for network")
			} else {
				for _, a := range found {
					accounts = append(accounts, c.newAccount(a, chain))
				}
			}

			mu.Lock()
			result[chain] = accounts
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.publishLocked(result)
	c.mu.Unlock()

	return result.clone(), nil
}

// RefreshAccounts 刷新全部网络并写入钱包缓存，缓存写完前 IsLoading 保持为 true
func (c *container) RefreshAccounts(ctx context.Context) error {
	c.loading.Add(1)
	defer c.loading.Add(-1)

	if _, err := c.FetchAllNetworkAccounts(ctx); err != nil {
		return err
	}
	if c.store != nil {
		if err := c.Cache(ctx); err != nil {
			util.LogFromContext(ctx).Warn().Err(err).Str("wallet", string(c.typ)).Msg("Failed to cache wallet accounts")
		}
	}
	return nil
}

func (c *container) putAccount(a *account.Account) {
	c.mu.Lock()
	defer c.mu.Unlock()

	chain := a.ChainID()
	if !c.hasNetwork(chain) {
		c.networks = append(c.networks, chain)
	}

	next := c.accounts.clone()
	list := next[chain]
	replaced := false
	for i, existing := range list {
		if existing.Address() == a.Address() {
			list[i] = a
			replaced = true
			break
		}
	}
	if !replaced {
		list = append(list, a)
	}
	next[chain] = list
	c.publishLocked(next)
}

// Account 按地址在所有网络中查找账户
func (c *container) Account(address flow.Address) (*account.Account, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, chain := range c.networks {
		for _, a := range c.accounts[chain] {
			if a.Address() == address {
				return a, true
			}
		}
	}
	return nil, false
}

// Accounts 当前账户快照
func (c *container) Accounts() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accounts.clone()
}

// Subscribe 订阅账户快照，每次发布都会收到最新快照；返回的函数取消订阅
func (c *container) Subscribe() (<-chan Snapshot, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	ch := make(chan Snapshot, 1)
	c.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.subs, id)
			close(ch)
		})
	}
}

// publishLocked 调用方持有 c.mu 写锁
func (c *container) publishLocked(next Snapshot) {
	c.accounts = next
	for _, ch := range c.subs {
		snap := next.clone()
		select {
		case ch <- snap:
		default:
			// 丢弃未读取的旧快照
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

// LoadLinkedAccounts 并发加载所有账户的子账户与 COA
func (c *container) LoadLinkedAccounts(ctx context.Context) {
	var g errgroup.Group
	for _, list := range c.Accounts() {
		for _, a := range list {
			a := a
			g.Go(func() error {
				a.FetchAccount(ctx)
				return nil
			})
		}
	}
	_ = g.Wait()
}

func (s Snapshot) clone() Snapshot {
	out := make(Snapshot, len(s))
	for chain, list := range s {
		out[chain] = append([]*account.Account{}, list...)
	}
	return out
}
