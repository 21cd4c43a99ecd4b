// Package account 把链上账户与可选的签名密钥组合在一起：并发加载子账户与 COA，
// 通过存储缓存关联账户快照，并提供经过安全检查的签名入口。
package account

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/SafeMPC/flow-wallet-kit/internal/flow"
	"github.com/SafeMPC/flow-wallet-kit/internal/keys"
	"github.com/SafeMPC/flow-wallet-kit/internal/metrics"
	"github.com/SafeMPC/flow-wallet-kit/internal/storage"
	"github.com/SafeMPC/flow-wallet-kit/internal/util"
	"github.com/pkg/errors"
)

// LinkedAccountProvider 账户图谱：子账户元数据与 COA 地址
type LinkedAccountProvider interface {
	ChildMetadata(ctx context.Context, chain flow.ChainID, parent flow.Address) (map[flow.Address]flow.ChildMetadata, error)
	EVMAddress(ctx context.Context, chain flow.ChainID, address flow.Address) (string, error)
}

// SecurityDelegate 签名前的安全检查（例如生物识别或二次确认）
type SecurityDelegate interface {
	VerifySecurity(ctx context.Context) (bool, error)
}

// SecurityCheckFunc 函数形式的 SecurityDelegate
type SecurityCheckFunc func(ctx context.Context) (bool, error)

// VerifySecurity 调用函数本身
func (f SecurityCheckFunc) VerifySecurity(ctx context.Context) (bool, error) {
	return f(ctx)
}

// State 关联账户加载状态
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return "uninitialized"
	}
}

var errNoLinkedAccountProvider = errors.New("linked account provider not configured")

// Account 链上账户 + 可选签名密钥
type Account struct {
	account  flow.Account
	chain    flow.ChainID
	key      keys.Key
	security SecurityDelegate
	provider LinkedAccountProvider
	store    storage.Storage
	metrics  *metrics.Service

	mu       sync.RWMutex
	children []flow.ChildAccount
	coa      *flow.COA
	state    State
	loading  atomic.Int32

	// fetchMu 串行化同一实例的缓存读写与刷新
	fetchMu sync.Mutex
}

// Option 账户选项
type Option func(*Account)

// WithSecurityDelegate 设置签名前的安全检查
func WithSecurityDelegate(d SecurityDelegate) Option {
	return func(a *Account) {
		a.security = d
	}
}

// WithLinkedAccountProvider 设置子账户 / COA 数据源
func WithLinkedAccountProvider(p LinkedAccountProvider) Option {
	return func(a *Account) {
		a.provider = p
	}
}

// WithStorage 设置缓存存储
func WithStorage(s storage.Storage) Option {
	return func(a *Account) {
		a.store = s
	}
}

// WithMetrics 记录关联账户拉取指标
func WithMetrics(m *metrics.Service) Option {
	return func(a *Account) {
		a.metrics = m
	}
}

// New 创建账户，key 可以为 nil（只读账户）
func New(account flow.Account, chain flow.ChainID, key keys.Key, opts ...Option) *Account {
	a := &Account{
		account: account,
		chain:   chain,
		key:     key,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Address 账户地址
func (a *Account) Address() flow.Address {
	return a.account.Address
}

// ChainID 所在网络
func (a *Account) ChainID() flow.ChainID {
	return a.chain
}

// FlowAccount 底层链上账户
func (a *Account) FlowAccount() flow.Account {
	return a.account
}

// Key 签名密钥，可能为 nil
func (a *Account) Key() keys.Key {
	return a.key
}

// CanSign 是否持有签名密钥
func (a *Account) CanSign() bool {
	return a.key != nil
}

// State 当前加载状态
func (a *Account) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// IsLoading 是否有关联账户加载正在进行
func (a *Account) IsLoading() bool {
	return a.loading.Load() > 0
}

// Children 子账户快照
func (a *Account) Children() []flow.ChildAccount {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]flow.ChildAccount(nil), a.children...)
}

// COA 关联的 EVM 账户，没有时为 nil
func (a *Account) COA() *flow.COA {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.coa == nil {
		return nil
	}
	coa := *a.coa
	return &coa
}

func (a *Account) setLinked(coa *flow.COA, children []flow.ChildAccount) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.coa = coa
	a.children = children
}

// LoadLinkedAccounts 并发拉取子账户与 COA，两者都结束后返回。
// 拉取失败只记录日志，保留之前的值。
func (a *Account) LoadLinkedAccounts(ctx context.Context) (*flow.COA, []flow.ChildAccount) {
	a.loading.Add(1)
	a.mu.Lock()
	a.state = StateLoading
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		if a.loading.Add(-1) == 0 {
			a.state = StateReady
		}
		a.mu.Unlock()
	}()

	log := util.LogFromContext(ctx).With().Str("chain", a.chain.String()).Str("address", a.account.Address.Hex()).Logger()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		if _, err := a.FetchChild(ctx); err != nil {
			log.Warn().Err(err).Str("source", "child").Msg("Failed to fetch child accounts")
		}
	}()

	go func() {
		defer wg.Done()
		if _, err := a.FetchVM(ctx); err != nil {
			log.Warn().Err(err).Str("source", "coa").Msg("Failed to fetch COA")
		}
	}()

	wg.Wait()

	return a.COA(), a.Children()
}

// FetchChild 拉取并整体替换子账户列表；失败时保留旧列表
func (a *Account) FetchChild(ctx context.Context) ([]flow.ChildAccount, error) {
	if a.provider == nil {
		return nil, errNoLinkedAccountProvider
	}

	meta, err := a.provider.ChildMetadata(ctx, a.chain, a.account.Address)
	a.metrics.ObserveLinkedFetch("child", metrics.Result(err))
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch child metadata")
	}

	children := make([]flow.ChildAccount, 0, len(meta))
	for addr, m := range meta {
		children = append(children, flow.ChildAccount{
			Address:     addr,
			ChainID:     a.chain,
			Parent:      a.account.Address,
			Name:        m.Name,
			Description: m.Description,
			Icon:        m.Icon,
			Permissions: append([]flow.TokenPermission(nil), m.Permissions...),
		})
	}
	sort.Slice(children, func(i, j int) bool {
		return bytes.Compare(children[i].Address[:], children[j].Address[:]) < 0
	})

	a.mu.Lock()
	a.children = children
	a.mu.Unlock()

	return append([]flow.ChildAccount(nil), children...), nil
}

// FetchVM 拉取 COA；账户没有 COA 时返回 nil
func (a *Account) FetchVM(ctx context.Context) (*flow.COA, error) {
	if a.provider == nil {
		return nil, errNoLinkedAccountProvider
	}

	address, err := a.provider.EVMAddress(ctx, a.chain, a.account.Address)
	if err == nil && address != "" {
		_, err = flow.NewCOA(address, a.chain)
	}
	a.metrics.ObserveLinkedFetch("coa", metrics.Result(err))
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch COA")
	}

	var coa *flow.COA
	if address != "" {
		coa = &flow.COA{Address: address, ChainID: a.chain}
	}

	a.mu.Lock()
	a.coa = coa
	a.mu.Unlock()

	if coa == nil {
		return nil, nil
	}
	out := *coa
	return &out, nil
}

// FetchAccount 先读缓存，再刷新关联账户并写回缓存；缓存错误不会中断刷新
func (a *Account) FetchAccount(ctx context.Context) (*flow.COA, []flow.ChildAccount) {
	a.fetchMu.Lock()
	defer a.fetchMu.Unlock()

	log := util.LogFromContext(ctx).With().Str("chain", a.chain.String()).Str("address", a.account.Address.Hex()).Logger()

	if err := a.LoadCache(ctx); err != nil {
		log.Debug().Err(err).Msg("No cached linked accounts")
	}

	coa, children := a.LoadLinkedAccounts(ctx)

	if err := a.Cache(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to cache linked accounts")
	}

	return coa, children
}
