package account

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/SafeMPC/flow-wallet-kit/internal/flow"
	"github.com/SafeMPC/flow-wallet-kit/internal/types"
	"github.com/pkg/errors"
)

// cachePrefix 账户缓存 ID 前缀
const cachePrefix = "Account"

type snapshot struct {
	Address  flow.Address        `json:"address"`
	ChainID  flow.ChainID        `json:"chainId"`
	Children []flow.ChildAccount `json:"children"`
	COA      *flow.COA           `json:"coa,omitempty"`
}

// CacheID 缓存条目 ID：Account-<chain>-<address>
func (a *Account) CacheID() string {
	return strings.Join([]string{cachePrefix, a.chain.String(), a.account.Address.Hex()}, "-")
}

// Cache 把当前子账户与 COA 写入存储
func (a *Account) Cache(ctx context.Context) error {
	if a.store == nil {
		return errors.New("cache storage not configured")
	}

	a.mu.RLock()
	snap := snapshot{
		Address:  a.account.Address,
		ChainID:  a.chain,
		Children: append([]flow.ChildAccount(nil), a.children...),
		COA:      a.coa,
	}
	a.mu.RUnlock()

	blob, err := json.Marshal(snap)
	if err != nil {
		return errors.Wrap(err, "failed to encode account cache")
	}
	return a.store.Set(ctx, a.CacheID(), blob)
}

// LoadCache 从存储恢复子账户与 COA，条目缺失或无法解析时返回 ErrLoadCacheFailed
func (a *Account) LoadCache(ctx context.Context) error {
	if a.store == nil {
		return errors.Wrap(types.ErrLoadCacheFailed, "cache storage not configured")
	}

	blob, ok, err := a.store.Get(ctx, a.CacheID())
	if err != nil {
		return errors.Wrap(types.ErrLoadCacheFailed, err.Error())
	}
	if !ok {
		return errors.Wrapf(types.ErrLoadCacheFailed, "no cache entry %s", a.CacheID())
	}

	var snap snapshot
	if err := json.Unmarshal(blob, &snap); err != nil {
		return errors.Wrap(types.ErrLoadCacheFailed, err.Error())
	}
	if snap.Address != a.account.Address || snap.ChainID != a.chain {
		return errors.Wrapf(types.ErrLoadCacheFailed, "cache entry %s belongs to another account", a.CacheID())
	}

	a.setLinked(snap.COA, snap.Children)
	return nil
}
