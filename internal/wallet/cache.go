package wallet

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/SafeMPC/flow-wallet-kit/internal/account"
	"github.com/SafeMPC/flow-wallet-kit/internal/flow"
	"github.com/SafeMPC/flow-wallet-kit/internal/types"
	"github.com/pkg/errors"
)

// cachePrefix 钱包缓存 ID 前缀
const cachePrefix = "Wallets"

// CacheID 缓存条目 ID：Wallets-<typeId>
func (c *container) CacheID() string {
	return strings.Join([]string{cachePrefix, c.typeID}, "-")
}

// Cache 把各网络的链上账户写入存储
func (c *container) Cache(ctx context.Context) error {
	if c.store == nil {
		return errors.New("cache storage not configured")
	}

	snap := c.Accounts()
	payload := make(map[flow.ChainID][]flow.Account, len(snap))
	for chain, list := range snap {
		accounts := make([]flow.Account, 0, len(list))
		for _, a := range list {
			accounts = append(accounts, a.FlowAccount())
		}
		payload[chain] = accounts
	}

	blob, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "failed to encode wallet cache")
	}
	return c.store.Set(ctx, c.CacheID(), blob)
}

// LoadCache 从存储恢复账户并发布，条目缺失或无法解析时返回 ErrLoadCacheFailed
func (c *container) LoadCache(ctx context.Context) error {
	if c.store == nil {
		return errors.Wrap(types.ErrLoadCacheFailed, "cache storage not configured")
	}

	blob, ok, err := c.store.Get(ctx, c.CacheID())
	if err != nil {
		return errors.Wrap(types.ErrLoadCacheFailed, err.Error())
	}
	if !ok {
		return errors.Wrapf(types.ErrLoadCacheFailed, "no cache entry %s", c.CacheID())
	}

	var payload map[flow.ChainID][]flow.Account
	if err := json.Unmarshal(blob, &payload); err != nil {
		return errors.Wrap(types.ErrLoadCacheFailed, err.Error())
	}

	next := make(Snapshot, len(payload))
	c.mu.Lock()
	defer c.mu.Unlock()
	for chain, accounts := range payload {
		if !c.hasNetwork(chain) {
			continue
		}
		list := make([]*account.Account, 0, len(accounts))
		for _, a := range accounts {
			list = append(list, c.newAccount(a, chain))
		}
		next[chain] = list
	}
	c.publishLocked(next)
	return nil
}
