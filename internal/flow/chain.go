// Package flow 定义钱包核心使用的 Flow 链数据模型
package flow

import (
	"strings"

	"github.com/SafeMPC/flow-wallet-kit/internal/types"
	"github.com/pkg/errors"
)

// ChainID Flow 网络标识
type ChainID string

const (
	Mainnet  ChainID = "mainnet"
	Testnet  ChainID = "testnet"
	Emulator ChainID = "emulator"
)

// AllChainIDs 已知的全部网络
var AllChainIDs = []ChainID{Mainnet, Testnet, Emulator}

func (c ChainID) String() string {
	return string(c)
}

// ParseChainID 解析网络名称，兼容 "flow-mainnet" 形式
func ParseChainID(s string) (ChainID, error) {
	name := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "flow-")
	switch ChainID(name) {
	case Mainnet, Testnet, Emulator:
		return ChainID(name), nil
	case "local", "localnet":
		return Emulator, nil
	}
	return "", errors.Wrapf(types.ErrUnsupportedChain, "chain %q", s)
}

// ParseChainIDs 解析一组网络名称并去重，保持输入顺序
func ParseChainIDs(names []string) ([]ChainID, error) {
	out := make([]ChainID, 0, len(names))
	seen := make(map[ChainID]struct{}, len(names))
	for _, name := range names {
		id, err := ParseChainID(name)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}
