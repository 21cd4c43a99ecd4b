package flow

import (
	"sort"
	"strings"

	"github.com/SafeMPC/flow-wallet-kit/internal/crypto"
	"github.com/SafeMPC/flow-wallet-kit/internal/types"
	"github.com/pkg/errors"
)

// TokenKind 代币类型
type TokenKind string

const (
	FungibleToken    TokenKind = "ft"
	NonFungibleToken TokenKind = "nft"
)

// TokenPermission 子账户上授权给父账户的代币能力
type TokenPermission struct {
	Kind       TokenKind `json:"kind"`
	Identifier string    `json:"identifier"`
	Read       bool      `json:"read"`
	Transfer   bool      `json:"transfer"`
	Mint       bool      `json:"mint"`
	Burn       bool      `json:"burn"`
}

// TokenPermissionKey 权限条目的键，形如 "ft:<类型标识>" 或 "nft:<类型标识>"
func TokenPermissionKey(kind TokenKind, identifier string) string {
	return string(kind) + ":" + identifier
}

// Grants 以逗号分隔的授权列表，如 "read,transfer"
func (p TokenPermission) Grants() string {
	grants := make([]string, 0, 4)
	if p.Read {
		grants = append(grants, "read")
	}
	if p.Transfer {
		grants = append(grants, "transfer")
	}
	if p.Mint {
		grants = append(grants, "mint")
	}
	if p.Burn {
		grants = append(grants, "burn")
	}
	return strings.Join(grants, ",")
}

// ParseTokenPermission 解析一条权限条目；键不是 ft/nft 前缀时返回 false
func ParseTokenPermission(key string, grants string) (TokenPermission, bool) {
	kind, identifier, ok := strings.Cut(key, ":")
	if !ok || identifier == "" {
		return TokenPermission{}, false
	}
	switch TokenKind(kind) {
	case FungibleToken, NonFungibleToken:
	default:
		return TokenPermission{}, false
	}

	p := TokenPermission{Kind: TokenKind(kind), Identifier: identifier}
	for _, g := range strings.Split(grants, ",") {
		switch strings.TrimSpace(g) {
		case "read":
			p.Read = true
		case "transfer":
			p.Transfer = true
		case "mint":
			p.Mint = true
		case "burn":
			p.Burn = true
		}
	}
	return p, true
}

// SortTokenPermissions 按类型、标识排序
func SortTokenPermissions(perms []TokenPermission) {
	sort.Slice(perms, func(i, j int) bool {
		if perms[i].Kind != perms[j].Kind {
			return perms[i].Kind < perms[j].Kind
		}
		return perms[i].Identifier < perms[j].Identifier
	})
}

// ChildMetadata 账户图谱返回的子账户展示信息与代币授权
type ChildMetadata struct {
	Name        string            `json:"name,omitempty"`
	Description string            `json:"description,omitempty"`
	Icon        string            `json:"icon,omitempty"`
	Permissions []TokenPermission `json:"permissions,omitempty"`
}

// ChildAccount 通过 HybridCustody 关联的子账户
type ChildAccount struct {
	Address     Address           `json:"address"`
	ChainID     ChainID           `json:"chainId"`
	Parent      Address           `json:"parent"`
	Name        string            `json:"name,omitempty"`
	Description string            `json:"description,omitempty"`
	Icon        string            `json:"icon,omitempty"`
	Permissions []TokenPermission `json:"permissions,omitempty"`
}

// COA Cadence-Owned-Account，账户在 EVM 层的影子账户
type COA struct {
	Address string  `json:"address"`
	ChainID ChainID `json:"chainId"`
}

// NewCOA 校验 EVM 地址后构造 COA
func NewCOA(address string, chainID ChainID) (*COA, error) {
	if !crypto.IsValidEVMAddress(address) {
		return nil, errors.Wrapf(types.ErrInvalidEVMAddress, "address %q", address)
	}
	return &COA{Address: address, ChainID: chainID}, nil
}
