package access

import (
	"context"
	"strings"

	"github.com/SafeMPC/flow-wallet-kit/internal/flow"
	"github.com/SafeMPC/flow-wallet-kit/internal/types"
	"github.com/pkg/errors"
)

// Contracts 脚本依赖的核心合约地址
type Contracts struct {
	HybridCustody    string
	MetadataViews    string
	FungibleToken    string
	NonFungibleToken string
	EVM              string
}

// childMetadataScript 返回 {子账户: {字段: 值}}，除展示字段外，
// 子账户中每个 Vault/Collection 以 "ft:<类型>" / "nft:<类型>" 为键，值为授权列表
const childMetadataScript = `import HybridCustody from 0xHybridCustody
import MetadataViews from 0xMetadataViews
import FungibleToken from 0xFungibleToken
import NonFungibleToken from 0xNonFungibleToken

access(all) fun grants(child: &{HybridCustody.AccountPublic}, providerType: Type, path: StoragePath): String {
    if child.getControllerIDForType(type: providerType, forPath: path) != nil {
        return "read,transfer"
    }
    return "read"
}

access(all) fun main(parent: Address): {Address: {String: String}} {
    var res: {Address: {String: String}} = {}
    let acct = getAuthAccount<auth(Storage) &Account>(parent)
    if let manager = acct.storage.borrow<auth(HybridCustody.Manage) &HybridCustody.Manager>(from: HybridCustody.ManagerStoragePath) {
        for child in manager.getChildAddresses() {
            var meta: {String: String} = {}
            if let display = manager.getChildAccountDisplay(address: child) {
                meta["name"] = display.name
                meta["description"] = display.description
                meta["thumbnail"] = display.thumbnail.uri()
            }
            if let childAcct = manager.borrowAccount(addr: child) {
                let ftProvider = Type<auth(FungibleToken.Withdraw) &{FungibleToken.Provider}>()
                let nftProvider = Type<auth(NonFungibleToken.Withdraw) &{NonFungibleToken.Provider}>()
                getAuthAccount<auth(Storage) &Account>(child).storage.forEachStored(fun (path: StoragePath, type: Type): Bool {
                    if type.isSubtype(of: Type<@{FungibleToken.Vault}>()) {
                        meta["ft:".concat(type.identifier)] = grants(child: childAcct, providerType: ftProvider, path: path)
                    } else if type.isSubtype(of: Type<@{NonFungibleToken.Collection}>()) {
                        meta["nft:".concat(type.identifier)] = grants(child: childAcct, providerType: nftProvider, path: path)
                    }
                    return true
                })
            }
            res[child] = meta
        }
    }
    return res
}
`

const coaAddressScript = `import EVM from 0xEVM

access(all) fun main(flowAddress: Address): String? {
    if let address: EVM.EVMAddress = getAuthAccount<auth(BorrowValue) &Account>(flowAddress)
        .storage.borrow<&EVM.CadenceOwnedAccount>(from: /storage/evm)?.address() {
        let bytes: [UInt8] = []
        for byte in address.bytes {
            bytes.append(byte)
        }
        return String.encodeHex(bytes)
    }
    return nil
}
`

// LinkedAccounts 基于脚本查询子账户与 COA
type LinkedAccounts struct {
	client    *Client
	contracts map[flow.ChainID]Contracts
}

// NewLinkedAccounts 创建关联账户查询器
func NewLinkedAccounts(client *Client, contracts map[flow.ChainID]Contracts) *LinkedAccounts {
	return &LinkedAccounts{client: client, contracts: contracts}
}

func (l *LinkedAccounts) script(chain flow.ChainID, template string) (string, error) {
	contracts, ok := l.contracts[chain]
	if !ok {
		return "", errors.Wrapf(types.ErrUnsupportedChain, "no contract addresses configured for chain %q", chain)
	}
	return strings.NewReplacer(
		"0xHybridCustody", contracts.HybridCustody,
		"0xMetadataViews", contracts.MetadataViews,
		"0xNonFungibleToken", contracts.NonFungibleToken,
		"0xFungibleToken", contracts.FungibleToken,
		"0xEVM", contracts.EVM,
	).Replace(template), nil
}

// ChildMetadata 返回 parent 管理的所有子账户及其展示信息
func (l *LinkedAccounts) ChildMetadata(ctx context.Context, chain flow.ChainID, parent flow.Address) (map[flow.Address]flow.ChildMetadata, error) {
	script, err := l.script(chain, childMetadataScript)
	if err != nil {
		return nil, err
	}

	value, err := l.client.ExecuteScript(ctx, chain, script, AddressArgument(parent))
	if err != nil {
		return nil, err
	}

	entries, err := value.Dictionary()
	if err != nil {
		return nil, errors.Wrap(types.ErrAccessRequestFailed, err.Error())
	}

	children := make(map[flow.Address]flow.ChildMetadata, len(entries))
	for _, e := range entries {
		addr, err := e.Key.Address()
		if err != nil {
			return nil, errors.Wrap(types.ErrAccessRequestFailed, err.Error())
		}
		meta, err := e.Value.StringMap()
		if err != nil {
			return nil, errors.Wrap(types.ErrAccessRequestFailed, err.Error())
		}
		children[addr] = childMetadata(meta)
	}
	return children, nil
}

func childMetadata(meta map[string]string) flow.ChildMetadata {
	m := flow.ChildMetadata{
		Name:        meta["name"],
		Description: meta["description"],
		Icon:        meta["thumbnail"],
	}
	for key, grants := range meta {
		if p, ok := flow.ParseTokenPermission(key, grants); ok {
			m.Permissions = append(m.Permissions, p)
		}
	}
	flow.SortTokenPermissions(m.Permissions)
	return m
}

// EVMAddress 返回账户持有的 COA 地址，没有 COA 时返回空字符串
func (l *LinkedAccounts) EVMAddress(ctx context.Context, chain flow.ChainID, address flow.Address) (string, error) {
	script, err := l.script(chain, coaAddressScript)
	if err != nil {
		return "", err
	}

	value, err := l.client.ExecuteScript(ctx, chain, script, AddressArgument(address))
	if err != nil {
		return "", err
	}
	if value.IsNil() {
		return "", nil
	}

	s, err := value.String()
	if err != nil {
		return "", errors.Wrap(types.ErrAccessRequestFailed, err.Error())
	}
	if s == "" {
		return "", nil
	}
	return "0x" + strings.TrimPrefix(s, "0x"), nil
}
