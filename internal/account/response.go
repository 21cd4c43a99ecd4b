package account

import (
	"encoding/hex"
	"sort"

	"github.com/SafeMPC/flow-wallet-kit/internal/flow"
	"github.com/SafeMPC/flow-wallet-kit/internal/types"
)

// FlowAccountResponse 链上账户的对外表示，不含关联账户
func FlowAccountResponse(a flow.Account, chain flow.ChainID) types.AccountResponse {
	keys := make([]types.AccountKeyResponse, 0, len(a.Keys))
	for _, k := range a.Keys {
		keys = append(keys, types.AccountKeyResponse{
			Index:            k.Index,
			PublicKey:        hex.EncodeToString(k.PublicKey),
			SigningAlgorithm: k.SigAlgo.String(),
			HashingAlgorithm: k.HashAlgo.String(),
			Weight:           k.Weight,
			Revoked:          k.Revoked,
			SequenceNumber:   k.SequenceNumber,
		})
	}

	var contracts []string
	for name := range a.Contracts {
		contracts = append(contracts, name)
	}
	sort.Strings(contracts)

	return types.AccountResponse{
		Address:   a.Address.Hex(),
		Network:   chain.String(),
		Balance:   a.Balance,
		Keys:      keys,
		Contracts: contracts,
	}
}

// Response 账户及当前已加载的子账户与 COA
func (a *Account) Response() types.AccountResponse {
	res := FlowAccountResponse(a.FlowAccount(), a.ChainID())
	for _, child := range a.Children() {
		c := types.ChildAccountResponse{
			Address:     child.Address.Hex(),
			Name:        child.Name,
			Description: child.Description,
			Icon:        child.Icon,
		}
		for _, p := range child.Permissions {
			c.Permissions = append(c.Permissions, types.TokenPermissionResponse{
				Kind:       string(p.Kind),
				Identifier: p.Identifier,
				Read:       p.Read,
				Transfer:   p.Transfer,
				Mint:       p.Mint,
				Burn:       p.Burn,
			})
		}
		res.Children = append(res.Children, c)
	}
	if coa := a.COA(); coa != nil {
		res.COA = &types.COAResponse{Address: coa.Address}
	}
	return res
}
