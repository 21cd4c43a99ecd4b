package indexer

import (
	"github.com/SafeMPC/flow-wallet-kit/internal/crypto"
	"github.com/SafeMPC/flow-wallet-kit/internal/flow"
	"github.com/SafeMPC/flow-wallet-kit/internal/types"
	"github.com/pkg/errors"
)

// Response 索引服务返回：每个 (账户, 密钥) 对一行
type Response struct {
	PublicKey string       `json:"publicKey"`
	Accounts  []AccountRow `json:"accounts"`
}

// AccountRow 索引服务中的一行
type AccountRow struct {
	Address   string `json:"address"`
	KeyID     uint32 `json:"keyId"`
	Weight    int    `json:"weight"`
	SigAlgo   int    `json:"sigAlgo"`
	HashAlgo  int    `json:"hashAlgo"`
	Signing   string `json:"signing"`
	Hashing   string `json:"hashing"`
	IsRevoked bool   `json:"isRevoked"`
}

func (r AccountRow) signingAlgorithm() crypto.SigningAlgorithm {
	if r.SigAlgo != 0 {
		return crypto.SigningAlgorithm(r.SigAlgo)
	}
	return crypto.ParseSigningAlgorithm(r.Signing)
}

func (r AccountRow) hashingAlgorithm() crypto.HashingAlgorithm {
	if r.HashAlgo != 0 {
		return crypto.HashingAlgorithm(r.HashAlgo)
	}
	return crypto.ParseHashingAlgorithm(r.Hashing)
}

// FlowAccounts 按地址聚合行：K 个不同地址得到 K 个账户，账户密钥总数等于行数。
// 账户按地址首次出现的顺序排列，所有密钥的公钥都是查询的公钥。
func (r *Response) FlowAccounts() ([]flow.Account, error) {
	publicKey, err := crypto.DecodePublicKeyHex(r.PublicKey)
	if err != nil && len(r.Accounts) > 0 {
		return nil, errors.Wrapf(types.ErrDecodeKeyIndexerFailed, "invalid public key %q", r.PublicKey)
	}

	accounts := make([]flow.Account, 0)
	positions := make(map[flow.Address]int)

	for _, row := range r.Accounts {
		addr, err := flow.ParseAddress(row.Address)
		if err != nil {
			return nil, errors.Wrapf(types.ErrDecodeKeyIndexerFailed, "invalid address %q", row.Address)
		}

		key := flow.AccountPublicKey{
			Index:     row.KeyID,
			PublicKey: append([]byte(nil), publicKey...),
			SigAlgo:   row.signingAlgorithm(),
			HashAlgo:  row.hashingAlgorithm(),
			Weight:    row.Weight,
			Revoked:   row.IsRevoked,
		}

		pos, ok := positions[addr]
		if !ok {
			positions[addr] = len(accounts)
			accounts = append(accounts, flow.Account{Address: addr, Keys: []flow.AccountPublicKey{key}})
			continue
		}
		accounts[pos].Keys = append(accounts[pos].Keys, key)
	}
	return accounts, nil
}

// FilterFullWeight 只保留至少有一个密钥权重 ≥ 1000 的账户
func FilterFullWeight(accounts []flow.Account) []flow.Account {
	out := make([]flow.Account, 0, len(accounts))
	for _, a := range accounts {
		if a.HasFullWeightKey() {
			out = append(out, a)
		}
	}
	return out
}
