package flow

import (
	"bytes"

	"github.com/SafeMPC/flow-wallet-kit/internal/crypto"
)

// FullWeight 单个密钥即可完全控制账户所需的权重
const FullWeight = 1000

// AccountPublicKey 链上账户密钥
type AccountPublicKey struct {
	Index          uint32                  `json:"index"`
	PublicKey      []byte                  `json:"publicKey"`
	SigAlgo        crypto.SigningAlgorithm `json:"sigAlgo"`
	HashAlgo       crypto.HashingAlgorithm `json:"hashAlgo"`
	Weight         int                     `json:"weight"`
	Revoked        bool                    `json:"revoked"`
	SequenceNumber uint64                  `json:"sequenceNumber"`
}

// HasFullWeight 未撤销且权重 ≥ FullWeight
func (k AccountPublicKey) HasFullWeight() bool {
	return !k.Revoked && k.Weight >= FullWeight
}

// Account 链上账户
type Account struct {
	Address   Address            `json:"address"`
	Balance   uint64             `json:"balance"`
	Keys      []AccountPublicKey `json:"keys"`
	Contracts map[string][]byte  `json:"contracts,omitempty"`
}

// Key 按索引查找账户密钥
func (a *Account) Key(index uint32) (AccountPublicKey, bool) {
	for _, k := range a.Keys {
		if k.Index == index {
			return k, true
		}
	}
	return AccountPublicKey{}, false
}

// HasFullWeightKey 是否存在至少一个满权重密钥（只看权重，与索引器过滤一致）
func (a *Account) HasFullWeightKey() bool {
	for _, k := range a.Keys {
		if k.Weight >= FullWeight {
			return true
		}
	}
	return false
}

// MatchingKeys 返回公钥与签名算法都匹配、未撤销且满权重的密钥
func (a *Account) MatchingKeys(publicKey []byte, algo crypto.SigningAlgorithm) []AccountPublicKey {
	var out []AccountPublicKey
	if len(publicKey) == 0 {
		return out
	}
	for _, k := range a.Keys {
		if k.SigAlgo == algo && k.HasFullWeight() && bytes.Equal(k.PublicKey, publicKey) {
			out = append(out, k)
		}
	}
	return out
}

// MergeKeys 按索引合并另一组密钥，已有索引保持不变
func (a *Account) MergeKeys(keys []AccountPublicKey) {
	for _, k := range keys {
		if _, ok := a.Key(k.Index); ok {
			continue
		}
		a.Keys = append(a.Keys, k)
	}
}
