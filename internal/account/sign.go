package account

import (
	"context"

	"github.com/SafeMPC/flow-wallet-kit/internal/flow"
	"github.com/SafeMPC/flow-wallet-kit/internal/types"
	"github.com/pkg/errors"
)

// userDomainTag Flow 用户消息域标签，右侧补零到 32 字节
var userDomainTag = paddedDomainTag("FLOW-V0.0-user")

func paddedDomainTag(tag string) []byte {
	out := make([]byte, 32)
	copy(out, tag)
	return out
}

// FindKeyInAccount 返回与账户密钥公钥匹配、未撤销且满权重的链上密钥
func (a *Account) FindKeyInAccount() []flow.AccountPublicKey {
	if a.key == nil {
		return nil
	}

	var matched []flow.AccountPublicKey
	for _, algo := range a.key.SupportedSigningAlgorithms() {
		pub := a.key.PublicKey(algo)
		if len(pub) == 0 {
			continue
		}
		matched = append(matched, a.account.MatchingKeys(pub, algo)...)
	}
	return matched
}

// SigningKey 签名时使用的链上密钥（第一个匹配项）
func (a *Account) SigningKey() (flow.AccountPublicKey, error) {
	if a.key == nil {
		return flow.AccountPublicKey{}, errors.Wrap(types.ErrEmptySignKey, "account has no key")
	}
	matched := a.FindKeyInAccount()
	if len(matched) == 0 {
		return flow.AccountPublicKey{}, errors.Wrapf(types.ErrEmptySignKey, "no full weight key on %s matches the account key", a.account.Address.Hex())
	}
	return matched[0], nil
}

// Sign 依次执行：查找匹配密钥、安全检查、签名
func (a *Account) Sign(ctx context.Context, message []byte) ([]byte, error) {
	signingKey, err := a.SigningKey()
	if err != nil {
		return nil, err
	}

	if a.security != nil {
		ok, err := a.security.VerifySecurity(ctx)
		if err != nil {
			return nil, errors.Wrap(types.ErrFailedSecurityCheck, err.Error())
		}
		if !ok {
			return nil, types.ErrFailedSecurityCheck
		}
	}

	return a.key.Sign(message, signingKey.SigAlgo, signingKey.HashAlgo)
}

// SignUserMessage 加上用户消息域标签后签名
func (a *Account) SignUserMessage(ctx context.Context, message []byte) ([]byte, error) {
	tagged := make([]byte, 0, len(userDomainTag)+len(message))
	tagged = append(tagged, userDomainTag...)
	tagged = append(tagged, message...)
	return a.Sign(ctx, tagged)
}
