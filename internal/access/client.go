// Package access 实现 Flow Access 节点 REST 接口的最小客户端：
// 读取账户与密钥、执行只读脚本，以及基于脚本的关联账户查询。
package access

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/SafeMPC/flow-wallet-kit/internal/crypto"
	"github.com/SafeMPC/flow-wallet-kit/internal/flow"
	"github.com/SafeMPC/flow-wallet-kit/internal/metrics"
	"github.com/SafeMPC/flow-wallet-kit/internal/types"
	"github.com/SafeMPC/flow-wallet-kit/internal/util"
	"github.com/pkg/errors"
)

const (
	opGetAccount    = "get_account"
	opExecuteScript = "execute_script"
)

// Client Access 节点 REST 客户端
type Client struct {
	endpoints map[flow.ChainID]string
	http      *http.Client
	metrics   *metrics.Service
}

// Option 客户端选项
type Option func(*Client)

// WithHTTPClient 使用自定义 http.Client
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.http = c
	}
}

// WithTimeout 设置请求超时
func WithTimeout(timeout time.Duration) Option {
	return func(client *Client) {
		client.http = &http.Client{Timeout: timeout}
	}
}

// WithMetrics 记录请求指标
func WithMetrics(m *metrics.Service) Option {
	return func(client *Client) {
		client.metrics = m
	}
}

// NewClient 创建客户端
func NewClient(endpoints map[flow.ChainID]string, opts ...Option) *Client {
	c := &Client{
		endpoints: make(map[flow.ChainID]string, len(endpoints)),
		http:      &http.Client{Timeout: 15 * time.Second},
	}
	for chain, endpoint := range endpoints {
		c.endpoints[chain] = strings.TrimRight(endpoint, "/")
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type accountKeyDTO struct {
	Index            string `json:"index"`
	PublicKey        string `json:"public_key"`
	SigningAlgorithm string `json:"signing_algorithm"`
	HashingAlgorithm string `json:"hashing_algorithm"`
	SequenceNumber   string `json:"sequence_number"`
	Weight           string `json:"weight"`
	Revoked          bool   `json:"revoked"`
}

type accountDTO struct {
	Address   string            `json:"address"`
	Balance   string            `json:"balance"`
	Keys      []accountKeyDTO   `json:"keys"`
	Contracts map[string]string `json:"contracts"`
}

type scriptRequest struct {
	Script    string   `json:"script"`
	Arguments []string `json:"arguments"`
}

func (c *Client) endpoint(chain flow.ChainID) (string, error) {
	endpoint, ok := c.endpoints[chain]
	if !ok || endpoint == "" {
		return "", errors.Wrapf(types.ErrUnsupportedChain, "no access node configured for chain %q", chain)
	}
	return endpoint, nil
}

// GetAccount 读取账户及其全部密钥
func (c *Client) GetAccount(ctx context.Context, chain flow.ChainID, address flow.Address) (*flow.Account, error) {
	base, err := c.endpoint(chain)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v1/accounts/%s?block_height=sealed&expand=keys,contracts", base, strings.TrimPrefix(address.Hex(), "0x"))
	body, err := c.do(ctx, chain, opGetAccount, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var dto accountDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return nil, errors.Wrap(types.ErrAccessRequestFailed, err.Error())
	}
	return dto.toAccount()
}

func (dto accountDTO) toAccount() (*flow.Account, error) {
	addr, err := flow.ParseAddress(dto.Address)
	if err != nil {
		return nil, err
	}

	account := &flow.Account{Address: addr}
	if dto.Balance != "" {
		balance, err := strconv.ParseUint(dto.Balance, 10, 64)
		if err != nil {
			return nil, errors.Wrap(types.ErrAccessRequestFailed, "invalid balance")
		}
		account.Balance = balance
	}
	if len(dto.Contracts) > 0 {
		account.Contracts = make(map[string][]byte, len(dto.Contracts))
		for name, code := range dto.Contracts {
			decoded, err := base64.StdEncoding.DecodeString(code)
			if err != nil {
				decoded = []byte(code)
			}
			account.Contracts[name] = decoded
		}
	}

	for _, k := range dto.Keys {
		key, err := k.toKey()
		if err != nil {
			return nil, err
		}
		account.Keys = append(account.Keys, key)
	}
	return account, nil
}

func (k accountKeyDTO) toKey() (flow.AccountPublicKey, error) {
	index, err := strconv.ParseUint(k.Index, 10, 32)
	if err != nil {
		return flow.AccountPublicKey{}, errors.Wrapf(types.ErrAccessRequestFailed, "invalid key index %q", k.Index)
	}
	weight, err := strconv.Atoi(k.Weight)
	if err != nil {
		return flow.AccountPublicKey{}, errors.Wrapf(types.ErrAccessRequestFailed, "invalid key weight %q", k.Weight)
	}
	var seq uint64
	if k.SequenceNumber != "" {
		if seq, err = strconv.ParseUint(k.SequenceNumber, 10, 64); err != nil {
			return flow.AccountPublicKey{}, errors.Wrapf(types.ErrAccessRequestFailed, "invalid sequence number %q", k.SequenceNumber)
		}
	}
	pub, err := crypto.DecodePublicKeyHex(k.PublicKey)
	if err != nil {
		return flow.AccountPublicKey{}, errors.Wrap(types.ErrAccessRequestFailed, err.Error())
	}
	sigAlgo := crypto.ParseSigningAlgorithm(k.SigningAlgorithm)
	hashAlgo := crypto.ParseHashingAlgorithm(k.HashingAlgorithm)

	return flow.AccountPublicKey{
		Index:          uint32(index),
		PublicKey:      pub,
		SigAlgo:        sigAlgo,
		HashAlgo:       hashAlgo,
		Weight:         weight,
		Revoked:        k.Revoked,
		SequenceNumber: seq,
	}, nil
}

// ExecuteScript 在最新封存区块上执行只读脚本
func (c *Client) ExecuteScript(ctx context.Context, chain flow.ChainID, script string, args ...CadenceValue) (CadenceValue, error) {
	base, err := c.endpoint(chain)
	if err != nil {
		return CadenceValue{}, err
	}

	req := scriptRequest{
		Script:    base64.StdEncoding.EncodeToString([]byte(script)),
		Arguments: make([]string, 0, len(args)),
	}
	for _, arg := range args {
		raw, err := json.Marshal(arg)
		if err != nil {
			return CadenceValue{}, errors.Wrap(err, "failed to encode script argument")
		}
		req.Arguments = append(req.Arguments, base64.StdEncoding.EncodeToString(raw))
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return CadenceValue{}, errors.Wrap(err, "failed to encode script request")
	}

	body, err := c.do(ctx, chain, opExecuteScript, http.MethodPost, base+"/v1/scripts?block_height=sealed", payload)
	if err != nil {
		return CadenceValue{}, err
	}

	var encoded string
	if err := json.Unmarshal(body, &encoded); err != nil {
		return CadenceValue{}, errors.Wrap(types.ErrAccessRequestFailed, "script result is not a base64 string")
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return CadenceValue{}, errors.Wrap(types.ErrAccessRequestFailed, err.Error())
	}

	var value CadenceValue
	if err := json.Unmarshal(raw, &value); err != nil {
		return CadenceValue{}, errors.Wrap(types.ErrAccessRequestFailed, err.Error())
	}
	return value, nil
}

func (c *Client) do(ctx context.Context, chain flow.ChainID, operation string, method string, endpoint string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveAccessRequest(chain.String(), operation, "error")
		return nil, errors.Wrap(types.ErrAccessRequestFailed, err.Error())
	}
	defer resp.Body.Close()

	c.metrics.ObserveAccessRequest(chain.String(), operation, strconv.Itoa(resp.StatusCode))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(types.ErrAccessRequestFailed, err.Error())
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		util.LogFromContext(ctx).Debug().Str("chain", chain.String()).Str("operation", operation).Int("status", resp.StatusCode).Bytes("body", body).Msg("Access node request failed")
		if resp.StatusCode == http.StatusNotFound && operation == opGetAccount {
			return nil, errors.Wrapf(types.ErrAccountNotFound, "%s returned status %d", operation, resp.StatusCode)
		}
		return nil, errors.Wrapf(types.ErrAccessRequestFailed, "%s returned status %d", operation, resp.StatusCode)
	}
	return body, nil
}
