// Package indexer 实现公钥索引服务客户端：按公钥查询候选链上账户，
// 并把按密钥展开的响应聚合成账户列表。
package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/SafeMPC/flow-wallet-kit/internal/flow"
	"github.com/SafeMPC/flow-wallet-kit/internal/metrics"
	"github.com/SafeMPC/flow-wallet-kit/internal/types"
	"github.com/SafeMPC/flow-wallet-kit/internal/util"
	"github.com/allegro/bigcache/v3"
	"github.com/pkg/errors"
)

// EndpointResolver 动态解析某网络的索引服务地址（例如 Consul）
type EndpointResolver interface {
	Endpoint(ctx context.Context, chain flow.ChainID) (string, error)
}

// Client 公钥索引服务客户端
type Client struct {
	endpoints map[flow.ChainID]string
	resolver  EndpointResolver
	http      *http.Client
	cache     *bigcache.BigCache
	metrics   *metrics.Service
}

// Option 客户端选项
type Option func(*Client) error

// WithHTTPClient 使用自定义 http.Client
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) error {
		client.http = c
		return nil
	}
}

// WithTimeout 设置请求超时
func WithTimeout(timeout time.Duration) Option {
	return func(client *Client) error {
		client.http = &http.Client{Timeout: timeout}
		return nil
	}
}

// WithResponseCache 按 (网络, 公钥) 缓存成功响应 ttl 时长
func WithResponseCache(ttl time.Duration) Option {
	return func(client *Client) error {
		if ttl <= 0 {
			return nil
		}
		cfg := bigcache.DefaultConfig(ttl)
		cfg.Verbose = false
		cache, err := bigcache.New(context.Background(), cfg)
		if err != nil {
			return errors.Wrap(err, "failed to create indexer response cache")
		}
		client.cache = cache
		return nil
	}
}

// WithMetrics 记录请求指标
func WithMetrics(m *metrics.Service) Option {
	return func(client *Client) error {
		client.metrics = m
		return nil
	}
}

// WithEndpointResolver 优先使用 resolver 解析地址，失败时回退到静态表
func WithEndpointResolver(r EndpointResolver) Option {
	return func(client *Client) error {
		client.resolver = r
		return nil
	}
}

// NewClient 创建客户端，endpoints 为网络到索引服务根地址的映射
func NewClient(endpoints map[flow.ChainID]string, opts ...Option) (*Client, error) {
	c := &Client{
		endpoints: make(map[flow.ChainID]string, len(endpoints)),
		http:      &http.Client{Timeout: 10 * time.Second},
	}
	for chain, endpoint := range endpoints {
		c.endpoints[chain] = strings.TrimRight(endpoint, "/")
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Close 释放响应缓存
func (c *Client) Close() error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Close()
}

func (c *Client) endpoint(ctx context.Context, chain flow.ChainID) (string, error) {
	if c.resolver != nil {
		endpoint, err := c.resolver.Endpoint(ctx, chain)
		if err == nil && endpoint != "" {
			return strings.TrimRight(endpoint, "/"), nil
		}
		util.LogFromContext(ctx).Warn().Err(err).Str("chain", chain.String()).Msg("Failed to resolve indexer endpoint, falling back to static table")
	}

	endpoint, ok := c.endpoints[chain]
	if !ok || endpoint == "" {
		return "", errors.Wrapf(types.ErrIncorrectKeyIndexerURL, "no key indexer configured for chain %q", chain)
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return "", errors.Wrapf(types.ErrIncorrectKeyIndexerURL, "invalid key indexer url %q", endpoint)
	}
	return endpoint, nil
}

func normalizePublicKey(publicKeyHex string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(publicKeyHex), "0x"))
}

// FindAccount 查询公钥对应的账户行
func (c *Client) FindAccount(ctx context.Context, publicKeyHex string, chain flow.ChainID) (*Response, error) {
	publicKey := normalizePublicKey(publicKeyHex)
	if publicKey == "" {
		return nil, errors.Wrap(types.ErrEmptyKey, "public key is empty")
	}

	base, err := c.endpoint(ctx, chain)
	if err != nil {
		return nil, err
	}

	cacheKey := chain.String() + ":" + publicKey
	if c.cache != nil {
		if body, err := c.cache.Get(cacheKey); err == nil {
			return decodeResponse(body)
		}
	}

	body, err := c.get(ctx, chain, fmt.Sprintf("%s/v1/accounts?publicKey=%s", base, url.QueryEscape(publicKey)))
	if err != nil {
		return nil, err
	}

	resp, err := decodeResponse(body)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Set(cacheKey, body); err != nil {
			util.LogFromContext(ctx).Debug().Err(err).Str("chain", chain.String()).Msg("Failed to cache indexer response")
		}
	}
	return resp, nil
}

func (c *Client) get(ctx context.Context, chain flow.ChainID, endpoint string) ([]byte, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrapf(types.ErrIncorrectKeyIndexerURL, "failed to create request: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveIndexerRequest(chain.String(), "error", time.Since(start))
		return nil, errors.Wrap(types.ErrKeyIndexerRequestFailed, err.Error())
	}
	defer resp.Body.Close()

	c.metrics.ObserveIndexerRequest(chain.String(), strconv.Itoa(resp.StatusCode), time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Wrapf(types.ErrKeyIndexerRequestFailed, "unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(types.ErrKeyIndexerRequestFailed, err.Error())
	}
	return body, nil
}

func decodeResponse(body []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(types.ErrDecodeKeyIndexerFailed, err.Error())
	}
	return &resp, nil
}

// FindFlowAccounts 查询并聚合为账户列表
func (c *Client) FindFlowAccounts(ctx context.Context, publicKeyHex string, chain flow.ChainID) ([]flow.Account, error) {
	resp, err := c.FindAccount(ctx, publicKeyHex, chain)
	if err != nil {
		return nil, err
	}
	return resp.FlowAccounts()
}

// FindAccountsWithFullWeight 只返回至少有一个满权重密钥的账户
func (c *Client) FindAccountsWithFullWeight(ctx context.Context, publicKeyHex string, chain flow.ChainID) ([]flow.Account, error) {
	accounts, err := c.FindFlowAccounts(ctx, publicKeyHex, chain)
	if err != nil {
		return nil, err
	}
	return FilterFullWeight(accounts), nil
}
