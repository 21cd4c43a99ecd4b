package api

import (
	"context"
	"encoding/hex"
	"strings"
	"time"

	"github.com/SafeMPC/flow-wallet-kit/internal/access"
	"github.com/SafeMPC/flow-wallet-kit/internal/config"
	"github.com/SafeMPC/flow-wallet-kit/internal/discovery"
	"github.com/SafeMPC/flow-wallet-kit/internal/flow"
	"github.com/SafeMPC/flow-wallet-kit/internal/indexer"
	"github.com/SafeMPC/flow-wallet-kit/internal/keys"
	"github.com/SafeMPC/flow-wallet-kit/internal/metrics"
	"github.com/SafeMPC/flow-wallet-kit/internal/storage"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// PROVIDERS - define here only providers that for various reasons (e.g. cyclic dependency) can't live in their corresponding packages
// or for wrapping providers that only accept sub-configs to prevent the requirements for defining providers for sub-configs.
// https://github.com/google/wire/blob/main/docs/guide.md#defining-providers

// NewNetworks 解析配置中的网络列表
func NewNetworks(cfg config.Server) ([]flow.ChainID, error) {
	return flow.ParseChainIDs(cfg.Networks)
}

func chainMap(endpoints map[string]string) (map[flow.ChainID]string, error) {
	out := make(map[flow.ChainID]string, len(endpoints))
	for name, endpoint := range endpoints {
		chain, err := flow.ParseChainID(name)
		if err != nil {
			return nil, err
		}
		out[chain] = endpoint
	}
	return out, nil
}

// NewStorage 按 storage.backend 创建存储后端
func NewStorage(cfg config.Server) (storage.Storage, error) {
	sc := cfg.Storage

	switch strings.ToLower(sc.Backend) {
	case "memory", "":
		log.Warn().Msg("Using in-memory storage, keys and caches are lost on restart")
		return storage.NewMemoryStorage(), nil

	case "badger":
		var encryptionKey []byte
		if sc.EncryptionKey != "" {
			key, err := hex.DecodeString(sc.EncryptionKey)
			if err != nil {
				return nil, errors.Wrap(err, "storage.encryption_key must be hex encoded")
			}
			encryptionKey = key
		}
		store, err := storage.NewBadgerStorage(storage.BadgerOptions{Path: sc.Path, EncryptionKey: encryptionKey})
		if err != nil {
			return nil, err
		}
		return store, nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     sc.RedisAddr,
			Password: sc.RedisPassword,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, errors.Wrap(err, "failed to ping redis")
		}
		return storage.NewRedisStorage(client, sc.RedisPrefix), nil

	case "consul":
		store, err := storage.NewConsulStorage(sc.ConsulAddress, sc.ConsulPrefix)
		if err != nil {
			return nil, err
		}
		return store, nil

	case "postgres":
		if sc.PostgresDSN == "" {
			return nil, errors.New("storage.postgres_dsn is not configured")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		store, err := storage.OpenPostgreSQLStorage(ctx, sc.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	}

	return nil, errors.Errorf("unknown storage backend %q", sc.Backend)
}

// NewEndpointResolver 配置了 indexer.consul_address 时从 Consul 解析索引服务地址
func NewEndpointResolver(cfg config.Server) (indexer.EndpointResolver, error) {
	if cfg.Indexer.ConsulAddress == "" {
		return nil, nil
	}

	consul, err := discovery.NewConsulDiscovery(cfg.Indexer.ConsulAddress)
	if err != nil {
		return nil, err
	}
	return discovery.NewEndpointResolver(consul, cfg.Indexer.ConsulService, discovery.NewRoundRobinLoadBalancer()), nil
}

// NewIndexerClient 创建公钥索引服务客户端
func NewIndexerClient(cfg config.Server, m *metrics.Service, resolver indexer.EndpointResolver) (*indexer.Client, error) {
	endpoints, err := chainMap(cfg.Indexer.Endpoints)
	if err != nil {
		return nil, errors.Wrap(err, "invalid indexer endpoints")
	}

	opts := []indexer.Option{
		indexer.WithTimeout(cfg.Indexer.Timeout),
		indexer.WithResponseCache(cfg.Indexer.CacheTTL),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, indexer.WithMetrics(m))
	}
	if resolver != nil {
		opts = append(opts, indexer.WithEndpointResolver(resolver))
	}
	return indexer.NewClient(endpoints, opts...)
}

// NewAccessClient 创建 Access REST 客户端
func NewAccessClient(cfg config.Server, m *metrics.Service) (*access.Client, error) {
	endpoints, err := chainMap(cfg.Access.Endpoints)
	if err != nil {
		return nil, errors.Wrap(err, "invalid access endpoints")
	}

	opts := []access.Option{access.WithTimeout(cfg.Access.Timeout)}
	if cfg.Metrics.Enabled {
		opts = append(opts, access.WithMetrics(m))
	}
	return access.NewClient(endpoints, opts...), nil
}

// NewLinkedAccounts 创建基于脚本的关联账户查询器
func NewLinkedAccounts(cfg config.Server, client *access.Client) (*access.LinkedAccounts, error) {
	contracts := make(map[flow.ChainID]access.Contracts, len(cfg.Contracts))
	for name, c := range cfg.Contracts {
		chain, err := flow.ParseChainID(name)
		if err != nil {
			return nil, errors.Wrap(err, "invalid contracts network")
		}
		contracts[chain] = access.Contracts{
			HybridCustody:    c.HybridCustody,
			MetadataViews:    c.MetadataViews,
			FungibleToken:    c.FungibleToken,
			NonFungibleToken: c.NonFungibleToken,
			EVM:              c.EVM,
		}
	}
	return access.NewLinkedAccounts(client, contracts), nil
}

// NewEnclave 按 enclave.backend 创建硬件密钥容器
func NewEnclave(cfg config.Server) (keys.Enclave, error) {
	switch strings.ToLower(cfg.Enclave.Backend) {
	case "software", "":
		return keys.NewSoftwareEnclave(), nil
	case "pkcs11":
		enclave, err := keys.NewPKCS11Enclave(keys.PKCS11Config{
			Library:   cfg.Enclave.PKCS11Library,
			SlotIndex: cfg.Enclave.PKCS11Slot,
			PIN:       cfg.Enclave.PKCS11PIN,
		})
		if err != nil {
			return nil, err
		}
		return enclave, nil
	}
	return nil, errors.Errorf("unknown enclave backend %q", cfg.Enclave.Backend)
}
