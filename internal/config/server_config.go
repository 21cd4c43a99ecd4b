package config

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

const envPrefix = "WALLETKIT"

// LoggerServer 日志配置
type LoggerServer struct {
	Level              string `mapstructure:"level"`
	PrettyPrintConsole bool   `mapstructure:"pretty_print_console"`
	// File 非空时同时写入滚动日志文件
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ZerologLevel 解析日志级别，无法识别时使用 info
func (l LoggerServer) ZerologLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(l.Level))
	if err != nil || l.Level == "" {
		return zerolog.InfoLevel
	}
	return level
}

// EchoServer HTTP 服务配置
type EchoServer struct {
	ListenAddress string        `mapstructure:"listen_address"`
	Debug         bool          `mapstructure:"debug"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
}

// Indexer 公钥索引服务配置
type Indexer struct {
	// Endpoints 网络 -> 索引服务地址
	Endpoints map[string]string `mapstructure:"endpoints"`
	Timeout   time.Duration     `mapstructure:"timeout"`
	// CacheTTL 大于 0 时启用响应缓存
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	// ConsulAddress 非空时从 Consul 解析索引服务地址
	ConsulAddress string `mapstructure:"consul_address"`
	ConsulService string `mapstructure:"consul_service"`
}

// Access Flow Access REST API 配置
type Access struct {
	Endpoints map[string]string `mapstructure:"endpoints"`
	Timeout   time.Duration     `mapstructure:"timeout"`
}

// ChainContracts 某个网络上脚本依赖的合约地址
type ChainContracts struct {
	HybridCustody    string `mapstructure:"hybrid_custody"`
	MetadataViews    string `mapstructure:"metadata_views"`
	FungibleToken    string `mapstructure:"fungible_token"`
	NonFungibleToken string `mapstructure:"non_fungible_token"`
	EVM              string `mapstructure:"evm"`
}

// Storage 存储后端配置
type Storage struct {
	// Backend memory | badger | redis | consul | postgres
	Backend       string `mapstructure:"backend"`
	Path          string `mapstructure:"path"`
	EncryptionKey string `mapstructure:"encryption_key"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisPrefix   string `mapstructure:"redis_prefix"`
	ConsulAddress string `mapstructure:"consul_address"`
	ConsulPrefix  string `mapstructure:"consul_prefix"`
	PostgresDSN   string `mapstructure:"postgres_dsn"`
}

// Enclave 硬件密钥配置
type Enclave struct {
	// Backend software | pkcs11
	Backend       string `mapstructure:"backend"`
	PKCS11Library string `mapstructure:"pkcs11_library"`
	PKCS11Slot    int    `mapstructure:"pkcs11_slot"`
	PKCS11PIN     string `mapstructure:"pkcs11_pin"`
}

// Metrics 指标配置
type Metrics struct {
	Enabled bool `mapstructure:"enabled"`
}

// Discovery 服务自注册配置，ConsulAddress 为空时不注册
type Discovery struct {
	ConsulAddress  string   `mapstructure:"consul_address"`
	ServiceName    string   `mapstructure:"service_name"`
	ServiceAddress string   `mapstructure:"service_address"`
	ServicePort    int      `mapstructure:"service_port"`
	Tags           []string `mapstructure:"tags"`
}

// Server 服务整体配置
type Server struct {
	Logger    LoggerServer              `mapstructure:"logger"`
	Echo      EchoServer                `mapstructure:"echo"`
	Networks  []string                  `mapstructure:"networks"`
	Indexer   Indexer                   `mapstructure:"indexer"`
	Access    Access                    `mapstructure:"access"`
	Contracts map[string]ChainContracts `mapstructure:"contracts"`
	Storage   Storage                   `mapstructure:"storage"`
	Enclave   Enclave                   `mapstructure:"enclave"`
	Metrics   Metrics                   `mapstructure:"metrics"`
	Discovery Discovery                 `mapstructure:"discovery"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.pretty_print_console", false)
	v.SetDefault("logger.file", "")
	v.SetDefault("logger.max_size_mb", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age_days", 30)
	v.SetDefault("logger.compress", true)

	v.SetDefault("echo.listen_address", ":8080")
	v.SetDefault("echo.debug", false)
	v.SetDefault("echo.read_timeout", 15*time.Second)
	v.SetDefault("echo.write_timeout", 30*time.Second)

	v.SetDefault("networks", []string{"mainnet", "testnet"})

	v.SetDefault("indexer.endpoints.mainnet", "https://production.key-indexer.flow.com")
	v.SetDefault("indexer.endpoints.testnet", "https://staging.key-indexer.flow.com")
	v.SetDefault("indexer.endpoints.emulator", "http://localhost:8888")
	v.SetDefault("indexer.timeout", 10*time.Second)
	v.SetDefault("indexer.cache_ttl", 30*time.Second)
	v.SetDefault("indexer.consul_address", "")
	v.SetDefault("indexer.consul_service", "flow-key-indexer")

	v.SetDefault("access.endpoints.mainnet", "https://rest-mainnet.onflow.org")
	v.SetDefault("access.endpoints.testnet", "https://rest-testnet.onflow.org")
	v.SetDefault("access.endpoints.emulator", "http://localhost:8888")
	v.SetDefault("access.timeout", 15*time.Second)

	v.SetDefault("contracts.mainnet.hybrid_custody", "0xd8a7e05a7ac670c0")
	v.SetDefault("contracts.mainnet.metadata_views", "0x1d7e57aa55817448")
	v.SetDefault("contracts.mainnet.fungible_token", "0xf233dcee88fe0abe")
	v.SetDefault("contracts.mainnet.non_fungible_token", "0x1d7e57aa55817448")
	v.SetDefault("contracts.mainnet.evm", "0xe467b9dd11fa00df")
	v.SetDefault("contracts.testnet.hybrid_custody", "0x294e44e1ec6993c6")
	v.SetDefault("contracts.testnet.metadata_views", "0x631e88ae7f1d7c20")
	v.SetDefault("contracts.testnet.fungible_token", "0x9a0766d93b6608b7")
	v.SetDefault("contracts.testnet.non_fungible_token", "0x631e88ae7f1d7c20")
	v.SetDefault("contracts.testnet.evm", "0x8c5303eaa26202d6")
	v.SetDefault("contracts.emulator.hybrid_custody", "0xf8d6e0586b0a20c7")
	v.SetDefault("contracts.emulator.metadata_views", "0xf8d6e0586b0a20c7")
	v.SetDefault("contracts.emulator.fungible_token", "0xee82856bf20e2aa6")
	v.SetDefault("contracts.emulator.non_fungible_token", "0xf8d6e0586b0a20c7")
	v.SetDefault("contracts.emulator.evm", "0xf8d6e0586b0a20c7")

	v.SetDefault("storage.backend", "badger")
	v.SetDefault("storage.path", "./data/walletkit")
	v.SetDefault("storage.encryption_key", "")
	v.SetDefault("storage.redis_addr", "localhost:6379")
	v.SetDefault("storage.redis_password", "")
	v.SetDefault("storage.redis_prefix", "walletkit:")
	v.SetDefault("storage.consul_address", "localhost:8500")
	v.SetDefault("storage.consul_prefix", "walletkit/")
	v.SetDefault("storage.postgres_dsn", "")

	v.SetDefault("enclave.backend", "software")
	v.SetDefault("enclave.pkcs11_library", "")
	v.SetDefault("enclave.pkcs11_slot", 0)
	v.SetDefault("enclave.pkcs11_pin", "")

	v.SetDefault("metrics.enabled", true)

	v.SetDefault("discovery.consul_address", "")
	v.SetDefault("discovery.service_name", "flow-wallet-kit")
	v.SetDefault("discovery.service_address", "127.0.0.1")
	v.SetDefault("discovery.service_port", 8080)
	v.SetDefault("discovery.tags", []string{})
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// DefaultServiceConfigFromEnv 默认配置叠加 WALLETKIT_* 环境变量（以及 .env.local）
func DefaultServiceConfigFromEnv() Server {
	loadDotEnv()

	cfg, err := unmarshal(newViper())
	if err != nil {
		// 默认值本身一定可解析，走到这里说明环境变量格式错误
		panic(errors.Wrap(err, "failed to decode service config from env"))
	}
	return cfg
}

// LoadServiceConfig 读取配置文件（yaml/json/toml），再叠加环境变量
func LoadServiceConfig(path string) (Server, error) {
	loadDotEnv()

	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Server{}, errors.Wrapf(err, "failed to read config file %s", path)
		}
	}
	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (Server, error) {
	var cfg Server
	if err := v.Unmarshal(&cfg); err != nil {
		return Server{}, errors.Wrap(err, "failed to unmarshal config")
	}
	return cfg, nil
}

func loadDotEnv() {
	if _, err := os.Stat(".env.local"); err == nil {
		_ = gotenv.Load(".env.local")
	}
}
