// Package api 组装 HTTP 服务及其依赖：存储、索引服务客户端、Access 客户端、
// Enclave 与指标。依赖图由 wire 生成（见 wire.go / wire_gen.go）。
package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/SafeMPC/flow-wallet-kit/internal/access"
	"github.com/SafeMPC/flow-wallet-kit/internal/config"
	"github.com/SafeMPC/flow-wallet-kit/internal/flow"
	"github.com/SafeMPC/flow-wallet-kit/internal/indexer"
	"github.com/SafeMPC/flow-wallet-kit/internal/keys"
	"github.com/SafeMPC/flow-wallet-kit/internal/metrics"
	"github.com/SafeMPC/flow-wallet-kit/internal/storage"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Router 路由分组
type Router struct {
	Routes     []*echo.Route
	Root       *echo.Group
	Management *echo.Group
	APIV1      *echo.Group
}

// Server 服务与全部组件
type Server struct {
	Config   config.Server
	Echo     *echo.Echo
	Router   *Router
	Store    storage.Storage
	Indexer  *indexer.Client
	Access   *access.Client
	Linked   *access.LinkedAccounts
	Enclave  keys.Enclave
	Metrics  *metrics.Service
	Networks []flow.ChainID
}

func newServerWithComponents(
	cfg config.Server,
	store storage.Storage,
	indexerClient *indexer.Client,
	accessClient *access.Client,
	linked *access.LinkedAccounts,
	enclave keys.Enclave,
	metricsService *metrics.Service,
	networks []flow.ChainID,
) *Server {
	return &Server{
		Config:   cfg,
		Store:    store,
		Indexer:  indexerClient,
		Access:   accessClient,
		Linked:   linked,
		Enclave:  enclave,
		Metrics:  metricsService,
		Networks: networks,
	}
}

// Ready 所有组件都已初始化
func (s *Server) Ready() bool {
	return s.Echo != nil &&
		s.Router != nil &&
		s.Store != nil &&
		s.Indexer != nil &&
		s.Access != nil &&
		s.Linked != nil &&
		s.Enclave != nil
}

// SupportsNetwork 网络是否在配置的网络列表中
func (s *Server) SupportsNetwork(chain flow.ChainID) bool {
	for _, n := range s.Networks {
		if n == chain {
			return true
		}
	}
	return false
}

// Start 启动 HTTP 服务，阻塞直到服务关闭
func (s *Server) Start() error {
	if !s.Ready() {
		return errors.New("server is not ready")
	}

	s.Echo.Server.ReadTimeout = s.Config.Echo.ReadTimeout
	s.Echo.Server.WriteTimeout = s.Config.Echo.WriteTimeout

	if err := s.Echo.Start(s.Config.Echo.ListenAddress); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "failed to start echo server")
	}
	return nil
}

// Shutdown 关闭 HTTP 服务并释放组件，返回过程中遇到的全部错误
func (s *Server) Shutdown(ctx context.Context) []error {
	log.Warn().Msg("Shutting down server")

	var errs []error

	if s.Echo != nil {
		if err := s.Echo.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to shutdown echo server")
			errs = append(errs, err)
		}
	}

	if s.Indexer != nil {
		if err := s.Indexer.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close indexer client")
			errs = append(errs, err)
		}
	}

	if closer, ok := s.Enclave.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close enclave")
			errs = append(errs, err)
		}
	}

	if closer, ok := s.Store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close storage")
			errs = append(errs, err)
		}
	}

	return errs
}

// ShutdownTimeout 优雅关闭的默认超时
const ShutdownTimeout = 10 * time.Second
