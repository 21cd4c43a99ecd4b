package test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SafeMPC/flow-wallet-kit/internal/api"
	"github.com/SafeMPC/flow-wallet-kit/internal/api/httperrors"
	"github.com/SafeMPC/flow-wallet-kit/internal/api/router"
	"github.com/SafeMPC/flow-wallet-kit/internal/config"
	"github.com/SafeMPC/flow-wallet-kit/internal/storage"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

// Upstreams 测试服务依赖的 fake 上游
type Upstreams struct {
	Indexer *FakeIndexer
	Access  *FakeAccessNode
}

// NewTestConfig 默认配置，网络为 testnet + emulator，上游指向 fake 服务
func NewTestConfig(t *testing.T) (config.Server, *Upstreams) {
	t.Helper()

	up := &Upstreams{
		Indexer: NewFakeIndexer(t),
		Access:  NewFakeAccessNode(t),
	}

	cfg := config.DefaultServiceConfigFromEnv()
	cfg.Networks = []string{"testnet", "emulator"}
	cfg.Storage.Backend = "memory"
	cfg.Enclave.Backend = "software"
	cfg.Indexer.ConsulAddress = ""
	cfg.Indexer.CacheTTL = 0
	cfg.Indexer.Endpoints = map[string]string{
		"testnet":  up.Indexer.URL(),
		"emulator": up.Indexer.URL(),
	}
	cfg.Access.Endpoints = map[string]string{
		"testnet":  up.Access.URL(),
		"emulator": up.Access.URL(),
	}
	return cfg, up
}

// WithTestServer 使用 NewTestConfig 启动服务并执行 closure
func WithTestServer(t *testing.T, closure func(s *api.Server, up *Upstreams)) {
	t.Helper()

	cfg, up := NewTestConfig(t)
	WithTestServerConfigurable(t, cfg, func(s *api.Server) {
		closure(s, up)
	})
}

// WithTestServerConfigurable 使用给定配置与内存存储初始化服务（不监听端口）
func WithTestServerConfigurable(t *testing.T, cfg config.Server, closure func(s *api.Server)) {
	t.Helper()

	s, err := api.InitNewServerWithStorage(cfg, storage.NewMemoryStorage())
	require.NoError(t, err, "failed to init test server")

	router.Init(s)

	closure(s)

	ctx, cancel := context.WithTimeout(context.Background(), api.ShutdownTimeout)
	defer cancel()

	if errs := s.Shutdown(ctx); len(errs) > 0 {
		t.Fatalf("failed to shutdown test server: %v", errs)
	}
}

// PerformRequest 直接调用 echo 处理请求
func PerformRequest(t *testing.T, s *api.Server, method string, path string, body interface{}, headers http.Header) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err, "failed to encode request body")
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header[k] = v
	}

	res := httptest.NewRecorder()
	s.Echo.ServeHTTP(res, req)
	return res
}

// ParseResponseAndValidate 解析 JSON 响应体
func ParseResponseAndValidate(t *testing.T, res *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(res.Result().Body).Decode(v), "failed to decode response body")
}

// RequireHTTPError 断言响应为给定的 HTTP 错误
func RequireHTTPError(t *testing.T, res *httptest.ResponseRecorder, httpErr *httperrors.HTTPError) {
	t.Helper()

	require.Equal(t, int(httpErr.Code), res.Result().StatusCode, "unexpected status code")

	var response httperrors.HTTPError
	ParseResponseAndValidate(t, res, &response)
	require.Equal(t, httpErr.Code, response.Code)
	require.Equal(t, httpErr.Type, response.Type)
	require.Equal(t, httpErr.Title, response.Title)
}
