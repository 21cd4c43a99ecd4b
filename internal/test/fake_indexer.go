package test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/SafeMPC/flow-wallet-kit/internal/indexer"
	"github.com/labstack/echo/v4"
)

// FakeIndexer 进程内公钥索引服务
type FakeIndexer struct {
	Server *httptest.Server

	mu     sync.Mutex
	rows   map[string][]indexer.AccountRow
	status int
	hits   int
}

// NewFakeIndexer 启动 fake 索引服务，测试结束时自动关闭
func NewFakeIndexer(t *testing.T) *FakeIndexer {
	t.Helper()

	f := &FakeIndexer{rows: make(map[string][]indexer.AccountRow)}

	e := echo.New()
	e.HideBanner = true
	e.GET("/v1/accounts", f.handleAccounts)

	f.Server = httptest.NewServer(e)
	t.Cleanup(f.Server.Close)
	return f
}

// URL 服务根地址
func (f *FakeIndexer) URL() string {
	return f.Server.URL
}

// AddRows 为公钥登记账户行
func (f *FakeIndexer) AddRows(publicKeyHex string, rows ...indexer.AccountRow) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := normalizeHex(publicKeyHex)
	f.rows[key] = append(f.rows[key], rows...)
}

// FailWith 之后的请求都返回 status，传 0 恢复
func (f *FakeIndexer) FailWith(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
}

// Hits 已处理的请求数
func (f *FakeIndexer) Hits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits
}

func (f *FakeIndexer) handleAccounts(c echo.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.hits++
	if f.status != 0 {
		return c.String(f.status, http.StatusText(f.status))
	}

	key := normalizeHex(c.QueryParam("publicKey"))
	rows := f.rows[key]
	if rows == nil {
		rows = []indexer.AccountRow{}
	}
	return c.JSON(http.StatusOK, indexer.Response{PublicKey: key, Accounts: rows})
}

func normalizeHex(s string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
}

// NewStaticServer 对任意请求返回固定状态码与响应体
func NewStaticServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}
