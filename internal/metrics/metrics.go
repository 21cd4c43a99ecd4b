// Package metrics 汇总钱包核心的 Prometheus 指标。所有方法对 nil 接收者安全。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "walletkit"

// Service 指标集合，使用独立的 Registry
type Service struct {
	registry *prometheus.Registry

	indexerRequests *prometheus.CounterVec
	indexerDuration *prometheus.HistogramVec
	accessRequests  *prometheus.CounterVec
	walletRefresh   *prometheus.CounterVec
	linkedAccounts  *prometheus.CounterVec
}

// New 创建指标集合并注册 Go 运行时与进程指标
func New() *Service {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Service{
		registry: reg,
		indexerRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "indexer",
			Name:      "requests_total",
			Help:      "Total number of key indexer requests",
		}, []string{"chain", "status"}),
		indexerDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "indexer",
			Name:      "request_duration_seconds",
			Help:      "Key indexer request duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"chain"}),
		accessRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "access",
			Name:      "requests_total",
			Help:      "Total number of Flow access API requests",
		}, []string{"chain", "operation", "status"}),
		walletRefresh: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wallet",
			Name:      "refresh_total",
			Help:      "Total number of per-network wallet account refreshes",
		}, []string{"type", "result"}),
		linkedAccounts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "account",
			Name:      "linked_fetch_total",
			Help:      "Total number of linked account fetches by source",
		}, []string{"source", "result"}),
	}
}

// Registry 返回底层 Registry
func (s *Service) Registry() *prometheus.Registry {
	if s == nil {
		return nil
	}
	return s.registry
}

// Handler 返回 /metrics 的 HTTP handler
func (s *Service) Handler() http.Handler {
	if s == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry})
}

// ObserveIndexerRequest 记录一次索引器请求
func (s *Service) ObserveIndexerRequest(chain string, status string, took time.Duration) {
	if s == nil {
		return
	}
	s.indexerRequests.WithLabelValues(chain, status).Inc()
	s.indexerDuration.WithLabelValues(chain).Observe(took.Seconds())
}

// ObserveAccessRequest 记录一次 Access API 请求
func (s *Service) ObserveAccessRequest(chain string, operation string, status string) {
	if s == nil {
		return
	}
	s.accessRequests.WithLabelValues(chain, operation, status).Inc()
}

// ObserveWalletRefresh 记录一次单网络刷新结果
func (s *Service) ObserveWalletRefresh(walletType string, result string) {
	if s == nil {
		return
	}
	s.walletRefresh.WithLabelValues(walletType, result).Inc()
}

// ObserveLinkedFetch 记录一次关联账户拉取结果（source: child / coa）
func (s *Service) ObserveLinkedFetch(source string, result string) {
	if s == nil {
		return
	}
	s.linkedAccounts.WithLabelValues(source, result).Inc()
}

// Result 将 error 映射为 "success" / "error" 标签
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
