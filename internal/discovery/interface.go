package discovery

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// ServiceDiscovery 服务发现接口
type ServiceDiscovery interface {
	// 注册服务
	Register(ctx context.Context, service *ServiceInfo) error

	// 注销服务
	Deregister(ctx context.Context, serviceID string) error

	// 发现健康的服务实例
	Discover(ctx context.Context, serviceName string, tags []string) ([]*ServiceInfo, error)

	Close() error
}

// LoadBalancer 负载均衡器接口
type LoadBalancer interface {
	// 选择服务实例
	Select(services []*ServiceInfo) *ServiceInfo
}

// RoundRobinLoadBalancer 轮询负载均衡器
type RoundRobinLoadBalancer struct {
	mu    sync.Mutex
	index int
}

// NewRoundRobinLoadBalancer 创建轮询负载均衡器
func NewRoundRobinLoadBalancer() *RoundRobinLoadBalancer {
	return &RoundRobinLoadBalancer{}
}

// Select 选择服务实例（轮询）
func (lb *RoundRobinLoadBalancer) Select(services []*ServiceInfo) *ServiceInfo {
	if len(services) == 0 {
		return nil
	}

	lb.mu.Lock()
	defer lb.mu.Unlock()

	service := services[lb.index%len(services)]
	lb.index = (lb.index + 1) % len(services)
	return service
}

// WeightedLoadBalancer 加权负载均衡器，按 Weight 展开后轮询
type WeightedLoadBalancer struct {
	mu        sync.Mutex
	nextIndex int
}

// NewWeightedLoadBalancer 创建加权负载均衡器
func NewWeightedLoadBalancer() *WeightedLoadBalancer {
	return &WeightedLoadBalancer{}
}

// Select 选择服务实例（基于权重）
func (lb *WeightedLoadBalancer) Select(services []*ServiceInfo) *ServiceInfo {
	expanded := make([]*ServiceInfo, 0, len(services))
	for _, service := range services {
		weight := service.Weight
		if weight <= 0 {
			weight = 1
		}
		for i := 0; i < weight; i++ {
			expanded = append(expanded, service)
		}
	}
	if len(expanded) == 0 {
		return nil
	}

	lb.mu.Lock()
	defer lb.mu.Unlock()

	service := expanded[lb.nextIndex%len(expanded)]
	lb.nextIndex = (lb.nextIndex + 1) % len(expanded)
	return service
}

// 错误定义
var (
	ErrNoServiceAvailable = errors.New("no service available")
)
