package discovery

import (
	"context"

	"github.com/SafeMPC/flow-wallet-kit/internal/flow"
	"github.com/pkg/errors"
)

// ChainTag 索引服务实例上标识网络的标签
func ChainTag(chain flow.ChainID) string {
	return "chain:" + chain.String()
}

// EndpointResolver 按网络标签从服务发现中选择实例地址
type EndpointResolver struct {
	discovery ServiceDiscovery
	service   string
	balancer  LoadBalancer
}

// NewEndpointResolver 创建解析器，balancer 为 nil 时使用轮询
func NewEndpointResolver(discovery ServiceDiscovery, service string, balancer LoadBalancer) *EndpointResolver {
	if balancer == nil {
		balancer = NewRoundRobinLoadBalancer()
	}
	return &EndpointResolver{discovery: discovery, service: service, balancer: balancer}
}

// Endpoint 返回网络对应的一个健康实例根地址
func (r *EndpointResolver) Endpoint(ctx context.Context, chain flow.ChainID) (string, error) {
	services, err := r.discovery.Discover(ctx, r.service, []string{ChainTag(chain)})
	if err != nil {
		return "", err
	}

	selected := r.balancer.Select(services)
	if selected == nil {
		return "", errors.Wrapf(ErrNoServiceAvailable, "service %s for chain %s", r.service, chain)
	}
	return selected.URL(), nil
}
