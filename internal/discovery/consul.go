// Package discovery 通过 Consul 注册 API 服务，并为索引服务解析按网络打标签的实例地址。
package discovery

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/hashicorp/consul/api"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ServiceInfo 服务信息
type ServiceInfo struct {
	ID      string            // 服务实例ID
	Name    string            // 服务名称
	Address string            // 服务地址
	Port    int               // 服务端口
	Tags    []string          // 服务标签
	Meta    map[string]string // 元数据
	Check   *HealthCheck      // 健康检查配置
	Weight  int               // 负载均衡权重
}

// URL 由 meta.scheme（默认 http）、地址与端口组成的根地址
func (s *ServiceInfo) URL() string {
	scheme := "http"
	if v, ok := s.Meta["scheme"]; ok && v != "" {
		scheme = v
	}
	if s.Port == 0 {
		return fmt.Sprintf("%s://%s", scheme, s.Address)
	}
	return fmt.Sprintf("%s://%s:%d", scheme, s.Address, s.Port)
}

// HealthCheck HTTP 健康检查配置
type HealthCheck struct {
	Interval                       time.Duration
	Timeout                        time.Duration
	DeregisterCriticalServiceAfter time.Duration
	Path                           string
}

// ConsulDiscovery Consul实现的服务发现
type ConsulDiscovery struct {
	client *api.Client
}

// NewConsulDiscovery 创建Consul服务发现实例
func NewConsulDiscovery(address string) (*ConsulDiscovery, error) {
	config := api.DefaultConfig()
	config.Address = address

	client, err := api.NewClient(config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create consul client")
	}

	return &ConsulDiscovery{client: client}, nil
}

// Register 注册服务到Consul
func (c *ConsulDiscovery) Register(ctx context.Context, service *ServiceInfo) error {
	if service.ID == "" {
		return errors.New("service ID cannot be empty")
	}

	registration := &api.AgentServiceRegistration{
		ID:      service.ID,
		Name:    service.Name,
		Address: service.Address,
		Port:    service.Port,
		Tags:    service.Tags,
		Meta:    service.Meta,
	}
	if service.Weight > 0 {
		if registration.Meta == nil {
			registration.Meta = make(map[string]string)
		}
		registration.Meta["weight"] = strconv.Itoa(service.Weight)
	}

	if service.Check != nil {
		check := &api.AgentServiceCheck{
			HTTP:     fmt.Sprintf("http://%s:%d%s", service.Address, service.Port, service.Check.Path),
			Method:   "GET",
			Interval: service.Check.Interval.String(),
			Timeout:  service.Check.Timeout.String(),
		}
		if service.Check.DeregisterCriticalServiceAfter > 0 {
			check.DeregisterCriticalServiceAfter = service.Check.DeregisterCriticalServiceAfter.String()
		}
		registration.Check = check
	}

	opts := (&api.ServiceRegisterOpts{}).WithContext(ctx)
	if err := c.client.Agent().ServiceRegisterOpts(registration, opts); err != nil {
		return errors.Wrapf(err, "failed to register service %s", service.ID)
	}

	log.Info().
		Str("service_id", service.ID).
		Str("service_name", service.Name).
		Str("address", service.Address).
		Int("port", service.Port).
		Strs("tags", service.Tags).
		Msg("Service registered successfully")

	return nil
}

// Deregister 从Consul注销服务
func (c *ConsulDiscovery) Deregister(ctx context.Context, serviceID string) error {
	opts := (&api.QueryOptions{}).WithContext(ctx)
	if err := c.client.Agent().ServiceDeregisterOpts(serviceID, opts); err != nil {
		return errors.Wrapf(err, "failed to deregister service %s", serviceID)
	}

	log.Info().
		Str("service_id", serviceID).
		Msg("Service deregistered successfully")

	return nil
}

// Discover 从Consul发现服务
func (c *ConsulDiscovery) Discover(ctx context.Context, serviceName string, tags []string) ([]*ServiceInfo, error) {
	opts := (&api.QueryOptions{}).WithContext(ctx)
	services, _, err := c.client.Health().ServiceMultipleTags(serviceName, tags, true, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to discover services %s", serviceName)
	}

	result := make([]*ServiceInfo, 0, len(services))
	for _, entry := range services {
		address := entry.Service.Address
		if address == "" {
			address = entry.Node.Address
		}
		info := &ServiceInfo{
			ID:      entry.Service.ID,
			Name:    entry.Service.Service,
			Address: address,
			Port:    entry.Service.Port,
			Tags:    entry.Service.Tags,
			Meta:    entry.Service.Meta,
		}

		// 解析权重
		if weightStr, ok := entry.Service.Meta["weight"]; ok {
			if weight, err := strconv.Atoi(weightStr); err == nil {
				info.Weight = weight
			}
		}

		result = append(result, info)
	}

	log.Debug().
		Str("service_name", serviceName).
		Strs("tags", tags).
		Int("found_services", len(result)).
		Msg("Service discovery completed")

	return result, nil
}

// Close 关闭Consul连接
func (c *ConsulDiscovery) Close() error {
	return nil
}
