package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SafeMPC/flow-wallet-kit/internal/api"
	"github.com/SafeMPC/flow-wallet-kit/internal/api/router"
	"github.com/SafeMPC/flow-wallet-kit/internal/config"
	"github.com/SafeMPC/flow-wallet-kit/internal/discovery"
	"github.com/SafeMPC/flow-wallet-kit/internal/util"
	"github.com/SafeMPC/flow-wallet-kit/internal/util/command"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func New() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Starts the HTTP server",
		Long: `Starts the HTTP server serving account lookups for public keys and addresses.

Requires configuration through ENV.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := command.LoadConfig(cmd)
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}
}

func runServer(cfg config.Server) error {
	closer := util.ConfigureLogger(cfg.Logger)
	if closer != nil {
		defer closer.Close()
	}

	s, err := api.InitNewServer(cfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize server")
		return err
	}

	router.Init(s)

	registration, err := register(cfg, s)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to register service in consul")
	}

	go func() {
		if err := s.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Str("listen_address", cfg.Echo.ListenAddress).Msg("Server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), api.ShutdownTimeout)
	defer cancel()

	if registration != nil {
		registration.deregister(ctx)
	}

	if errs := s.Shutdown(ctx); len(errs) > 0 {
		log.Error().Errs("shutdownErrors", errs).Msg("Failed to gracefully shut down server")
		return fmt.Errorf("shutdown finished with %d errors", len(errs))
	}

	log.Info().Msg("Server shut down")
	return nil
}

type consulRegistration struct {
	discovery *discovery.ConsulDiscovery
	serviceID string
}

// register 配置了 discovery.consul_address 时把本实例注册到 Consul，每个网络一个 chain 标签
func register(cfg config.Server, s *api.Server) (*consulRegistration, error) {
	dc := cfg.Discovery
	if dc.ConsulAddress == "" {
		return nil, nil
	}

	consul, err := discovery.NewConsulDiscovery(dc.ConsulAddress)
	if err != nil {
		return nil, err
	}

	tags := append([]string{}, dc.Tags...)
	for _, chain := range s.Networks {
		tags = append(tags, discovery.ChainTag(chain))
	}

	hostname, _ := os.Hostname()
	service := &discovery.ServiceInfo{
		ID:      fmt.Sprintf("%s-%s-%d", dc.ServiceName, hostname, dc.ServicePort),
		Name:    dc.ServiceName,
		Address: dc.ServiceAddress,
		Port:    dc.ServicePort,
		Tags:    tags,
		Check: &discovery.HealthCheck{
			Interval:                       10 * time.Second,
			Timeout:                        3 * time.Second,
			DeregisterCriticalServiceAfter: time.Minute,
			Path:                           "/-/healthy",
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := consul.Register(ctx, service); err != nil {
		_ = consul.Close()
		return nil, err
	}
	return &consulRegistration{discovery: consul, serviceID: service.ID}, nil
}

func (r *consulRegistration) deregister(ctx context.Context) {
	if err := r.discovery.Deregister(ctx, r.serviceID); err != nil {
		log.Warn().Err(err).Str("service_id", r.serviceID).Msg("Failed to deregister service")
	}
	_ = r.discovery.Close()
}
