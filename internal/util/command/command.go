package command

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/SafeMPC/flow-wallet-kit/internal/api"
	"github.com/SafeMPC/flow-wallet-kit/internal/config"
	"github.com/SafeMPC/flow-wallet-kit/internal/util"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// ConfigFlag 全部子命令共用的配置文件参数
const ConfigFlag = "config"

// LoadConfig 读取 --config 指定的配置文件，未指定时只使用默认值与环境变量
func LoadConfig(cmd *cobra.Command) (config.Server, error) {
	path, _ := cmd.Flags().GetString(ConfigFlag)
	if path == "" {
		return config.DefaultServiceConfigFromEnv(), nil
	}
	return config.LoadServiceConfig(path)
}

// WithServer 初始化全部组件（不启动 HTTP 服务）后执行 f，返回 f 的错误
func WithServer(ctx context.Context, cfg config.Server, f func(ctx context.Context, s *api.Server) error) error {
	closer := util.ConfigureLogger(cfg.Logger)
	if closer != nil {
		defer closer.Close()
	}

	start := time.Now()
	log.Debug().Msg("Initializing components")

	s, err := api.InitNewServer(cfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize components")
		return err
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), api.ShutdownTimeout)
		defer cancel()

		if errs := s.Shutdown(shutdownCtx); len(errs) > 0 {
			log.Error().Errs("shutdownErrors", errs).Msg("Failed to gracefully shut down components")
		}
	}()

	log.Debug().Dur("took", time.Since(start)).Msg("Components initialized")

	return f(ctx, s)
}

// NewSubcommandGroup 创建只用于分组子命令的命令
func NewSubcommandGroup(name string, subCommands ...*cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   fmt.Sprintf("%s <subcommand>", name),
		Short: fmt.Sprintf("%s related subcommands", name),
		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
		},
	}

	cmd.AddCommand(subCommands...)

	return cmd
}
