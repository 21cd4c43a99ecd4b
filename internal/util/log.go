package util

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/SafeMPC/flow-wallet-kit/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFromContext 返回 ctx 上绑定的 logger，没有时退回全局 logger
func LogFromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return &log.Logger
	}
	l := log.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		l = &log.Logger
	}
	return l
}

// WithLogger 将 logger 绑定到 ctx
func WithLogger(ctx context.Context, l zerolog.Logger) context.Context {
	return l.WithContext(ctx)
}

// ConfigureLogger 按配置设置全局 logger，返回需要在退出时关闭的文件 writer（可能为 nil）
func ConfigureLogger(cfg config.LoggerServer) io.Closer {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.SetGlobalLevel(cfg.ZerologLevel())

	var console io.Writer = os.Stderr
	if cfg.PrettyPrintConsole {
		console = zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
			w.TimeFormat = "15:04:05"
		})
	}

	var file *lumberjack.Logger
	writers := []io.Writer{console}
	if cfg.File != "" {
		file = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		writers = append(writers, file)
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()

	if file == nil {
		return nil
	}
	return file
}
