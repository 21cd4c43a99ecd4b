package router

import (
	"github.com/SafeMPC/flow-wallet-kit/internal/api"
	"github.com/SafeMPC/flow-wallet-kit/internal/api/handlers"
	"github.com/SafeMPC/flow-wallet-kit/internal/api/httperrors"
	"github.com/SafeMPC/flow-wallet-kit/internal/api/middleware"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

// Init 创建 echo 实例、挂载中间件与全部路由
func Init(s *api.Server) {
	s.Echo = echo.New()

	s.Echo.Debug = s.Config.Echo.Debug
	s.Echo.HideBanner = true
	s.Echo.HidePort = true
	s.Echo.HTTPErrorHandler = httperrors.HTTPErrorHandler

	s.Echo.Pre(echoMiddleware.RemoveTrailingSlash())
	s.Echo.Use(echoMiddleware.Recover())
	s.Echo.Use(echoMiddleware.RequestID())

	level := zerolog.InfoLevel
	if s.Config.Echo.Debug {
		level = zerolog.DebugLevel
	}
	s.Echo.Use(middleware.LoggerWithConfig(level))

	s.Router = &api.Router{
		Routes:     nil,
		Root:       s.Echo.Group(""),
		Management: s.Echo.Group("/-"),
		APIV1:      s.Echo.Group("/api/v1"),
	}

	handlers.AttachAllRoutes(s)
}
