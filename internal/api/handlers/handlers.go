package handlers

import (
	"github.com/SafeMPC/flow-wallet-kit/internal/api"
	"github.com/SafeMPC/flow-wallet-kit/internal/api/handlers/accounts"
	"github.com/SafeMPC/flow-wallet-kit/internal/api/handlers/common"
	"github.com/labstack/echo/v4"
)

// AttachAllRoutes 注册全部路由
func AttachAllRoutes(s *api.Server) {
	s.Router.Routes = []*echo.Route{
		common.GetHealthyRoute(s),
		accounts.GetAccountsByKeyRoute(s),
		accounts.GetAccountRoute(s),
	}

	if s.Config.Metrics.Enabled {
		s.Router.Routes = append(s.Router.Routes, common.GetMetricsRoute(s))
	}
}
