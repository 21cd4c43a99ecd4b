package common

import (
	"context"
	"net/http"
	"time"

	"github.com/SafeMPC/flow-wallet-kit/internal/api"
	"github.com/SafeMPC/flow-wallet-kit/internal/types"
	"github.com/SafeMPC/flow-wallet-kit/internal/util"
	"github.com/labstack/echo/v4"
)

const healthyProbeKey = "healthy-probe"

func GetHealthyRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/healthy", getHealthyHandler(s))
}

// 存储不可读时返回 503
func getHealthyHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		log := util.LogFromContext(ctx)

		networks := make([]string, 0, len(s.Networks))
		for _, n := range s.Networks {
			networks = append(networks, n.String())
		}

		response := &types.HealthResponse{
			Status:   "ok",
			Networks: networks,
			Storage:  s.Store.SecurityLevel().String(),
		}

		if _, _, err := s.Store.Get(ctx, healthyProbeKey); err != nil {
			log.Warn().Err(err).Msg("Storage health probe failed")
			response.Status = "storage unavailable"
			return c.JSON(http.StatusServiceUnavailable, response)
		}

		return c.JSON(http.StatusOK, response)
	}
}
