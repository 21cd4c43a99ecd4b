package accounts

import (
	"strconv"

	"github.com/SafeMPC/flow-wallet-kit/internal/api"
	"github.com/SafeMPC/flow-wallet-kit/internal/api/httperrors"
	"github.com/SafeMPC/flow-wallet-kit/internal/flow"
	"github.com/labstack/echo/v4"
)

// networkParam 解析并校验路径中的 :network
func networkParam(s *api.Server, c echo.Context) (flow.ChainID, error) {
	chain, err := flow.ParseChainID(c.Param("network"))
	if err != nil || !s.SupportsNetwork(chain) {
		return "", httperrors.ErrBadRequestUnsupportedNetwork
	}
	return chain, nil
}

// boolQuery 读取布尔查询参数，缺省或无法解析时返回 def
func boolQuery(c echo.Context, name string, def bool) bool {
	v, err := strconv.ParseBool(c.QueryParam(name))
	if err != nil {
		return def
	}
	return v
}
