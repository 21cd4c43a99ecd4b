package accounts

import (
	"net/http"

	"github.com/SafeMPC/flow-wallet-kit/internal/account"
	"github.com/SafeMPC/flow-wallet-kit/internal/api"
	"github.com/SafeMPC/flow-wallet-kit/internal/api/httperrors"
	"github.com/SafeMPC/flow-wallet-kit/internal/flow"
	"github.com/SafeMPC/flow-wallet-kit/internal/util"
	"github.com/SafeMPC/flow-wallet-kit/internal/wallet"
	"github.com/labstack/echo/v4"
)

func GetAccountRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.GET("/networks/:network/accounts/:address", getAccountHandler(s))
}

func getAccountHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		chain, err := networkParam(s, c)
		if err != nil {
			return err
		}

		address, err := flow.ParseAddress(c.Param("address"))
		if err != nil {
			return httperrors.ErrBadRequestInvalidAddress.Wrap(err)
		}

		w, err := wallet.NewWatchWallet(address, []flow.ChainID{chain}, s.Access,
			wallet.WithStorage(s.Store),
			wallet.WithLinkedAccountProvider(s.Linked),
			wallet.WithMetrics(s.Metrics),
		)
		if err != nil {
			return httperrors.FromDomainError(err)
		}

		found, err := w.FetchAccountsForNetwork(ctx, chain)
		if err != nil {
			log.Error().Err(err).Str("chain", chain.String()).Str("address", address.Hex()).Msg("Failed to get account")
			return httperrors.FromDomainError(err)
		}
		if len(found) == 0 {
			return httperrors.ErrNotFoundAccount
		}

		acc := account.New(found[0], chain, nil,
			account.WithStorage(s.Store),
			account.WithLinkedAccountProvider(s.Linked),
			account.WithMetrics(s.Metrics),
		)
		if err := w.AddAccount(acc); err != nil {
			return httperrors.FromDomainError(err)
		}

		if boolQuery(c, "linked", false) {
			acc.FetchAccount(ctx)
		}

		return c.JSON(http.StatusOK, acc.Response())
	}
}
