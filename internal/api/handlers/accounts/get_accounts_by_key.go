package accounts

import (
	"net/http"

	"github.com/SafeMPC/flow-wallet-kit/internal/account"
	"github.com/SafeMPC/flow-wallet-kit/internal/api"
	"github.com/SafeMPC/flow-wallet-kit/internal/api/httperrors"
	"github.com/SafeMPC/flow-wallet-kit/internal/crypto"
	"github.com/SafeMPC/flow-wallet-kit/internal/flow"
	"github.com/SafeMPC/flow-wallet-kit/internal/types"
	"github.com/SafeMPC/flow-wallet-kit/internal/util"
	"github.com/labstack/echo/v4"
)

func GetAccountsByKeyRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.GET("/networks/:network/keys/:public_key/accounts", getAccountsByKeyHandler(s))
}

// full_weight=false 时也返回没有满权重密钥的账户
func getAccountsByKeyHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		chain, err := networkParam(s, c)
		if err != nil {
			return err
		}

		publicKey := c.Param("public_key")
		if _, err := crypto.DecodePublicKeyHex(publicKey); err != nil {
			return httperrors.ErrBadRequestInvalidPublicKey.Wrap(err)
		}

		var found []flow.Account
		if boolQuery(c, "full_weight", true) {
			found, err = s.Indexer.FindAccountsWithFullWeight(ctx, publicKey, chain)
		} else {
			found, err = s.Indexer.FindFlowAccounts(ctx, publicKey, chain)
		}
		if err != nil {
			log.Error().Err(err).Str("chain", chain.String()).Msg("Failed to find accounts by public key")
			return httperrors.FromDomainError(err)
		}

		response := &types.AccountsByKeyResponse{
			Network:   chain.String(),
			PublicKey: publicKey,
			Accounts:  make([]types.AccountResponse, 0, len(found)),
		}
		for _, a := range found {
			response.Accounts = append(response.Accounts, account.FlowAccountResponse(a, chain))
		}

		return c.JSON(http.StatusOK, response)
	}
}
