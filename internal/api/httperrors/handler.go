package httperrors

import (
	"net/http"

	"github.com/SafeMPC/flow-wallet-kit/internal/types"
	"github.com/SafeMPC/flow-wallet-kit/internal/util"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// FromDomainError 把核心错误映射到对外的 HTTP 错误
func FromDomainError(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	switch {
	case errors.Is(err, types.ErrUnsupportedChain), errors.Is(err, types.ErrIncorrectKeyIndexerURL):
		return ErrBadRequestUnsupportedNetwork.Wrap(err)
	case errors.Is(err, types.ErrInvalidAddress):
		return ErrBadRequestInvalidAddress.Wrap(err)
	case errors.Is(err, types.ErrAccountNotFound):
		return ErrNotFoundAccount.Wrap(err)
	case errors.Is(err, types.ErrEmptyKey):
		return ErrBadRequestInvalidPublicKey.Wrap(err)
	case errors.Is(err, types.ErrKeyIndexerRequestFailed),
		errors.Is(err, types.ErrDecodeKeyIndexerFailed),
		errors.Is(err, types.ErrAccessRequestFailed):
		return ErrBadGatewayUpstream.Wrap(err)
	}

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		return NewFromEcho(echoErr)
	}

	return NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, http.StatusText(http.StatusInternalServerError)).Wrap(err)
}

// HTTPErrorHandler echo 的统一错误处理
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	httpErr := FromDomainError(err)
	log := util.LogFromContext(c.Request().Context())
	if httpErr.Code >= http.StatusInternalServerError {
		log.Error().Err(err).Int64("status", httpErr.Code).Msg("Request failed")
	} else {
		log.Debug().Err(err).Int64("status", httpErr.Code).Msg("Request rejected")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(int(httpErr.Code))
	} else {
		err = c.JSON(int(httpErr.Code), httpErr.PublicHTTPError)
	}
	if err != nil {
		log.Warn().Err(err).Msg("Failed to write error response")
	}
}
