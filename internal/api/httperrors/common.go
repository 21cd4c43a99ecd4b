package httperrors

import (
	"net/http"

	"github.com/SafeMPC/flow-wallet-kit/internal/types"
)

var (
	ErrBadRequestUnsupportedNetwork = NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeUnsupportedChain, "Network is not supported.")
	ErrBadRequestInvalidPublicKey   = NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeInvalidPublicKey, "Public key is not a valid P-256 or secp256k1 key.")
	ErrBadRequestInvalidAddress     = NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeInvalidAddress, "Address is not a valid Flow address.")
	ErrBadGatewayUpstream           = NewHTTPError(http.StatusBadGateway, types.PublicHTTPErrorTypeUpstreamFailed, "Upstream request failed.")
	ErrNotFoundAccount              = NewHTTPError(http.StatusNotFound, types.PublicHTTPErrorTypeGeneric, "Account not found.")
)
