package httperrors

import (
	"fmt"
	"net/http"

	"github.com/SafeMPC/flow-wallet-kit/internal/types"
	"github.com/labstack/echo/v4"
)

// HTTPError 带对外错误类型的 HTTP 错误
type HTTPError struct {
	types.PublicHTTPError
	Internal error `json:"-"`
}

// NewHTTPError 创建 HTTP 错误
func NewHTTPError(code int, errorType types.PublicHTTPErrorType, title string) *HTTPError {
	return &HTTPError{
		PublicHTTPError: types.PublicHTTPError{
			Code:  int64(code),
			Type:  errorType,
			Title: title,
		},
	}
}

// NewHTTPErrorWithDetail 创建带 detail 的 HTTP 错误
func NewHTTPErrorWithDetail(code int, errorType types.PublicHTTPErrorType, title string, detail string) *HTTPError {
	e := NewHTTPError(code, errorType, title)
	e.Detail = detail
	return e
}

// NewFromEcho 把 echo.HTTPError 转成 HTTPError
func NewFromEcho(e *echo.HTTPError) *HTTPError {
	return &HTTPError{
		PublicHTTPError: types.PublicHTTPError{
			Code:  int64(e.Code),
			Type:  types.PublicHTTPErrorTypeGeneric,
			Title: http.StatusText(e.Code),
		},
		Internal: e,
	}
}

func (e *HTTPError) Error() string {
	var b string
	if len(e.Type) > 0 {
		b = fmt.Sprintf("HTTPError %d (%s): %s", e.Code, e.Type, e.Title)
	} else {
		b = fmt.Sprintf("HTTPError %d: %s", e.Code, e.Title)
	}
	if len(e.Detail) > 0 {
		b = fmt.Sprintf("%s - %s", b, e.Detail)
	}
	if e.Internal != nil {
		b = fmt.Sprintf("%s, %v", b, e.Internal)
	}
	return b
}

// Unwrap 返回内部错误
func (e *HTTPError) Unwrap() error {
	return e.Internal
}

// Wrap 附加内部错误后返回副本
func (e *HTTPError) Wrap(err error) *HTTPError {
	out := *e
	out.Internal = err
	return &out
}
