package types

// PublicHTTPErrorType 对外暴露的 HTTP 错误类型
type PublicHTTPErrorType string

const (
	PublicHTTPErrorTypeGeneric          PublicHTTPErrorType = "generic"
	PublicHTTPErrorTypeUnsupportedChain PublicHTTPErrorType = "UNSUPPORTED_CHAIN"
	PublicHTTPErrorTypeInvalidPublicKey PublicHTTPErrorType = "INVALID_PUBLIC_KEY"
	PublicHTTPErrorTypeInvalidAddress   PublicHTTPErrorType = "INVALID_ADDRESS"
	PublicHTTPErrorTypeUpstreamFailed   PublicHTTPErrorType = "UPSTREAM_FAILED"
)

// PublicHTTPError HTTP 错误响应体
type PublicHTTPError struct {
	Code   int64               `json:"status"`
	Type   PublicHTTPErrorType `json:"type"`
	Title  string              `json:"title"`
	Detail string              `json:"detail,omitempty"`
}
