package middleware

import (
	"time"

	"github.com/SafeMPC/flow-wallet-kit/internal/util"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LoggerWithConfig 为每个请求绑定带 request id 的 logger，并在请求结束后记录一行访问日志
func LoggerWithConfig(level zerolog.Level) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			start := time.Now()

			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = res.Header().Get(echo.HeaderXRequestID)
			}

			l := log.With().Str("id", id).Logger()
			c.SetRequest(req.WithContext(util.WithLogger(req.Context(), l)))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			l.WithLevel(level).
				Str("method", req.Method).
				Str("path", c.Path()).
				Str("uri", req.RequestURI).
				Int("status", res.Status).
				Int64("bytes_out", res.Size).
				Dur("duration", time.Since(start)).
				Msg("Request")

			return nil
		}
	}
}
