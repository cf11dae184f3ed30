package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github/safehost/go-provider/internal/util"
)

// Logger attaches a request-scoped zerolog logger to the context and emits
// one line per handled request at the given level.
func Logger(level zerolog.Level) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = c.Response().Header().Get(echo.HeaderXRequestID)
			}

			l := log.With().
				Str("request_id", requestID).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Logger()

			c.SetRequest(req.WithContext(util.WithLogger(req.Context(), l)))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			l.WithLevel(level).
				Int("status", c.Response().Status).
				Dur("duration", time.Since(start)).
				Msg("Handled request")

			return err
		}
	}
}

// RequestID is the upstream request id middleware, re-exported so the router
// only imports this package.
func RequestID() echo.MiddlewareFunc {
	return echomiddleware.RequestID()
}

// Recover is the upstream panic recovery middleware.
func Recover() echo.MiddlewareFunc {
	return echomiddleware.Recover()
}
