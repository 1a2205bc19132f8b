package http

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/goliatone/go-heal-dataverse/internal/logging"
	"github.com/goliatone/go-heal-dataverse/pkg/interfaces"
)

func requestID(c echo.Context) string {
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

// requestLogger tags the request context with its id so converter entries
// can be correlated, then records one entry per request.
func requestLogger(logger interfaces.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			rid := requestID(c)
			if rid != "" {
				c.SetRequest(req.WithContext(logging.ContextWithFields(req.Context(), map[string]any{
					"request_id": rid,
				})))
			}

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			args := []any{
				"request_id", rid,
				"method", req.Method,
				"path", req.URL.Path,
				"host", req.Host,
				"status", c.Response().Status,
				"latency", time.Since(start).String(),
			}
			if err != nil {
				logger.Error("http.request", append(args, "error", err)...)
			} else {
				logger.Info("http.request", args...)
			}
			return nil
		}
	}
}

func recovery(logger interfaces.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					var stack [4096]byte
					n := runtime.Stack(stack[:], false)

					logger.Error("http.panic.recovered",
						"request_id", requestID(c),
						"panic", fmt.Sprintf("%v", r),
						"stack", string(stack[:n]),
					)
					err = echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
				}
			}()
			return next(c)
		}
	}
}
