package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

const (
	// DefaultBodyLimit caps record payloads.
	DefaultBodyLimit = "2M"

	shutdownTimeout = 10 * time.Second
)

// NewServer builds an echo instance serving api. An empty bodyLimit selects
// DefaultBodyLimit.
func NewServer(api *API, bodyLimit string) *echo.Echo {
	if strings.TrimSpace(bodyLimit) == "" {
		bodyLimit = DefaultBodyLimit
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(recovery(api.logger))
	e.Use(echomw.RequestID())
	e.Use(requestLogger(api.logger))
	e.Use(echomw.BodyLimit(bodyLimit))

	api.Register(e)
	return e
}

// Serve runs e on addr until ctx is cancelled, then shuts it down
// gracefully.
func Serve(ctx context.Context, e *echo.Echo, addr string) error {
	errs := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err, ok := <-errs:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
