package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	healdv "github.com/goliatone/go-heal-dataverse"
	"github.com/goliatone/go-heal-dataverse/internal/logging"
	"github.com/goliatone/go-heal-dataverse/pkg/interfaces"
)

// DeploymentHeader names the deployment that served a response.
const DeploymentHeader = "X-Heal-Deployment"

const defaultBasePath = "/api"

// ConverterResolver picks converters by request host. *healdv.Module
// satisfies it.
type ConverterResolver interface {
	Converter(host string) (*healdv.Converter, error)
	Deployments() []healdv.Deployment
}

// API serves conversion requests for a converter module.
type API struct {
	module ConverterResolver
	logger interfaces.Logger
	base   string
}

// Option customises the API.
type Option func(*API)

// WithLogger routes request and handler logs through logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(api *API) {
		if logger != nil {
			api.logger = logger
		}
	}
}

// WithBasePath mounts the converter routes under base.
func WithBasePath(base string) Option {
	return func(api *API) {
		api.base = base
	}
}

// NewAPI builds the handlers for module.
func NewAPI(module ConverterResolver, opts ...Option) *API {
	api := &API{
		module: module,
		logger: logging.NoOp(),
		base:   defaultBasePath,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(api)
		}
	}
	api.base = "/" + strings.Trim(strings.TrimSpace(api.base), "/")
	if api.base == "/" {
		api.base = ""
	}
	return api
}

// Register mounts the API routes on e.
func (api *API) Register(e *echo.Echo) {
	e.GET("/healthz", api.handleHealth)

	group := e.Group(api.base)
	group.POST("/convert", api.handleConvert)
	group.POST("/validate", api.handleValidate)
	group.GET("/deployments", api.handleDeployments)
}

func (api *API) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (api *API) handleConvert(c echo.Context) error {
	converter, record, err := api.prepare(c)
	if err != nil {
		return api.writeError(c, err)
	}
	ctx := c.Request().Context()
	doc, err := converter.Convert(ctx, record)
	if err != nil {
		return api.writeError(c, err)
	}
	encoded, err := json.Marshal(doc)
	if err != nil {
		return api.writeError(c, err)
	}
	return c.JSONBlob(http.StatusOK, encoded)
}

func (api *API) handleValidate(c echo.Context) error {
	converter, record, err := api.prepare(c)
	if err != nil {
		return api.writeError(c, err)
	}
	issues, err := converter.Issues(c.Request().Context(), record)
	if err != nil {
		return api.writeError(c, err)
	}
	return c.JSON(http.StatusOK, validateResponse{
		Valid:      len(issues) == 0,
		Deployment: converter.Deployment().Name,
		Issues:     issues,
	})
}

func (api *API) handleDeployments(c echo.Context) error {
	selected := ""
	if converter, err := api.module.Converter(c.Request().Host); err == nil {
		selected = converter.Deployment().Name
	}
	deployments := api.module.Deployments()
	out := make([]deploymentResponse, 0, len(deployments))
	for _, deployment := range deployments {
		out = append(out, toDeploymentResponse(deployment, selected))
	}
	return c.JSON(http.StatusOK, out)
}

// prepare resolves the converter for the request host and decodes the body.
func (api *API) prepare(c echo.Context) (*healdv.Converter, map[string]any, error) {
	converter, err := api.module.Converter(c.Request().Host)
	if err != nil {
		return nil, nil, err
	}
	c.Response().Header().Set(DeploymentHeader, converter.Deployment().Name)

	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return nil, nil, httpErr
		}
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "request body could not be read")
	}
	record, err := healdv.DecodeRecord(payload)
	if err != nil {
		return nil, nil, &badRequestError{err: err}
	}
	return converter, record, nil
}

func (api *API) writeError(c echo.Context, err error) error {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	var bad *badRequestError
	if errors.As(err, &bad) {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Error:   "bad_request",
			Code:    healdv.CodeRecordDecodeFailed,
			Message: bad.Error(),
		})
	}
	status, payload := mapError(err)
	logger := api.logger.WithContext(c.Request().Context())
	if status >= http.StatusInternalServerError {
		logger.Error("http.request.failed", "path", c.Path(), "error", err)
	} else {
		logger.Debug("http.request.rejected", "path", c.Path(), "status", status, "error", err)
	}
	return c.JSON(status, payload)
}

type badRequestError struct {
	err error
}

func (e *badRequestError) Error() string { return e.err.Error() }
func (e *badRequestError) Unwrap() error { return e.err }
