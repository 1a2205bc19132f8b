package http

import (
	"errors"
	"net/http"

	goerrors "github.com/goliatone/go-errors"

	healdv "github.com/goliatone/go-heal-dataverse"
	"github.com/goliatone/go-heal-dataverse/internal/validation"
)

type errorResponse struct {
	Error   string                       `json:"error"`
	Code    string                       `json:"code,omitempty"`
	Message string                       `json:"message,omitempty"`
	Issues  []validation.ValidationIssue `json:"issues,omitempty"`
}

type validateResponse struct {
	Valid      bool                         `json:"valid"`
	Deployment string                       `json:"deployment"`
	Issues     []validation.ValidationIssue `json:"issues,omitempty"`
}

type deploymentResponse struct {
	Name           string   `json:"name"`
	Hosts          []string `json:"hosts,omitempty"`
	SchemaLocation string   `json:"schema_location"`
	DataverseURL   string   `json:"dataverse_url,omitempty"`
	Selected       bool     `json:"selected"`
}

func mapError(err error) (int, errorResponse) {
	if err == nil {
		return http.StatusInternalServerError, errorResponse{Error: "unknown_error"}
	}
	if errors.Is(err, healdv.ErrDeploymentUnknown) {
		return http.StatusNotFound, errorResponse{Error: "not_found", Message: err.Error()}
	}
	if goerrors.IsCategory(err, goerrors.CategoryValidation) {
		return http.StatusUnprocessableEntity, errorResponse{
			Error:   "validation_failed",
			Code:    healdv.ErrorCode(err),
			Message: err.Error(),
		}
	}
	return http.StatusInternalServerError, errorResponse{
		Error:   "conversion_failed",
		Message: err.Error(),
	}
}

func toDeploymentResponse(deployment healdv.Deployment, selected string) deploymentResponse {
	return deploymentResponse{
		Name:           deployment.Name,
		Hosts:          append([]string(nil), deployment.Hosts...),
		SchemaLocation: deployment.SchemaLocation,
		DataverseURL:   deployment.DataverseURL,
		Selected:       deployment.Name == selected,
	}
}
