package healdv

import "github.com/goliatone/go-heal-dataverse/internal/runtimeconfig"

var (
	ErrDefaultDeploymentRequired = runtimeconfig.ErrDefaultDeploymentRequired
	ErrDeploymentUnknown         = runtimeconfig.ErrDeploymentUnknown
	ErrSchemaLocationRequired    = runtimeconfig.ErrSchemaLocationRequired
	ErrDeploymentHostInvalid     = runtimeconfig.ErrDeploymentHostInvalid
	ErrDeploymentHostConflict    = runtimeconfig.ErrDeploymentHostConflict
	ErrDataverseURLInvalid       = runtimeconfig.ErrDataverseURLInvalid
	ErrLoggingProviderUnknown    = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid       = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid      = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config        = runtimeconfig.Config
	Deployment    = runtimeconfig.Deployment
	LoggingConfig = runtimeconfig.LoggingConfig
)

const (
	DeploymentDemo        = runtimeconfig.DeploymentDemo
	DeploymentProd        = runtimeconfig.DeploymentProd
	DefaultSchemaLocation = runtimeconfig.DefaultSchemaLocation
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
