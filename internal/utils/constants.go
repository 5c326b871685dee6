// Package utils holds logging, formatting and version helpers shared by the flatten CLI.
package utils

const (
	// ConfigFileName is the local configuration file looked up in the working directory.
	ConfigFileName = ".flatten.yaml"
	// GlobalConfigDirectoryName is the directory under the user's home holding the global configuration.
	GlobalConfigDirectoryName = ".flatten"
	// GlobalConfigFileName is the configuration file name inside GlobalConfigDirectoryName.
	GlobalConfigFileName = "config.yaml"
	// GitDirectoryName is the name of the Git repository directory.
	GitDirectoryName = ".git"

	// LoggerInitializationFailedMessageFormat reports a logger construction failure.
	LoggerInitializationFailedMessageFormat = "failed to initialize logger: %w"
	// ApplicationExecutionFailedMessage prefixes fatal command errors.
	ApplicationExecutionFailedMessage = "flatten failed"
)
