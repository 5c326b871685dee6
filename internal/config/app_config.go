// Package config loads flatten's global and local YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/temirov/flatten/internal/selection"
	"github.com/temirov/flatten/internal/utils"
)

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// ApplicationConfiguration holds user overrides. Unset scalars are empty and unset
// switches are nil so that a later source only replaces what it actually names.
type ApplicationConfiguration struct {
	Output       string             `mapstructure:"output"`
	Extensions   []string           `mapstructure:"extensions"`
	Exclude      []string           `mapstructure:"exclude"`
	HiddenPrefix *string            `mapstructure:"hidden_prefix"`
	TestMarker   *string            `mapstructure:"test_marker"`
	Decode       string             `mapstructure:"decode"`
	Summary      *bool              `mapstructure:"summary"`
	Tokens       TokenConfiguration `mapstructure:"tokens"`
	Clipboard    *bool              `mapstructure:"clipboard"`
}

// TokenConfiguration controls token counting defaults.
type TokenConfiguration struct {
	Enabled *bool  `mapstructure:"enabled"`
	Model   string `mapstructure:"model"`
}

// LoadApplicationConfiguration merges ~/.flatten/config.yaml with the local .flatten.yaml
// (or the explicit file), the local file taking precedence. Missing files are not errors.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", err)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	if homeDirectory, err := os.UserHomeDir(); err == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.GlobalConfigFileName)
		globalConfig, loadErr := loadConfigurationFromPath(globalPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	localPath := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	if options.ExplicitFilePath != "" {
		if _, statErr := os.Stat(localPath); statErr != nil {
			return ApplicationConfiguration{}, fmt.Errorf("configuration file %s: %w", localPath, statErr)
		}
	}
	localConfig, loadErr := loadConfigurationFromPath(localPath)
	if loadErr != nil {
		return ApplicationConfiguration{}, loadErr
	}
	return merged.Merge(localConfig), nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) string {
	if explicitPath == "" {
		return filepath.Join(workingDirectory, utils.ConfigFileName)
	}
	if filepath.IsAbs(explicitPath) {
		return explicitPath
	}
	return filepath.Join(workingDirectory, explicitPath)
}

func loadConfigurationFromPath(path string) (ApplicationConfiguration, error) {
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	reader.SetConfigType("yaml")
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readErr)
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeErr)
	}
	return config, nil
}

// Merge overlays override onto the receiver returning the combined configuration. Lists
// are replaced as a whole rather than appended.
func (config ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := config
	if override.Output != "" {
		result.Output = override.Output
	}
	if len(override.Extensions) > 0 {
		result.Extensions = deduplicate(override.Extensions)
	}
	if len(override.Exclude) > 0 {
		result.Exclude = deduplicate(override.Exclude)
	}
	if override.HiddenPrefix != nil {
		result.HiddenPrefix = cloneString(override.HiddenPrefix)
	}
	if override.TestMarker != nil {
		result.TestMarker = cloneString(override.TestMarker)
	}
	if override.Decode != "" {
		result.Decode = override.Decode
	}
	if override.Summary != nil {
		result.Summary = cloneBool(override.Summary)
	}
	if override.Tokens.Enabled != nil {
		result.Tokens.Enabled = cloneBool(override.Tokens.Enabled)
	}
	if override.Tokens.Model != "" {
		result.Tokens.Model = override.Tokens.Model
	}
	if override.Clipboard != nil {
		result.Clipboard = cloneBool(override.Clipboard)
	}
	return result
}

// SelectionOptions applies the configuration on top of the built-in selection defaults.
// Configured extensions replace the allow-list; configured exclusions extend the built-in set.
func (config ApplicationConfiguration) SelectionOptions() selection.Options {
	options := selection.DefaultOptions()
	if len(config.Extensions) > 0 {
		options.Extensions = append([]string{}, config.Extensions...)
	}
	options.ExcludedDirectories = deduplicate(append(options.ExcludedDirectories, config.Exclude...))
	if config.HiddenPrefix != nil {
		options.HiddenPrefix = *config.HiddenPrefix
	}
	if config.TestMarker != nil {
		options.TestMarker = *config.TestMarker
	}
	return options
}

// deduplicate trims entries and removes blanks and repeats, keeping first occurrences.
func deduplicate(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
