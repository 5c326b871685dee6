package utils

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime/debug"
	"strings"
)

const (
	unknownVersion     = "unknown"
	develModuleVersion = "(devel)"
)

// GetApplicationVersion reports the module version from build info, falling back to
// `git describe` when running from a source checkout.
func GetApplicationVersion() string {
	buildInfo, buildInfoAvailable := debug.ReadBuildInfo()
	if buildInfoAvailable && buildInfo.Main.Version != "" && buildInfo.Main.Version != develModuleVersion {
		return buildInfo.Main.Version
	}

	repositoryRoot, lookupError := findRepositoryRoot(".")
	if lookupError != nil {
		return unknownVersion
	}
	describeArguments := [][]string{
		{"describe", "--tags", "--exact-match"},
		{"describe", "--tags", "--long", "--dirty"},
	}
	for _, arguments := range describeArguments {
		// #nosec G204
		describeCommand := exec.Command("git", arguments...)
		describeCommand.Dir = repositoryRoot
		describeOutput, describeError := describeCommand.Output()
		if describeError == nil && len(describeOutput) > 0 {
			return strings.TrimSpace(string(describeOutput))
		}
	}
	return unknownVersion
}

// findRepositoryRoot walks upward from startDirectory to the first directory containing .git.
func findRepositoryRoot(startDirectory string) (string, error) {
	absoluteStartDirectory, absoluteError := filepath.Abs(startDirectory)
	if absoluteError != nil {
		return "", fmt.Errorf("failed to get absolute path for %s: %w", startDirectory, absoluteError)
	}

	currentDirectory := absoluteStartDirectory
	for {
		gitInfo, statError := os.Stat(filepath.Join(currentDirectory, GitDirectoryName))
		if statError == nil && gitInfo.IsDir() {
			return currentDirectory, nil
		}
		parentDirectory := filepath.Dir(currentDirectory)
		if parentDirectory == currentDirectory {
			return "", fmt.Errorf(".git directory not found in or above %s", absoluteStartDirectory)
		}
		currentDirectory = parentDirectory
	}
}
