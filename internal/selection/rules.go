// Package selection decides which directories are traversed and which files are exported.
package selection

import (
	"strings"
)

const (
	// DefaultHiddenPrefix marks directory names that are never traversed.
	DefaultHiddenPrefix = "."
	// DefaultTestMarker is matched case-insensitively anywhere in a directory name.
	DefaultTestMarker = "test"

	extensionSeparator = "."
)

// DefaultExtensions returns the built-in extension allow-list.
func DefaultExtensions() []string {
	return []string{".swift", ".xib", ".storyboard", ".plist", ".json", ".md"}
}

// DefaultExcludedDirectories returns the built-in set of excluded directory names.
func DefaultExcludedDirectories() []string {
	return []string{"Pods", ".git", "DerivedData", "build", ".build"}
}

// Options describes the selection rules before normalization.
type Options struct {
	Extensions          []string
	ExcludedDirectories []string
	// HiddenPrefix disables the hidden directory rule when empty.
	HiddenPrefix string
	// TestMarker disables the test directory rule when empty.
	TestMarker string
}

// DefaultOptions returns the built-in selection options.
func DefaultOptions() Options {
	return Options{
		Extensions:          DefaultExtensions(),
		ExcludedDirectories: DefaultExcludedDirectories(),
		HiddenPrefix:        DefaultHiddenPrefix,
		TestMarker:          DefaultTestMarker,
	}
}

// Rules is the immutable, normalized form of Options.
type Rules struct {
	extensions          map[string]struct{}
	excludedDirectories map[string]struct{}
	hiddenPrefix        string
	lowerTestMarker     string
}

// NewRules normalizes options into Rules. Extensions gain a leading dot when missing
// and blank entries are dropped.
func NewRules(options Options) Rules {
	rules := Rules{
		extensions:          make(map[string]struct{}, len(options.Extensions)),
		excludedDirectories: make(map[string]struct{}, len(options.ExcludedDirectories)),
		hiddenPrefix:        options.HiddenPrefix,
		lowerTestMarker:     strings.ToLower(options.TestMarker),
	}
	for _, extension := range options.Extensions {
		normalizedExtension := NormalizeExtension(extension)
		if normalizedExtension == "" {
			continue
		}
		rules.extensions[normalizedExtension] = struct{}{}
	}
	for _, directoryName := range options.ExcludedDirectories {
		trimmedName := strings.TrimSpace(directoryName)
		if trimmedName == "" {
			continue
		}
		rules.excludedDirectories[trimmedName] = struct{}{}
	}
	return rules
}

// PruneDirectory reports whether a directory with the given name, and everything below it,
// is skipped. Only the name is inspected, so the answer does not depend on depth.
func (rules Rules) PruneDirectory(name string) bool {
	if _, excluded := rules.excludedDirectories[name]; excluded {
		return true
	}
	if rules.hiddenPrefix != "" && strings.HasPrefix(name, rules.hiddenPrefix) {
		return true
	}
	if rules.lowerTestMarker != "" && strings.Contains(strings.ToLower(name), rules.lowerTestMarker) {
		return true
	}
	return false
}

// SelectFile reports whether a file with the given name is exported. Extension
// comparison is exact and case-sensitive.
func (rules Rules) SelectFile(name string) bool {
	extension := Extension(name)
	if extension == "" {
		return false
	}
	_, allowed := rules.extensions[extension]
	return allowed
}

// Extension returns the name's extension including its dot. Leading dots are part of the
// base name, so ".profile" has no extension while "a.tar.gz" has ".gz".
func Extension(name string) string {
	withoutLeadingDots := strings.TrimLeft(name, extensionSeparator)
	separatorIndex := strings.LastIndex(withoutLeadingDots, extensionSeparator)
	if separatorIndex < 0 {
		return ""
	}
	return withoutLeadingDots[separatorIndex:]
}

// NormalizeExtension trims whitespace and adds the leading dot when it is missing.
func NormalizeExtension(extension string) string {
	trimmedExtension := strings.TrimSpace(extension)
	if trimmedExtension == "" {
		return ""
	}
	if !strings.HasPrefix(trimmedExtension, extensionSeparator) {
		return extensionSeparator + trimmedExtension
	}
	return trimmedExtension
}
