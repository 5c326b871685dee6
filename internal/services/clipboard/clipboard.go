// Package clipboard copies a finished snapshot to the system clipboard.
package clipboard

import (
	"fmt"
	"os"

	"github.com/atotto/clipboard"
)

// Copier copies textual data to the system clipboard.
type Copier interface {
	Copy(text string) error
}

// Service implements Copier using github.com/atotto/clipboard.
type Service struct{}

// NewService constructs a clipboard Service.
func NewService() *Service {
	return &Service{}
}

// Copy writes text to the system clipboard.
func (service *Service) Copy(text string) error {
	return clipboard.WriteAll(text)
}

// CopyFile reads the document at path and hands its text to copier.
//
// #nosec G304
func CopyFile(copier Copier, path string) error {
	documentBytes, readErr := os.ReadFile(path)
	if readErr != nil {
		return fmt.Errorf("read %s for clipboard: %w", path, readErr)
	}
	if copyErr := copier.Copy(string(documentBytes)); copyErr != nil {
		return fmt.Errorf("copy %s to clipboard: %w", path, copyErr)
	}
	return nil
}

var _ Copier = (*Service)(nil)
