package export

import (
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	recordHeaderFormat = "\n\n===== %s =====\n"
	readFailureFormat  = "[Error reading %s: %v]\n"
)

// Record is one exported file: its root-joined path followed by either its text or the
// error that prevented reading it.
type Record struct {
	Path    string
	Content string
	Err     error
}

// Failed reports whether the record carries a read failure instead of content.
func (record Record) Failed() bool {
	return record.Err != nil
}

// Render writes the record in document form.
func (record Record) Render(writer io.Writer) error {
	if _, err := fmt.Fprintf(writer, recordHeaderFormat, record.Path); err != nil {
		return err
	}
	if record.Failed() {
		_, err := fmt.Fprintf(writer, readFailureFormat, record.Path, record.Err)
		return err
	}
	_, err := io.WriteString(writer, record.Content)
	return err
}

// joinPath appends name to directory without cleaning, so a root of "." yields "./name".
func joinPath(directory string, name string) string {
	if directory == "" {
		return name
	}
	if strings.HasSuffix(directory, string(os.PathSeparator)) || strings.HasSuffix(directory, "/") {
		return directory + name
	}
	return directory + string(os.PathSeparator) + name
}
