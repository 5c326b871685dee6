package export

import (
	"bufio"
	"fmt"
	"os"
)

const (
	createDocumentErrorFormat = "create output document %s: %w"
	flushDocumentErrorFormat  = "flush output document %s: %w"
	closeDocumentErrorFormat  = "close output document %s: %w"
)

// Document is the output file. Records are appended through a buffer that is flushed on Close.
type Document struct {
	path   string
	file   *os.File
	writer *bufio.Writer
}

// CreateDocument creates or truncates the document at path.
//
// #nosec G304
func CreateDocument(path string) (*Document, error) {
	file, createErr := os.Create(path)
	if createErr != nil {
		return nil, fmt.Errorf(createDocumentErrorFormat, path, createErr)
	}
	return &Document{path: path, file: file, writer: bufio.NewWriter(file)}, nil
}

// Path returns the path the document was created with.
func (document *Document) Path() string {
	return document.path
}

// Stat describes the underlying file.
func (document *Document) Stat() (os.FileInfo, error) {
	return document.file.Stat()
}

// WriteRecord appends one record.
func (document *Document) WriteRecord(record Record) error {
	return record.Render(document.writer)
}

// Close flushes buffered records and closes the file. The flush error wins when both fail.
func (document *Document) Close() error {
	flushErr := document.writer.Flush()
	closeErr := document.file.Close()
	if flushErr != nil {
		return fmt.Errorf(flushDocumentErrorFormat, document.path, flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf(closeDocumentErrorFormat, document.path, closeErr)
	}
	return nil
}
