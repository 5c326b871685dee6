// Package export flattens a directory tree into a single text document.
package export

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"github.com/temirov/flatten/internal/selection"
)

const (
	emptyRootErrorMessage      = "export: traversal root is empty"
	skipUnreadableDirectoryLog = "skipping unreadable directory"
	skipPrunedDirectoryLog     = "skipping excluded directory"
	readFailureLog             = "failed to read file"
	pathLogKey                 = "path"
)

// RecordVisitor receives each record in traversal order. Returning an error stops the walk.
type RecordVisitor func(Record) error

// WalkOptions configures a traversal.
type WalkOptions struct {
	Root         string
	Rules        selection.Rules
	DecodePolicy DecodePolicy
	// SkipFile, when set, is never emitted even if it is selected. The output document
	// passes itself here so it cannot be read back into itself.
	SkipFile os.FileInfo
	Logger   *zap.Logger
}

type treeWalker struct {
	ctx     context.Context
	options WalkOptions
	logger  *zap.Logger
	visit   RecordVisitor
}

// Walk performs a depth-first, pre-order traversal of options.Root. Within a directory the
// selected files are visited in listing order before any subdirectory is entered. Pruned
// directories are never opened, directory symlinks are never followed, and directories
// that cannot be listed are skipped.
func Walk(ctx context.Context, options WalkOptions, visitor RecordVisitor) error {
	if options.Root == "" {
		return errors.New(emptyRootErrorMessage)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	walker := &treeWalker{ctx: ctx, options: options, logger: logger, visit: visitor}
	return walker.walkDirectory(options.Root)
}

func (walker *treeWalker) walkDirectory(directoryPath string) error {
	if err := walker.ctx.Err(); err != nil {
		return err
	}
	entries, listErr := os.ReadDir(directoryPath)
	if listErr != nil {
		walker.logger.Warn(skipUnreadableDirectoryLog, zap.String(pathLogKey, directoryPath), zap.Error(listErr))
		if len(entries) == 0 {
			return nil
		}
	}

	var subdirectories []string
	for _, entry := range entries {
		entryName := entry.Name()
		entryPath := joinPath(directoryPath, entryName)
		if isDirectory(entryPath, entry) {
			if walker.options.Rules.PruneDirectory(entryName) {
				walker.logger.Debug(skipPrunedDirectoryLog, zap.String(pathLogKey, entryPath))
				continue
			}
			if entry.Type()&fs.ModeSymlink != 0 {
				continue
			}
			subdirectories = append(subdirectories, entryPath)
			continue
		}
		if !walker.options.Rules.SelectFile(entryName) || walker.isSkippedFile(entryPath) {
			continue
		}
		if err := walker.emit(walker.readRecord(entryPath)); err != nil {
			return err
		}
	}

	for _, subdirectoryPath := range subdirectories {
		if err := walker.walkDirectory(subdirectoryPath); err != nil {
			return err
		}
	}
	return nil
}

func (walker *treeWalker) emit(record Record) error {
	if err := walker.ctx.Err(); err != nil {
		return err
	}
	if walker.visit == nil {
		return nil
	}
	return walker.visit(record)
}

// #nosec G304
func (walker *treeWalker) readRecord(filePath string) Record {
	fileBytes, readErr := os.ReadFile(filePath)
	if readErr != nil {
		walker.logger.Warn(readFailureLog, zap.String(pathLogKey, filePath), zap.Error(readErr))
		return Record{Path: filePath, Err: readErr}
	}
	content, decodeErr := Decode(fileBytes, walker.options.DecodePolicy)
	if decodeErr != nil {
		walker.logger.Warn(readFailureLog, zap.String(pathLogKey, filePath), zap.Error(decodeErr))
		return Record{Path: filePath, Err: decodeErr}
	}
	return Record{Path: filePath, Content: content}
}

func (walker *treeWalker) isSkippedFile(filePath string) bool {
	if walker.options.SkipFile == nil {
		return false
	}
	fileInfo, statErr := os.Stat(filePath)
	if statErr != nil {
		return false
	}
	return os.SameFile(fileInfo, walker.options.SkipFile)
}

// isDirectory follows symlinks, so a link to a directory counts as a directory while a
// dangling link counts as a file.
func isDirectory(entryPath string, entry fs.DirEntry) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	targetInfo, statErr := os.Stat(entryPath)
	return statErr == nil && targetInfo.IsDir()
}
