package export

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/flatten/internal/selection"
	"github.com/temirov/flatten/internal/tokenizer"
)

const tokenCountFailureLog = "failed to count tokens"

// RunOptions configures a complete export.
type RunOptions struct {
	Root         string
	OutputPath   string
	Rules        selection.Rules
	DecodePolicy DecodePolicy
	// Logger receives per-file diagnostics. Nil keeps the run silent.
	Logger *zap.Logger
	// TokenCounter, when set, adds token counts to the returned Summary.
	TokenCounter tokenizer.Counter
	TokenModel   string
}

// Run creates the output document and fills it with one record per selected file. Failing
// to create the document aborts before traversal; per-file failures become inline
// annotations. The walk and the writer are connected by an unbuffered channel, so records
// land in the document in traversal order.
func Run(ctx context.Context, options RunOptions) (summary Summary, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	document, createErr := CreateDocument(options.OutputPath)
	if createErr != nil {
		return Summary{}, createErr
	}
	defer func() {
		if closeErr := document.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	walkOptions := WalkOptions{
		Root:         options.Root,
		Rules:        options.Rules,
		DecodePolicy: options.DecodePolicy,
		Logger:       logger,
	}
	if documentInfo, statErr := document.Stat(); statErr == nil {
		walkOptions.SkipFile = documentInfo
	}

	tracker := &summaryTracker{counter: options.TokenCounter, model: options.TokenModel, logger: logger}

	group, streamCtx := errgroup.WithContext(ctx)
	records := make(chan Record)

	group.Go(func() error {
		defer close(records)
		return Walk(streamCtx, walkOptions, func(record Record) error {
			select {
			case <-streamCtx.Done():
				return streamCtx.Err()
			case records <- record:
				return nil
			}
		})
	})

	group.Go(func() error {
		for {
			select {
			case <-streamCtx.Done():
				return streamCtx.Err()
			case record, ok := <-records:
				if !ok {
					return nil
				}
				if writeErr := document.WriteRecord(record); writeErr != nil {
					return writeErr
				}
				tracker.add(record)
			}
		}
	})

	if waitErr := group.Wait(); waitErr != nil {
		if errors.Is(waitErr, context.Canceled) && ctx.Err() != nil {
			return tracker.summary(), ctx.Err()
		}
		return tracker.summary(), waitErr
	}
	return tracker.summary(), nil
}
