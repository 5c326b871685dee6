package export

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/flatten/internal/tokenizer"
	"github.com/temirov/flatten/internal/utils"
)

// Summary aggregates what a run wrote.
type Summary struct {
	Files    int
	Failures int
	Bytes    int64
	Tokens   int
	Model    string
}

// String renders the summary as a single line, e.g.
// "Summary: 3 files, 1.2kb, 1 read failure, 812 tokens (gpt-4o)".
func (summary Summary) String() string {
	var builder strings.Builder
	builder.WriteString("Summary: ")
	builder.WriteString(pluralize(summary.Files, "file", "files"))
	builder.WriteString(", ")
	builder.WriteString(utils.FormatFileSize(summary.Bytes))
	if summary.Failures > 0 {
		builder.WriteString(", ")
		builder.WriteString(pluralize(summary.Failures, "read failure", "read failures"))
	}
	if summary.Model != "" {
		fmt.Fprintf(&builder, ", %s (%s)", pluralize(summary.Tokens, "token", "tokens"), summary.Model)
	}
	return builder.String()
}

func pluralize(count int, singular string, plural string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, singular)
	}
	return fmt.Sprintf("%d %s", count, plural)
}

type summaryTracker struct {
	files    int
	failures int
	bytes    int64
	tokens   int
	counter  tokenizer.Counter
	model    string
	logger   *zap.Logger
}

func (tracker *summaryTracker) add(record Record) {
	tracker.files++
	if record.Failed() {
		tracker.failures++
		return
	}
	tracker.bytes += int64(len(record.Content))
	if tracker.counter == nil {
		return
	}
	tokens, countErr := tokenizer.CountText(tracker.counter, record.Content)
	if countErr != nil {
		tracker.logger.Warn(tokenCountFailureLog, zap.String(pathLogKey, record.Path), zap.Error(countErr))
		return
	}
	tracker.tokens += tokens
}

func (tracker *summaryTracker) summary() Summary {
	result := Summary{
		Files:    tracker.files,
		Failures: tracker.failures,
		Bytes:    tracker.bytes,
	}
	if tracker.counter != nil {
		result.Tokens = tracker.tokens
		result.Model = tracker.model
	}
	return result
}
