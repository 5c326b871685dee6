// Package tokenizer estimates token counts for exported text.
package tokenizer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Counter estimates token counts for text content.
type Counter interface {
	Name() string
	CountString(input string) (int, error)
}

// Config captures tokenizer selection parameters provided by the CLI.
type Config struct {
	Model string
}

const (
	// DefaultModel is used when no model is configured.
	DefaultModel        = "gpt-4o"
	defaultEncodingName = "cl100k_base"
)

// NewCounter returns a tiktoken Counter for the requested model together with the name the
// count should be reported under. Models without a known encoding fall back to cl100k_base.
func NewCounter(cfg Config) (Counter, string, error) {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	lowerModel := strings.ToLower(model)

	encoding, err := tiktoken.EncodingForModel(lowerModel)
	if err == nil && encoding != nil {
		return tiktokenCounter{encoding: encoding, name: lowerModel}, model, nil
	}
	fallback, fallbackErr := tiktoken.GetEncoding(defaultEncodingName)
	if fallbackErr != nil {
		return nil, "", fmt.Errorf("initialize fallback tokenizer: %w", fallbackErr)
	}
	return tiktokenCounter{encoding: fallback, name: defaultEncodingName}, defaultEncodingName, nil
}

type tiktokenCounter struct {
	encoding *tiktoken.Tiktoken
	name     string
}

func (counter tiktokenCounter) Name() string {
	return counter.name
}

func (counter tiktokenCounter) CountString(input string) (int, error) {
	if counter.encoding == nil {
		return 0, errors.New("nil tiktoken encoder")
	}
	return len(counter.encoding.Encode(input, nil, nil)), nil
}
