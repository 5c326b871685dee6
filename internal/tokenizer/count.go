package tokenizer

import (
	"errors"
)

// CountText estimates tokens for already decoded text. A nil counter is an error so callers
// notice a missing tokenizer instead of silently reporting zero.
func CountText(counter Counter, text string) (int, error) {
	if counter == nil {
		return 0, errors.New("nil tokenizer counter")
	}
	if text == "" {
		return 0, nil
	}
	return counter.CountString(text)
}
