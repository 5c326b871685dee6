package export

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// DecodePolicy selects how file bytes that are not valid UTF-8 are handled.
type DecodePolicy string

const (
	// DecodeIgnore drops bytes that cannot be decoded.
	DecodeIgnore DecodePolicy = "ignore"
	// DecodeReplace substitutes U+FFFD for bytes that cannot be decoded.
	DecodeReplace DecodePolicy = "replace"
	// DecodeStrict rejects files that are not valid UTF-8.
	DecodeStrict DecodePolicy = "strict"

	unknownDecodePolicyFormat = "unknown decode policy %q (expected ignore, replace or strict)"
)

// ErrInvalidEncoding is returned by Decode under DecodeStrict.
var ErrInvalidEncoding = errors.New("invalid UTF-8 content")

// ParseDecodePolicy converts a user supplied name into a DecodePolicy. An empty name
// selects DecodeIgnore.
func ParseDecodePolicy(name string) (DecodePolicy, error) {
	switch DecodePolicy(strings.ToLower(strings.TrimSpace(name))) {
	case "", DecodeIgnore:
		return DecodeIgnore, nil
	case DecodeReplace:
		return DecodeReplace, nil
	case DecodeStrict:
		return DecodeStrict, nil
	default:
		return "", fmt.Errorf(unknownDecodePolicyFormat, name)
	}
}

// Decode turns raw file bytes into text according to policy.
func Decode(data []byte, policy DecodePolicy) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	switch policy {
	case DecodeReplace:
		replaced, _, transformErr := transform.Bytes(runes.ReplaceIllFormed(), data)
		if transformErr != nil {
			return "", transformErr
		}
		return string(replaced), nil
	case DecodeStrict:
		return "", ErrInvalidEncoding
	default:
		return strings.ToValidUTF8(string(data), ""), nil
	}
}
