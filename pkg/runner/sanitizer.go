package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxInputSize bounds a single utterance, in bytes.
	DefaultMaxInputSize = 4096
	// EnvMaxInputSize overrides DefaultMaxInputSize.
	EnvMaxInputSize = "CONCIERGE_MAX_INPUT_SIZE"
)

var (
	ErrEmptyInput    = errors.New("input is empty")
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// SanitizeInput prepares an utterance for the dialogue machine.
//
// Oversized or malformed input is rejected as a whole, so a cut value is never
// stored as an answer. Terminal control sequences and the invisible marks left
// by copy-paste (byte order mark, zero-width space) are dropped. Anything left
// with no visible text is ErrEmptyInput: it would otherwise count as a failed
// answer to the current field.
func SanitizeInput(input string) (string, error) {
	if limit := MaxInputSize(); len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	clean := strings.Map(keep, input)
	if strings.TrimSpace(clean) == "" {
		return "", ErrEmptyInput
	}
	return clean, nil
}

// keep is a strings.Map mapping; -1 drops the rune.
func keep(r rune) rune {
	switch r {
	case '\n', '\r', '\t':
		return r
	case '\uFEFF', '\u200B':
		return -1
	}
	if unicode.IsControl(r) {
		return -1
	}
	return r
}

// MaxInputSize returns the limit in bytes. Invalid or non-positive values of
// EnvMaxInputSize are ignored.
func MaxInputSize() int {
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxInputSize
}
