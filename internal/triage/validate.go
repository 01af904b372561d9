package triage

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// maxCardTextLen is the upper bound on either face of a card, in characters
// after trimming
const maxCardTextLen = 1000

// Side identifies which face of a card a draft or error refers to
type Side string

const (
	SideFront Side = "front"
	SideBack  Side = "back"
)

var (
	// ErrRequired means the text is empty after trimming
	ErrRequired = errors.New("required")
	// ErrTooLong means the trimmed text exceeds the character limit
	ErrTooLong = errors.New("too long")
)

// CardValidationError identifies the card and side that failed validation
type CardValidationError struct {
	LocalID string
	Index   int
	Side    Side
	Err     error
}

func (e *CardValidationError) Error() string {
	return fmt.Sprintf("card %d %s: %v", e.Index+1, e.Side, e.Err)
}

func (e *CardValidationError) Unwrap() error {
	return e.Err
}

// validateText checks one card face: required after trim, at most
// maxCardTextLen characters
func validateText(text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ErrRequired
	}
	if utf8.RuneCountInString(trimmed) > maxCardTextLen {
		return ErrTooLong
	}
	return nil
}
