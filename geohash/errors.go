package geohash

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned for out-of-range coordinates or
	// precision, and for empty or over-long geohash strings.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidCharacter matches every *InvalidCharacterError.
	ErrInvalidCharacter = errors.New("invalid geohash character")
)

// InvalidCharacterError reports a symbol outside Alphabet and its byte
// offset in the decoded string.
type InvalidCharacterError struct {
	Char  rune
	Index int
}

func (e *InvalidCharacterError) Error() string {
	return fmt.Sprintf("invalid geohash character %q at index %d", e.Char, e.Index)
}

// Is makes errors.Is(err, ErrInvalidCharacter) hold.
func (e *InvalidCharacterError) Is(target error) bool {
	return target == ErrInvalidCharacter
}
