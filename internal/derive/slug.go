package derive

import (
	"bytes"
	"errors"
	"fmt"
)

// SlugSize is the fixed width of the encoded slug buffer.
const SlugSize = 32

// ErrInvalidSlug reports a slug outside [A-Za-z0-9-]{1,32}.
var ErrInvalidSlug = errors.New("invalid slug")

// Slug is the canonical encoding of a pool identifier: the ASCII bytes
// right-padded with zero bytes to SlugSize.
type Slug [SlugSize]byte

// ParseSlug validates and encodes a slug.
func ParseSlug(input string) (Slug, error) {
	var s Slug
	if len(input) == 0 || len(input) > SlugSize {
		return s, fmt.Errorf("%w: length %d", ErrInvalidSlug, len(input))
	}
	for i := 0; i < len(input); i++ {
		if !isSlugByte(input[i]) {
			return s, fmt.Errorf("%w: byte %q at %d", ErrInvalidSlug, input[i], i)
		}
	}
	copy(s[:], input)
	return s, nil
}

// MustSlug is ParseSlug for constants and tests.
func MustSlug(input string) Slug {
	s, err := ParseSlug(input)
	if err != nil {
		panic(err)
	}
	return s
}

// Bytes returns the full fixed-width buffer, padding included.
func (s Slug) Bytes() []byte {
	return s[:]
}

// String returns the slug without padding.
func (s Slug) String() string {
	return string(bytes.TrimRight(s[:], "\x00"))
}

func isSlugByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z':
		return true
	case b >= 'A' && b <= 'Z':
		return true
	case b >= '0' && b <= '9':
		return true
	case b == '-':
		return true
	default:
		return false
	}
}
