package domain

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxTopicLength bounds topics accepted at the boundaries, in bytes.
const DefaultMaxTopicLength = 500

// SanitizeTopic cleans a caller-supplied topic: it rejects invalid UTF-8 and
// oversize input, strips control characters other than whitespace and trims
// the result. A blank topic yields ErrEmptyTopic. maxLen <= 0 selects
// DefaultMaxTopicLength.
func SanitizeTopic(input string, maxLen int) (string, error) {
	if maxLen <= 0 {
		maxLen = DefaultMaxTopicLength
	}
	// Reject rather than truncate so the topic stored in the run is the one sent.
	if len(input) > maxLen {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrTopicTooLong, len(input), maxLen)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		switch {
		case r == '\n' || r == '\t' || r == '\r':
			b.WriteRune(' ')
		case unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}

	topic := strings.TrimSpace(b.String())
	if topic == "" {
		return "", ErrEmptyTopic
	}
	return topic, nil
}
