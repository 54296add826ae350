package chat

import (
	"errors"
	"fmt"
	"time"
)

// InvalidInputError is returned when the sanitizer rejects a message.
// The user must edit the message; no session state is advanced beyond
// an audit event.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("chat: invalid input: %s", e.Reason)
}

// IsInvalidInput reports whether err is an InvalidInputError.
func IsInvalidInput(err error) bool {
	var iie *InvalidInputError
	return errors.As(err, &iie)
}

// RateLimitedError is returned when a session exceeds its sliding-window
// message budget. RetryAfter tells the caller when the window frees up.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("chat: rate limited, retry after %s", e.RetryAfter)
}

// IsRateLimited reports whether err is a RateLimitedError.
func IsRateLimited(err error) bool {
	var rle *RateLimitedError
	return errors.As(err, &rle)
}
