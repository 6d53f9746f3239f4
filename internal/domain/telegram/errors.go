package telegram

import (
	"fmt"
	"time"
)

// RateLimitedError indicates the platform rejected a send because of rate
// limiting and told us how long to wait before retrying.
type RateLimitedError struct {
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s: %v", e.RetryAfter, e.Err)
}

func (e *RateLimitedError) Unwrap() error { return e.Err }

// TransientError indicates a send failure that is worth retrying (network
// problems, platform 5xx responses).
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("transient send error: %v", e.Err) }

func (e *TransientError) Unwrap() error { return e.Err }

// FatalError indicates a send failure that retrying cannot fix (blocked bot,
// unknown chat, malformed message). The unit is skipped immediately.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return fmt.Sprintf("fatal send error: %v", e.Err) }

func (e *FatalError) Unwrap() error { return e.Err }
