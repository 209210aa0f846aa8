package services

import (
	"errors"
	"fmt"

	"commentlottery/internal/models"
)

var ErrInvalidWinnerCount = errors.New("winner count must not be negative")

// AbortedFetchError reports that the reply API answered a page with a
// non-success code. Nothing collected before the abort is kept.
type AbortedFetchError struct {
	Page   int
	Status models.FetchStatus
}

func (e *AbortedFetchError) Error() string {
	return fmt.Sprintf("fetch aborted on page %d: %s", e.Page, e.Status)
}

// IsRateLimited reports whether the abort was caused by the rate limiter.
func (e *AbortedFetchError) IsRateLimited() bool {
	return e.Status.Kind == models.StatusRateLimited
}

// TransportError wraps a network or decoding failure while fetching a page.
type TransportError struct {
	Page int
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fetch page %d: %v", e.Page, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
