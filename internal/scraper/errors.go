package scraper

import (
	"errors"
	"fmt"
	"strings"
)

// ScrapeError wraps the final failure of a provider fetch after the retry
// budget is spent (or immediately, for terminal failures).
type ScrapeError struct {
	Provider string
	Attempts int
	Err      error
}

func (e *ScrapeError) Error() string {
	return fmt.Sprintf("[%s] scrape failed after %d attempt(s): %v", e.Provider, e.Attempts, e.Err)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// UnknownProviderError is returned by the registry for names that were never
// registered. It is always terminal: retrying cannot fix configuration.
type UnknownProviderError struct {
	Provider  string
	Available []string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown scraper provider %q (available: %s)",
		e.Provider, strings.Join(e.Available, ", "))
}

// terminalError marks a failure that must not be retried, such as a
// malformed query or a provider rejecting the request outright.
type terminalError struct {
	err error
}

func (e *terminalError) Error() string { return e.err.Error() }
func (e *terminalError) Unwrap() error { return e.err }

// Terminal wraps err so IsTerminal reports true for it.
func Terminal(err error) error {
	if err == nil {
		return nil
	}
	return &terminalError{err: err}
}

// IsTerminal reports whether err (or anything it wraps) is a failure that
// retrying cannot fix.
func IsTerminal(err error) bool {
	var te *terminalError
	if errors.As(err, &te) {
		return true
	}
	var upe *UnknownProviderError
	return errors.As(err, &upe)
}
