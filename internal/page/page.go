// Package page is the contract every rendered session of the portal satisfies,
// whether it is a live browser or a set of saved html documents.
package page

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a selector resolves to no element.
	ErrNotFound = errors.New("element not found")
	// ErrTimeout is returned when a wait elapses without its condition becoming true.
	ErrTimeout = errors.New("timed out")
)

// Element is an opaque handle to a rendered element.
type Element interface {
	Text() (string, error)
	// Attribute returns the empty string when the attribute is absent.
	Attribute(name string) (string, error)
	// Value is the current value of a form field.
	Value() (string, error)
	SendKeys(text string) error
	// Press presses a single named key, ex. "Tab" or "Enter".
	Press(key string) error
	Clear() error
	Click() error

	Find(selector string) (Element, error)
	FindAll(selector string) ([]Element, error)
}

// Page is a live, navigable, queryable rendered session.
type Page interface {
	Navigate(ctx context.Context, url string) error
	URL() string
	// WaitFor blocks until an element matching selector is attached or until the
	// timeout elapses, in which case the error wraps ErrTimeout.
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error

	Find(selector string) (Element, error)
	FindAll(selector string) ([]Element, error)

	// Download saves the resource at url to path using the session's credentials.
	Download(ctx context.Context, url, path string) error
	Close() error
}

// Opener creates a page that is exclusively owned by the caller until it is closed.
type Opener func(ctx context.Context) (Page, error)

// NotFound wraps ErrNotFound with the selector that failed to resolve.
func NotFound(selector string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, selector)
}

// Timeout wraps ErrTimeout with a description of what was waited on.
func Timeout(what string, timeout time.Duration) error {
	return fmt.Errorf("%w after %s: %s", ErrTimeout, timeout, what)
}

const defaultPollInterval = 100 * time.Millisecond

// WaitUntil polls predicate until it returns true, returns an error or the
// timeout elapses.
func WaitUntil(ctx context.Context, timeout time.Duration, what string, predicate func() (bool, error)) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(defaultPollInterval)
	defer ticker.Stop()

	for {
		ok, err := predicate()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return Timeout(what, timeout)
		case <-ticker.C:
		}
	}
}

// FirstText resolves selector under el and returns its text.
func FirstText(el Element, selector string) (string, error) {
	child, err := el.Find(selector)
	if err != nil {
		return "", err
	}
	return child.Text()
}
