// Package downloader defines the cancelable-download capability the apps
// engine relies on (spec.md C2). The contract is narrow on purpose: a
// single method that hands back a completion channel and a cancel handle,
// so the engine is testable against an in-memory fake without ever
// touching the network.
package downloader

import (
	"context"
	"errors"
	"fmt"
)

// Kind distinguishes the DownloadError variants the engine must recognize.
type Kind int

const (
	// KindOther is any failure that isn't a cancellation or an HTTP status.
	KindOther Kind = iota
	// KindCanceled means the cancel handle fired before completion.
	KindCanceled
	// KindHTTP means the server responded with a status other than 200
	// (including 304).
	KindHTTP
)

// Error is the error type delivered on the completion channel. Comparisons
// are done via Is/As, never via string formatting (spec.md §9 note 2).
type Error struct {
	Kind    Kind
	Status  string // set when Kind == KindHTTP, e.g. "304", "404"
	Message string // set when Kind == KindOther
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindCanceled:
		return "download canceled"
	case KindHTTP:
		return fmt.Sprintf("http status %s", e.Status)
	default:
		return e.Message
	}
}

// Is lets errors.Is(err, Canceled) work against a *Error with the right
// Kind, without comparing messages.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	if t.Kind == KindHTTP {
		return t.Status == e.Status
	}
	return true
}

// Canceled is a sentinel usable with errors.Is(err, downloader.Canceled).
var Canceled = &Error{Kind: KindCanceled}

// NotModified is the sentinel for an HTTP 304 response.
var NotModified = &Error{Kind: KindHTTP, Status: "304"}

// NewHTTPError builds a KindHTTP error for the given status code string.
func NewHTTPError(status string) *Error {
	return &Error{Kind: KindHTTP, Status: status}
}

// NewOtherError builds a KindOther error with the given message.
func NewOtherError(msg string) *Error {
	return &Error{Kind: KindOther, Message: msg}
}

// ErrTimedOut is what the engine synthesizes itself when a download's
// completion channel doesn't fire within the configured timeout; it is
// not produced by a Downloader implementation.
var ErrTimedOut = NewOtherError("Timed Out")

// Handle lets a caller abort an in-flight download.
type Handle interface {
	Cancel()
}

// Downloader starts a download and returns immediately. completion
// receives exactly one value: nil on success, or a *Error.
type Downloader interface {
	Download(ctx context.Context, url, dest string) (completion <-chan error, handle Handle)
}

// Await blocks until completion fires or the timeout elapses, translating
// a timeout into ErrTimedOut the same way spec.md §4.2 specifies.
func Await(ctx context.Context, completion <-chan error) error {
	select {
	case err := <-completion:
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrTimedOut
		}
		return NewOtherError(ctx.Err().Error())
	}
}
