// Package apiclient talks to the remote movie chat API.  Every call is a
// single round trip: there are no retries, no caching and no client-side
// timeout beyond whatever the caller's context imposes.  Failures are
// reported with the sentinel errors below so callers can decide on a
// fallback with errors.Is.
package apiclient

import "errors"

// ErrUnreachable is returned by CheckHealth when the API cannot be reached
// or answers with a non-2xx status.
var ErrUnreachable = errors.New("chat api unreachable")

// ErrSendFailed is returned by SendMessage for network errors, non-2xx
// responses and undecodable bodies.
var ErrSendFailed = errors.New("send failed")

// ErrListFailed is returned by ListMovies on any failure.
var ErrListFailed = errors.New("failed to fetch movies")

// ErrEmptyMessage is returned by SendMessage when the text is blank.  No
// request is made in that case.
var ErrEmptyMessage = errors.New("message is empty")
