package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"

	sqlite "modernc.org/sqlite"
)

// ErrorKind classifies a failure for display. The screen only ever
// needs to tell the user what broke in broad strokes; everything else
// stays in the wrapped error chain.
type ErrorKind int

const (
	ErrorUnknown ErrorKind = iota
	ErrorNetwork
	ErrorParse
	ErrorDatabase
)

// String returns the short label shown in the error banner.
func (k ErrorKind) String() string {
	switch k {
	case ErrorNetwork:
		return "network"
	case ErrorParse:
		return "parse"
	case ErrorDatabase:
		return "database"
	default:
		return "unknown"
	}
}

// Hint returns a one-line suggestion for the error view.
func (k ErrorKind) Hint() string {
	switch k {
	case ErrorNetwork:
		return "Check your connection, then press r to retry."
	case ErrorParse:
		return "The API response could not be read. Press r to retry."
	case ErrorDatabase:
		return "The local catalog cache failed. Delete it and press r."
	default:
		return "Press r to retry."
	}
}

// errStatus marks a non-2xx HTTP response. It classifies as a network
// error but keeps the status code for the log.
type errStatus struct {
	code int
}

func (e errStatus) Error() string {
	return fmt.Sprintf("unexpected status %d", e.code)
}

// Classify maps an error to its display kind by walking the wrap
// chain. Order matters: a JSON decode error wrapped in a url.Error
// never happens, but a context timeout inside a url.Error does, and
// both should read as network.
func Classify(err error) ErrorKind {
	if err == nil {
		return ErrorUnknown
	}

	var statusErr errStatus
	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &statusErr) || errors.As(err, &urlErr) || errors.As(err, &netErr) ||
		errors.Is(err, context.DeadlineExceeded) {
		return ErrorNetwork
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		// Truncated bodies decode to io.ErrUnexpectedEOF, which is a
		// malformed response, not a transport failure.
		return ErrorParse
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return ErrorDatabase
	}

	return ErrorUnknown
}
