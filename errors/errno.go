// Package errors defines the sentinel error values returned by this module's
// public API and a small decorator type for attaching context to them without
// losing the ability to compare against the sentinel with errors.Is.
package errors

import (
	"fmt"
)

// FATError is a sentinel error type. Each constant below corresponds to
// exactly one entry in the error taxonomy; callers can compare a returned
// error against one of these with errors.Is, regardless of how much context
// has been layered on top of it with WithMessage or Wrap.
type FATError string

// ErrFault means a required handle, buffer, or pointer argument was nil or
// otherwise unusable (an empty path, a buffer too small for the request, or
// a non-positive element size).
const ErrFault = FATError("required argument was nil")

// ErrNotFound means the backing image could not be opened, or a directory
// entry with the requested name does not exist.
const ErrNotFound = FATError("no such file or directory")

// ErrIO means a short read, a seek failure, or some other error surfaced by
// the underlying byte source.
const ErrIO = FATError("input/output error")

// ErrRange means a sector read would extend past the end of the image.
const ErrRange = FATError("read extends past end of image")

// ErrInvalid means the BPB failed validation, the two on-disk FAT copies
// disagree, an unknown seek whence was given, or a cluster chain is
// malformed (cycle, or a link outside the valid cluster range).
const ErrInvalid = FATError("invalid argument")

// ErrOutOfMemory means an allocation failed.
const ErrOutOfMemory = FATError("cannot allocate memory")

// ErrIsADirectory means a caller tried to open a directory entry with the
// DIRECTORY attribute set as a regular file.
const ErrIsADirectory = FATError("is a directory")

// ErrNotADirectory means a caller tried to open a non-root path that exists
// but does not have the DIRECTORY attribute set, or that does have VOLUME_ID
// set.
const ErrNotADirectory = FATError("not a directory")

// ErrNoSuchAddress means a seek target fell outside [0, size].
const ErrNoSuchAddress = FATError("no such address")

func (e FATError) Error() string {
	return string(e)
}

// WithMessage decorates the sentinel with a human-readable message. The
// sentinel remains reachable through errors.Is/errors.Unwrap.
func (e FATError) WithMessage(message string) DriverError {
	return customDriverError{
		message:       fmt.Sprintf("%s: %s", e.Error(), message),
		originalError: e,
	}
}

// Wrap decorates the sentinel with an underlying error. Both the sentinel
// and the wrapped error remain reachable through errors.Is/errors.Unwrap.
func (e FATError) Wrap(err error) DriverError {
	return customDriverError{
		message:       fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		originalError: err,
		sentinel:      e,
	}
}
