package bmpfs

import (
	"fmt"
	"syscall"
)

// Errno aliases, one per code the specification's error handling section
// names as something this file system can return to a caller.
const (
	ENOENT       = syscall.ENOENT
	EEXIST       = syscall.EEXIST
	ENAMETOOLONG = syscall.ENAMETOOLONG
	EINVAL       = syscall.EINVAL
	ENOMEM       = syscall.ENOMEM
	ENOSPC       = syscall.ENOSPC
	EIO          = syscall.EIO
	EISDIR       = syscall.EISDIR
	ENOTDIR      = syscall.ENOTDIR
	EACCES       = syscall.EACCES
	EFBIG        = syscall.EFBIG
	EOVERFLOW    = syscall.EOVERFLOW
	EALREADY     = syscall.EALREADY
)

// DriverError is a wrapper around a POSIX errno code with a customizable
// message. The exported operations of the bmpfs packages return one of these
// (or nil) instead of a bare error, with two exceptions: vfs's Destroy
// aggregates its errors with go-multierror, and the fuseadapter methods
// return the bare syscall.Errno the FUSE bridge expects.
type DriverError struct {
	ErrnoCode syscall.Errno
	message   string
	wrapped   error
}

// Error implements the `error` interface.
func (e *DriverError) Error() string {
	if e.message != "" {
		return e.message
	}
	return e.ErrnoCode.Error()
}

// Errno returns the POSIX error code this error represents. FUSE adapters
// use this to produce the bare syscall.Errno the kernel bridge expects.
func (e *DriverError) Errno() syscall.Errno {
	return e.ErrnoCode
}

// Unwrap lets errors.Is/errors.As see through to the errno sentinel, or to
// whatever underlying error was attached with Wrap.
func (e *DriverError) Unwrap() error {
	if e.wrapped != nil {
		return e.wrapped
	}
	return e.ErrnoCode
}

// NewDriverError creates a DriverError with a default message derived from
// the errno code.
func NewDriverError(errnoCode syscall.Errno) *DriverError {
	return &DriverError{ErrnoCode: errnoCode, message: errnoCode.Error()}
}

// NewDriverErrorWithMessage creates a DriverError from an errno code with a
// custom message.
func NewDriverErrorWithMessage(errnoCode syscall.Errno, message string) *DriverError {
	return &DriverError{
		ErrnoCode: errnoCode,
		message:   fmt.Sprintf("%s: %s", errnoCode.Error(), message),
	}
}

// WithMessage returns a derived error carrying an additional message, without
// losing the original errno code.
func (e *DriverError) WithMessage(message string) *DriverError {
	return &DriverError{
		ErrnoCode: e.ErrnoCode,
		message:   fmt.Sprintf("%s: %s", e.Error(), message),
		wrapped:   e,
	}
}

// Wrap attaches an underlying error (e.g. a short read/write against the
// backing image) to a DriverError, preserving it for errors.Is/As.
func (e *DriverError) Wrap(err error) *DriverError {
	return &DriverError{
		ErrnoCode: e.ErrnoCode,
		message:   fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		wrapped:   err,
	}
}

// Sentinel errors, one per condition the specification names. Callers should
// use .WithMessage() or .Wrap() to add context before returning one of these.
var (
	ErrNotFound        = NewDriverError(ENOENT)
	ErrExists          = NewDriverError(EEXIST)
	ErrNameTooLong     = NewDriverError(ENAMETOOLONG)
	ErrInvalidArgument = NewDriverError(EINVAL)
	ErrNoMemory        = NewDriverError(ENOMEM)
	ErrNoSpace         = NewDriverError(ENOSPC)
	ErrIO              = NewDriverError(EIO)
	ErrIsADirectory    = NewDriverError(EISDIR)
	ErrNotADirectory   = NewDriverError(ENOTDIR)
	ErrAccessDenied    = NewDriverError(EACCES)
	ErrFileTooBig      = NewDriverError(EFBIG)
	ErrOverflow        = NewDriverError(EOVERFLOW)
	ErrAlreadyFree     = NewDriverError(EALREADY)
)
