package core

import (
	"errors"
	"fmt"
)

// Error kinds. Every typed error below matches exactly one of these with
// errors.Is.
var (
	ErrMalformedObject        = errors.New("malformed object")
	ErrDanglingReference      = errors.New("dangling reference")
	ErrIDCollision            = errors.New("id collision")
	ErrUnbalancedDelimiter    = errors.New("unbalanced delimiter")
	ErrUnsupportedFilter      = errors.New("unsupported filter")
	ErrEncryptionNotSupported = errors.New("encryption not supported")
	ErrInvalidStreamData      = errors.New("invalid stream data")
	ErrIO                     = errors.New("i/o failure")
)

// MalformedObjectError reports bytes or values that do not form a valid
// PDF object. Offset is -1 when the problem is not tied to a file position.
type MalformedObjectError struct {
	Offset int
	Reason string
}

func (e *MalformedObjectError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("malformed object: %s", e.Reason)
	}
	return fmt.Sprintf("malformed object at offset %d: %s", e.Offset, e.Reason)
}

func (e *MalformedObjectError) Is(target error) bool { return target == ErrMalformedObject }

// Malformed builds a MalformedObjectError that is not tied to an offset.
func Malformed(format string, args ...interface{}) error {
	return &MalformedObjectError{Offset: -1, Reason: fmt.Sprintf(format, args...)}
}

// DanglingReferenceError reports a reference to an id that has no object.
// From names the referring object when known.
type DanglingReferenceError struct {
	ID   string
	From string
}

func (e *DanglingReferenceError) Error() string {
	if e.From == "" {
		return fmt.Sprintf("dangling reference to %q", e.ID)
	}
	return fmt.Sprintf("dangling reference to %q from %q", e.ID, e.From)
}

func (e *DanglingReferenceError) Is(target error) bool { return target == ErrDanglingReference }

// IDCollisionError reports a rename onto an id that is already taken.
type IDCollisionError struct {
	ID string
}

func (e *IDCollisionError) Error() string {
	return fmt.Sprintf("object id %q already exists", e.ID)
}

func (e *IDCollisionError) Is(target error) bool { return target == ErrIDCollision }

// UnbalancedDelimiterError reports a closing array, dictionary or brace
// token with no matching opener.
type UnbalancedDelimiterError struct {
	Delimiter string
	Offset    int
}

func (e *UnbalancedDelimiterError) Error() string {
	return fmt.Sprintf("unbalanced %q at offset %d", e.Delimiter, e.Offset)
}

func (e *UnbalancedDelimiterError) Is(target error) bool { return target == ErrUnbalancedDelimiter }

// UnsupportedFilterError reports a stream filter with no decoder.
type UnsupportedFilterError struct {
	Name string
}

func (e *UnsupportedFilterError) Error() string {
	return fmt.Sprintf("unsupported filter %q", e.Name)
}

func (e *UnsupportedFilterError) Is(target error) bool { return target == ErrUnsupportedFilter }

// EncryptionError explains why an encrypted document cannot be opened.
type EncryptionError struct {
	Reason string
}

func (e *EncryptionError) Error() string {
	return "encryption not supported: " + e.Reason
}

func (e *EncryptionError) Is(target error) bool { return target == ErrEncryptionNotSupported }

// InvalidStreamDataError reports stream data that cannot be located or
// decoded.
type InvalidStreamDataError struct {
	ID     string
	Reason string
	Err    error
}

func (e *InvalidStreamDataError) Error() string {
	msg := "invalid stream data"
	if e.ID != "" {
		msg += " in " + e.ID
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvalidStreamDataError) Is(target error) bool { return target == ErrInvalidStreamData }
func (e *InvalidStreamDataError) Unwrap() error        { return e.Err }

// IOError wraps a failure of the byte source collaborator.
type IOError struct {
	Location string
	Err      error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("reading %s: %v", e.Location, e.Err)
}

func (e *IOError) Is(target error) bool { return target == ErrIO }
func (e *IOError) Unwrap() error        { return e.Err }
