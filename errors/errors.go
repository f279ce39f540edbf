package errors

import (
	"errors"
	"fmt"
)

// ErrPermanent marks failures which can not succeed on retry.
// Timestamp computations are deterministic, so every error below is permanent.
var ErrPermanent = errors.New("permanent error")

// define error types of timestamp operations
var (
	ErrOverflow     = fmt.Errorf("%w: %v", ErrPermanent, "timestamp overflow")
	ErrNegativeTime = fmt.Errorf("%w: %v", ErrPermanent, "negative time not supported")
	ErrFormat       = fmt.Errorf("%w: %v", ErrPermanent, "badly formatted timestamp")
	ErrParse        = fmt.Errorf("%w: %v", ErrPermanent, "could not parse timestamp")
)

// IsErrorOverflow verifies error
func IsErrorOverflow(err error) bool {
	return errors.Is(err, ErrOverflow)
}

// IsErrorNegativeTime verifies error
func IsErrorNegativeTime(err error) bool {
	return errors.Is(err, ErrNegativeTime)
}

// IsErrorFormat verifies error
func IsErrorFormat(err error) bool {
	return errors.Is(err, ErrFormat)
}

// IsErrorParse verifies error
func IsErrorParse(err error) bool {
	return errors.Is(err, ErrParse)
}

// IsErrorPermanent verifies error
func IsErrorPermanent(err error) bool {
	return errors.Is(err, ErrPermanent)
}

// Kind returns short name of the timestamp error kind,
// suitable for metric labels and log fields
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case IsErrorOverflow(err):
		return "overflow"
	case IsErrorNegativeTime(err):
		return "negative"
	case IsErrorFormat(err):
		return "format"
	case IsErrorParse(err):
		return "parse"
	}
	return "other"
}
