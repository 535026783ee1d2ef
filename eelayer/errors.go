package eelayer

import (
	"errors"
	"fmt"

	"github.com/jamesrr39/goutil/errorsx"
)

// error kinds. Every failure surfaced by the layer pipeline wraps exactly
// one of these, so callers can branch without string matching.
var (
	ErrAuthRejected       = errors.New("credential rejected by remote service")
	ErrMalformedObjectRef = errors.New("malformed serialized object reference")
	ErrMissingCapability  = errors.New("object handle lacks a required capability")
	ErrRemoteService      = errors.New("remote service failure")
	ErrTileFetch          = errors.New("tile fetch failed")
	ErrTileDecode         = errors.New("tile decode failed")
)

// Errorf builds an error of the given kind with a formatted message.
func Errorf(kind error, format string, args ...interface{}) errorsx.Error {
	return errorsx.Wrap(fmt.Errorf(fmt.Sprintf(format, args...)+": %w", kind))
}

func IsKind(err error, kind error) bool {
	if err == nil {
		return false
	}
	return errors.Is(errorsx.Cause(err), kind)
}
