package common

import (
	"context"
	"errors"
)

// Kind is the coarse class of a failed operation.
type Kind int

const (
	KindNone Kind = iota
	KindAuth
	KindValidation
	KindConflict
	KindNotFound
	KindNetwork
	KindServer
	KindUnauthorized
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindAuth:
		return "auth"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindNetwork:
		return "network"
	case KindServer:
		return "server"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// Classify maps an error onto its Kind. Unrecognised errors are KindUnknown,
// which Retryable treats as transient.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInvalidCredentials):
		return KindAuth
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrInvalidToken), errors.Is(err, ErrTokenExpired):
		return KindUnauthorized
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return KindNetwork
	case errors.Is(err, ErrServer), errors.Is(err, ErrInternal):
		return KindServer
	default:
		return KindUnknown
	}
}

// Retryable reports whether an operation that failed with kind k may succeed
// when replayed later with the same token.
func Retryable(k Kind) bool {
	switch k {
	case KindNetwork, KindServer, KindUnknown:
		return true
	default:
		return false
	}
}
