package errors

import "errors"

// Wire error codes sent back to clients in error acknowledgement events.
const (
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeInvalidPayload  = "INVALID_PAYLOAD"
	CodeStorageFailure  = "STORAGE_FAILURE"
	CodeInternal        = "INTERNAL"
)

// MapToWireCode translates a domain error into the code exposed on the wire.
// Unknown errors are reported as INTERNAL rather than leaking their message.
func MapToWireCode(err error) string {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return CodeUnauthenticated
	case errors.Is(err, ErrInvalidPayload):
		return CodeInvalidPayload
	case errors.Is(err, ErrStorage):
		return CodeStorageFailure
	default:
		return CodeInternal
	}
}
