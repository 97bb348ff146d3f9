package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")
	ErrEmptyWords  = fmt.Errorf("no words have been found")

	// ErrValidation is the kind shared by every rejected client input.
	ErrValidation     = fmt.Errorf("validation error")
	ErrEmptyContent   = fmt.Errorf("%w: content must not be blank", ErrValidation)
	ErrContentTooLong = fmt.Errorf("%w: content is too long", ErrValidation)
	ErrInvalidPayload = fmt.Errorf("%w: invalid payload", ErrValidation)
	ErrUnknownEvent   = fmt.Errorf("%w: unknown event", ErrValidation)
	ErrNotJoined      = fmt.Errorf("%w: connection has not joined", ErrValidation)

	ErrSessionClosed        = fmt.Errorf("session closed")
	ErrUnknownConnection    = fmt.Errorf("unknown connection")
	ErrConnectionBufferFull = fmt.Errorf("connection buffer full")
	ErrUnknownStoreBackend  = fmt.Errorf("unknown store backend")
	ErrRelayStopped         = fmt.Errorf("relay stopped")
	ErrRelayAlreadyStarted  = fmt.Errorf("relay already started")
)

// Code maps an error to the short code sent back to clients.
func Code(err error) string {
	switch {
	case Is(err, ErrEmptyContent):
		return "EMPTY_CONTENT"
	case Is(err, ErrContentTooLong):
		return "CONTENT_TOO_LONG"
	case Is(err, ErrUnknownEvent):
		return "UNKNOWN_EVENT"
	case Is(err, ErrNotJoined):
		return "NOT_JOINED"
	case Is(err, ErrInvalidPayload):
		return "INVALID_PAYLOAD"
	case Is(err, ErrValidation):
		return "VALIDATION"
	default:
		return "INTERNAL"
	}
}
