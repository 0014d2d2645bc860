package protocol

import (
	"errors"
	"fmt"
)

// ErrInvalidFrame is returned for frames with a size outside [header, MaxFrameSize].
var ErrInvalidFrame = errors.New("invalid kafka frame size")

// Error is a classified protocol failure carrying the broker's error code.
type Error struct {
	Code ErrorCode
}

func (e *Error) Error() string {
	return fmt.Sprintf("kafka error %d: %s", int16(e.Code), e.Code)
}

// Retriable reports whether the failure may go away on resend.
func (e *Error) Retriable() bool {
	return CanRetry(e.Code)
}

// Is matches another *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// CodeOf extracts the error code from err, if it wraps a *Error.
func CodeOf(err error) (ErrorCode, bool) {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Code, true
	}
	return None, false
}
