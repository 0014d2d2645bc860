package retry

import (
	"context"

	"github.com/vietddude/kafkaguard/internal/kafka/protocol"
)

type resultKind int

const (
	kindUnhandled resultKind = iota
	kindConfirmed
	kindResolved
)

// Result is a callback's verdict on a failed response.
// The zero value is Unhandled.
type Result struct {
	kind resultKind
	resp protocol.Response
}

// Confirmed accepts the failed response as the result of the request.
func Confirmed() Result {
	return Result{kind: kindConfirmed}
}

// Resolved replaces the failed response with resp. A nil resp counts as
// Unhandled.
func Resolved(resp protocol.Response) Result {
	return Result{kind: kindResolved, resp: resp}
}

// Unhandled lets the failure propagate.
func Unhandled() Result {
	return Result{}
}

// Callback inspects a failed response on the terminal branch.
type Callback func(ctx context.Context, resp protocol.Response) Result

// Callbacks maps error codes to their override.
type Callbacks map[protocol.ErrorCode]Callback

// ConfirmCodes returns callbacks accepting responses with any of codes.
func ConfirmCodes(codes ...protocol.ErrorCode) Callbacks {
	cbs := make(Callbacks, len(codes))
	for _, code := range codes {
		cbs[code] = func(context.Context, protocol.Response) Result { return Confirmed() }
	}
	return cbs
}
