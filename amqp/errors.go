package amqp

import (
	"fmt"

	"github.com/israelio/amqp-go/internal/wire"
)

// Error is an AMQP level failure, either raised locally before anything
// touched the wire or carried in a close method from the broker.
type Error struct {
	Code    int    // AMQP reply code
	Reason  string // description
	Server  bool   // true when the broker raised it
	Recover bool   // true when a fresh channel can succeed where this one failed
}

func (e *Error) Error() string {
	origin := "client"
	if e.Server {
		origin = "server"
	}
	return fmt.Sprintf("AMQP error %d (%s): %s", e.Code, origin, e.Reason)
}

// Is matches any *Error carrying the same reply code, so callers can test
// broker failures against the predefined values with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// NewError builds an Error, deriving recoverability from the reply code:
// connection level codes (500 and up, plus connection-forced) take the
// whole connection down, everything else is scoped to one channel.
func NewError(code int, reason string, server bool) *Error {
	return &Error{
		Code:    code,
		Reason:  reason,
		Server:  server,
		Recover: code != int(wire.ReplyConnectionForced) && code < 500,
	}
}

// Errors raised locally by this library.
var (
	// ErrChannelClosed is returned by every channel operation once the
	// channel has left the connected state.
	ErrChannelClosed = &Error{Code: int(wire.ReplyChannelError), Reason: "channel is closed", Recover: true}

	// ErrConnectionClosed is returned when the owning connection can no
	// longer carry frames.
	ErrConnectionClosed = &Error{Code: int(wire.ReplyConnectionForced), Reason: "connection is closed"}

	// ErrNoTransaction is returned by commit and rollback when no
	// transaction has been started on the channel.
	ErrNoTransaction = &Error{Code: int(wire.ReplyPreconditionFailed), Reason: "no transaction active", Recover: true}

	// ErrTransactionActive is returned when starting a transaction on a
	// channel that already has one.
	ErrTransactionActive = &Error{Code: int(wire.ReplyPreconditionFailed), Reason: "transaction already active", Recover: true}

	// ErrExchangeNameRequired is returned by exchange operations handed
	// an empty name, which only the broker's default exchange carries.
	ErrExchangeNameRequired = &Error{Code: int(wire.ReplyCommandInvalid), Reason: "exchange name required", Recover: true}

	// ErrMaxChannels is returned when the negotiated channel id range is
	// exhausted.
	ErrMaxChannels = &Error{Code: int(wire.ReplyResourceError), Reason: "no channel ids available", Recover: true}

	// ErrFrameTooLarge is returned when a single frame cannot fit the
	// negotiated frame size.
	ErrFrameTooLarge = &Error{Code: int(wire.ReplyFrameError), Reason: "frame exceeds negotiated size", Recover: true}
)

// Broker raised conditions, usable with errors.Is against errors handed to
// the channel error report.
var (
	ErrNotFound           = &Error{Code: int(wire.ReplyNotFound), Reason: "not found", Server: true, Recover: true}
	ErrAccessRefused      = &Error{Code: int(wire.ReplyAccessRefused), Reason: "access refused", Server: true, Recover: true}
	ErrPreconditionFailed = &Error{Code: int(wire.ReplyPreconditionFailed), Reason: "precondition failed", Server: true, Recover: true}
	ErrResourceLocked     = &Error{Code: int(wire.ReplyResourceLocked), Reason: "resource locked", Server: true, Recover: true}
)
