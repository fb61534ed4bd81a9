// Package searcherr models the search engine's error taxonomy as typed
// error values, so the coordinator and its callers can switch on kind
// (errors.As) instead of matching on error message text — the same
// distinction an operator needs between a fatal setup failure and a
// per-worker failure that still leaves other workers running.
package searcherr

import "fmt"

// Kind is one of the error categories a search command can fail with.
type Kind int

const (
	// InputFormat: malformed CSV/TXT/alphabet/language file. Fatal at
	// startup.
	InputFormat Kind = iota
	// CipherSetup: unknown cipher, missing/invalid config. Fatal at
	// startup.
	CipherSetup
	// PredicateCompile: expression parse error, type mismatch, unknown
	// binding, constant-out-of-range. Fatal per worker; other workers
	// continue.
	PredicateCompile
	// IOFailure: dump file creation/write failure. Fatal; coordinator
	// exits.
	IOFailure
	// ChannelDisconnect: all workers died unexpectedly. Fatal; coordinator
	// exits with a diagnostic.
	ChannelDisconnect
)

func (k Kind) String() string {
	switch k {
	case InputFormat:
		return "InputFormat"
	case CipherSetup:
		return "CipherSetup"
	case PredicateCompile:
		return "PredicateCompile"
	case IOFailure:
		return "IOFailure"
	case ChannelDisconnect:
		return "ChannelDisconnect"
	default:
		return "Unknown"
	}
}

// Error is a kind-tagged, wrapped error.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs a kind-tagged error wrapping err (may be nil).
func New(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Wrapf is New with a formatted message.
func Wrapf(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}
