package transport

import "fmt"

// ErrorKind tags an error with the closed taxonomy from spec.md §7, so
// callers (logging, metrics, the root Server's error hook) can
// errors.As a transport.Error and branch on Kind without parsing
// message text.
type ErrorKind int

const (
	ProtocolError ErrorKind = iota
	VersionUnsupported
	UriTooLong
	BodyTooLarge
	IoError
	TimeoutExpired
	HandlerFault
	ProgrammerError
	SystemError
)

func (k ErrorKind) String() string {
	switch k {
	case ProtocolError:
		return "ProtocolError"
	case VersionUnsupported:
		return "VersionUnsupported"
	case UriTooLong:
		return "UriTooLong"
	case BodyTooLarge:
		return "BodyTooLarge"
	case IoError:
		return "IoError"
	case TimeoutExpired:
		return "TimeoutExpired"
	case HandlerFault:
		return "HandlerFault"
	case ProgrammerError:
		return "ProgrammerError"
	case SystemError:
		return "SystemError"
	default:
		return "UnknownError"
	}
}

// Error wraps an underlying cause with its taxonomy Kind, the way the
// teacher's types_server.go declares sentinel errors (ErrServerClosed,
// ErrHijacked, ErrContentLength) as package-level values — ours adds the
// Kind tag so callers can branch without comparing against every
// sentinel individually.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func wrapError(kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}
