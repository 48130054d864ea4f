package console

import (
	"context"
	"errors"
	"fmt"

	"github.com/dracory/flatbridge/remote"
)

var (
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrSchemaNotFound     = errors.New("schema not found")
	ErrEmptyQuery         = errors.New("query is empty")
	ErrMissingField       = errors.New("missing field")
	ErrFileTooLarge       = errors.New("file exceeds the intake limit")
	// ErrBusy is returned when a workflow already has an operation in flight.
	ErrBusy = errors.New("another operation is in progress")
)

// Reason classifies a Failure. The taxonomy is flat.
type Reason int

const (
	TransportError Reason = iota + 1
	NotFound
	ServerError
	EmptyQuery
	MissingField
	ProtocolError
	Busy
	FileTooLarge
	// LocalError is a failure of local file I/O.
	LocalError
)

func (r Reason) String() string {
	switch r {
	case TransportError:
		return "TransportError"
	case NotFound:
		return "NotFound"
	case ServerError:
		return "ServerError"
	case EmptyQuery:
		return "EmptyQuery"
	case MissingField:
		return "MissingField"
	case ProtocolError:
		return "ProtocolError"
	case Busy:
		return "Busy"
	case FileTooLarge:
		return "FileTooLarge"
	case LocalError:
		return "LocalError"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}

// Failure is the error every console operation returns.
type Failure struct {
	Op     string
	Reason Reason
	Err    error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Op, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// ReasonOf returns the reason of err, or 0 when err is not a Failure.
func ReasonOf(err error) Reason {
	var f *Failure
	if errors.As(err, &f) {
		return f.Reason
	}
	return 0
}

// fail wraps err at its call site.
func fail(op string, err error) *Failure {
	return &Failure{Op: op, Reason: classify(err), Err: err}
}

func classify(err error) Reason {
	switch {
	case errors.Is(err, ErrBusy):
		return Busy
	case errors.Is(err, ErrEmptyQuery):
		return EmptyQuery
	case errors.Is(err, ErrMissingField):
		return MissingField
	case errors.Is(err, ErrFileTooLarge):
		return FileTooLarge
	case errors.Is(err, remote.ErrNotFound), errors.Is(err, ErrSchemaNotFound):
		return NotFound
	case errors.Is(err, remote.ErrProtocol):
		return ProtocolError
	case errors.Is(err, remote.ErrTransport),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return TransportError
	default:
		return ServerError
	}
}

func local(op string, err error) *Failure {
	return &Failure{Op: op, Reason: LocalError, Err: err}
}

func missing(field string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, field)
}
