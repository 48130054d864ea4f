package remote

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

var (
	// ErrTransport means the request never produced an HTTP response.
	ErrTransport = errors.New("transport error")
	// ErrNotFound is a 404 from the boundary.
	ErrNotFound = errors.New("not found")
	// ErrServer is any other non-2xx status.
	ErrServer = errors.New("server error")
	// ErrProtocol means a 2xx response whose body does not have the expected shape.
	ErrProtocol = errors.New("protocol error")
)

// StatusError carries the status and server message of a non-2xx response.
// It unwraps to ErrNotFound or ErrServer.
type StatusError struct {
	Code    int
	Message string
	kind    error
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%v: HTTP %d", e.kind, e.Code)
	}
	return fmt.Sprintf("%v: HTTP %d: %s", e.kind, e.Code, e.Message)
}

func (e *StatusError) Unwrap() error {
	return e.kind
}

const maxMessage = 200

// serverMessage pulls a readable message out of an error body: the api
// envelope "message", a "detail" field, or the raw text.
func serverMessage(body []byte) string {
	var env struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := sonic.Unmarshal(body, &env); err == nil {
		if env.Message != "" {
			return env.Message
		}
		if env.Detail != "" {
			return env.Detail
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxMessage {
		msg = msg[:maxMessage] + "..."
	}
	return msg
}
