package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

// Kind classifies a failed call.
type Kind int

const (
	KindNetwork Kind = iota + 1
	KindRequestConfig
	KindAuthExpired
	KindForbidden
	KindNotFound
	KindServer
	KindUnmapped
)

// Kind sentinels, matched with errors.Is against any *Error.
var (
	ErrNetwork       = errors.New("network failure")
	ErrRequestConfig = errors.New("request configuration error")
	ErrAuthExpired   = errors.New("authentication expired")
	ErrForbidden     = errors.New("forbidden")
	ErrNotFound      = errors.New("not found")
	ErrServer        = errors.New("server error")
	ErrUnmapped      = errors.New("unexpected response")
)

// User-facing messages for the fixed mappings.
const (
	MsgNetwork     = "network error, please check your connection"
	MsgAuthExpired = "session expired, please log in again"
	MsgForbidden   = "you do not have permission to perform this action"
	MsgNotFound    = "the requested resource was not found"
	MsgServer      = "internal server error, please try again later"
	MsgFallback    = "server error"
	MsgForeignAuth = "image host refused the request"
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindRequestConfig:
		return "request-config"
	case KindAuthExpired:
		return "auth-expired"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not-found"
	case KindServer:
		return "server"
	case KindUnmapped:
		return "unmapped"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindNetwork:
		return ErrNetwork
	case KindRequestConfig:
		return ErrRequestConfig
	case KindAuthExpired:
		return ErrAuthExpired
	case KindForbidden:
		return ErrForbidden
	case KindNotFound:
		return ErrNotFound
	case KindServer:
		return ErrServer
	default:
		return ErrUnmapped
	}
}

// Error is the one shape every failed call is reported in.
type Error struct {
	Kind    Kind
	Message string
	// StatusCode is zero when no response was received.
	StatusCode int
	// Detail is the server-supplied "error" field, if any.
	Detail string

	cause error
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes the kind sentinel and, when present, the underlying cause.
func (e *Error) Unwrap() []error {
	if e.cause == nil {
		return []error{e.Kind.sentinel()}
	}
	return []error{e.Kind.sentinel(), e.cause}
}

// AsError extracts an *Error from err.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func networkError(err error) *Error {
	return &Error{Kind: KindNetwork, Message: MsgNetwork, cause: err}
}

func configError(err error) *Error {
	return &Error{Kind: KindRequestConfig, Message: err.Error(), cause: err}
}

// errorBody is the failure payload some endpoints return.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// statusError maps a non-2xx response. The body is consumed.
func statusError(resp *http.Response) *Error {
	var body errorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(raw, &body)

	e := &Error{
		StatusCode: resp.StatusCode,
		Detail:     body.Error,
	}
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		e.Kind, e.Message = KindAuthExpired, MsgAuthExpired
	case http.StatusForbidden:
		e.Kind, e.Message = KindForbidden, MsgForbidden
	case http.StatusNotFound:
		e.Kind, e.Message = KindNotFound, MsgNotFound
	case http.StatusInternalServerError:
		e.Kind, e.Message = KindServer, MsgServer
	default:
		e.Kind = KindUnmapped
		switch {
		case strings.TrimSpace(body.Message) != "":
			e.Message = body.Message
		case strings.TrimSpace(body.Error) != "":
			e.Message = body.Error
		default:
			e.Message = MsgFallback
		}
	}
	return e
}
