package cache

import (
	"context"
	"errors"

	"github.com/JonMunkholm/banboard/internal/fetch"
	"github.com/JonMunkholm/banboard/internal/sheet"
)

var (
	// ErrFetch wraps failures to retrieve the raw export.
	ErrFetch = errors.New("fetch sheet")
	// ErrDecode wraps failures to tokenize the export.
	ErrDecode = sheet.ErrDecode
	// ErrStorage wraps snapshot storage failures surfaced by Status.
	ErrStorage = errors.New("snapshot storage")
)

// Kind classifies an error for logs and metrics.
type Kind string

const (
	KindFetch    Kind = "fetch"
	KindDecode   Kind = "decode"
	KindStorage  Kind = "storage"
	KindCanceled Kind = "canceled"
	KindTimeout  Kind = "timeout"
	KindUnknown  Kind = "unknown"
)

// KindOf returns the failure kind of err. Context errors win over the
// component kind because they explain why the component failed.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, ErrFetch):
		return KindFetch
	case errors.Is(err, ErrDecode):
		return KindDecode
	case errors.Is(err, ErrStorage):
		return KindStorage
	default:
		return KindUnknown
	}
}

// UserMessage is the client-facing description of an error.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// Error codes:
//
//	FETCH001 - data source unreachable
//	FETCH002 - data source answered with a non-success status
//	FETCH003 - export larger than the configured limit
//	DECODE001 - export could not be tokenized
//	STORE001 - cached snapshot unavailable
//	REQ001 - request cancelled
//	REQ002 - request timed out
//	ERR000 - anything else
var (
	msgFetchUnreachable = UserMessage{
		Message: "Unable to reach the data source",
		Action:  "Please try again in a few moments",
		Code:    "FETCH001",
	}
	msgFetchStatus = UserMessage{
		Message: "The data source returned an error",
		Action:  "Check that the sheet is still published and publicly accessible",
		Code:    "FETCH002",
	}
	msgFetchTooLarge = UserMessage{
		Message: "The published sheet is larger than allowed",
		Action:  "Raise SHEET_MAX_BYTES or trim the sheet",
		Code:    "FETCH003",
	}
	msgDecode = UserMessage{
		Message: "The published sheet could not be read",
		Action:  "Check the sheet export for malformed quoting",
		Code:    "DECODE001",
	}
	msgStorage = UserMessage{
		Message: "Cached data is unavailable",
		Action:  "Please try again",
		Code:    "STORE001",
	}
	msgCanceled = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "REQ001",
	}
	msgTimeout = UserMessage{
		Message: "Request timed out",
		Action:  "Please try again later",
		Code:    "REQ002",
	}
	msgDefault = UserMessage{
		Message: "An unexpected error occurred",
		Action:  "Please try again or contact support",
		Code:    "ERR000",
	}
)

// MapError converts err into a UserMessage. A nil error maps to the zero value.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var statusErr *fetch.StatusError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return msgTimeout
	case errors.Is(err, context.Canceled):
		return msgCanceled
	case errors.Is(err, fetch.ErrTooLarge):
		return msgFetchTooLarge
	case errors.As(err, &statusErr):
		return msgFetchStatus
	case errors.Is(err, ErrFetch):
		return msgFetchUnreachable
	case errors.Is(err, ErrDecode):
		return msgDecode
	case errors.Is(err, ErrStorage):
		return msgStorage
	default:
		return msgDefault
	}
}
