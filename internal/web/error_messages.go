package web

// Error codes returned to clients.
//
// # Fetch (FETCH001-FETCH099)
//
//	FETCH001 - A fetch is already in progress
//	           Action: Wait for the current request to finish
//	FETCH002 - The data source failed
//	           Action: Please try again
//	FETCH003 - A newer request replaced this one
//	           Action: The table shows the newest result
//	FETCH004 - The data source did not answer in time
//	           Action: Please try again later
//	FETCH005 - The data source is busy
//	           Action: Please wait a moment and try again
//
// # Export (EXP001-EXP099)
//
//	EXP001 - No data available to download
//	         Action: Fetch data before downloading
//	EXP002 - The download could not be produced
//	         Action: Please try again
//
// # Session (SES001-SES099)
//
//	SES001 - Session expired
//	         Action: Reload the page to start a new session
//
// # Request (REQ001-REQ099)
//
//	REQ001 - Invalid request
//	         Action: Check the submitted fields
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Too many requests
//	          Action: Please wait a moment before trying again
//
// # Default (ERR000)
//
//	ERR000 - An unexpected error occurred
//
// Sentinel errors are matched with errors.Is first. Anything else falls
// through to case-insensitive substring patterns; the first match wins.

import (
	"errors"
	"strings"

	"github.com/JonMunkholm/emis-viewer/internal/datasource"
	"github.com/JonMunkholm/emis-viewer/internal/viewer"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgFetchInFlight = UserMessage{"A fetch is already in progress", "Wait for the current request to finish", "FETCH001"}
	msgFetchFailed   = UserMessage{"Failed to fetch data", "Please try again", "FETCH002"}
	msgSuperseded    = UserMessage{"A newer request replaced this one", "The table shows the newest result", "FETCH003"}
	msgFetchTimeout  = UserMessage{"The data source did not answer in time", "Please try again later", "FETCH004"}
	msgBusy          = UserMessage{"The data source is busy", "Please wait a moment and try again", "FETCH005"}
	msgNoData        = UserMessage{"No data available to download", "Fetch data before downloading", "EXP001"}
	msgExportFailed  = UserMessage{"Failed to download data", "Please try again", "EXP002"}
	msgSession       = UserMessage{"Session expired", "Reload the page to start a new session", "SES001"}
	msgBadRequest    = UserMessage{"Invalid request", "Check the submitted fields", "REQ001"}
	msgRateLimited   = UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}
)

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// errBadRequest marks malformed client input.
var errBadRequest = errors.New("bad request")

// errRateLimited is reported by the rate limiter.
var errRateLimited = errors.New("rate limit exceeded")

// Order matters: a timed-out fetch wraps both ErrFetch and the deadline.
var sentinelMessages = []struct {
	err error
	msg UserMessage
}{
	{viewer.ErrFetchInFlight, msgFetchInFlight},
	{viewer.ErrSuperseded, msgSuperseded},
	{datasource.ErrBusy, msgBusy},
	{viewer.ErrNoData, msgNoData},
	{viewer.ErrExport, msgExportFailed},
	{viewer.ErrClosed, msgSession},
	{errBadRequest, msgBadRequest},
	{errRateLimited, msgRateLimited},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{"deadline exceeded", msgFetchTimeout},
	{"timeout", msgFetchTimeout},
	{"rate limit", msgRateLimited},
	{"session", msgSession},
}

// MapError converts an error into a user-facing message.
// A nil error yields the zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, s := range sentinelMessages {
		if errors.Is(err, s.err) {
			return s.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	if errors.Is(err, viewer.ErrFetch) {
		return msgFetchFailed
	}
	return defaultMessage
}

// IsUserFacing reports whether err maps to a specific message.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
