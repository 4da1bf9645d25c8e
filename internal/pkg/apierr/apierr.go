package apierr

import (
	"errors"
	"fmt"
)

// Failure kinds for the accessibility subsystem. All of them are recovered
// locally: callers fall back to defaults or an alternate output path and at
// most surface a dismissable notice, never an aborted page render.
var (
	// ErrStoreUnavailable: the preference store is unreachable or errored.
	ErrStoreUnavailable = errors.New("preference store unavailable")
	// ErrSpeechUnsupported: the session has no usable speech output channel.
	ErrSpeechUnsupported = errors.New("speech output unsupported")
	// ErrSpeechPlayback: a specific utterance failed mid-flight.
	ErrSpeechPlayback = errors.New("speech playback failed")
	// ErrInvalidPreference: a preference value outside its documented
	// range/domain. Values are clamped at the point of set; this sentinel
	// exists for callers that want to report the clamp, never to abort.
	ErrInvalidPreference = errors.New("invalid preference value")
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}
