package client

import (
	"encoding/json"
	"fmt"
)

// Envelope status values, per the JSend convention the contest server uses.
const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

// FailError is an expected, user-facing outcome: the request was understood
// and rejected (wrong answer, duplicate registration). It is not a bug and
// must never be conflated with a transport or server error.
type FailError struct {
	Short       string
	Description string
}

func (e *FailError) Error() string {
	if e.Description != "" {
		return e.Description
	}
	return e.Short
}

// RemoteError is an unexpected server-side fault reported through the
// envelope ("status": "error").
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("server error: %s", e.Message)
}

// UnknownStatusError reports an envelope whose status is none of the three
// defined values. This is itself an error condition, never ignored.
type UnknownStatusError struct {
	Status string
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("unknown envelope status %q", e.Status)
}

type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type failData struct {
	Short       string `json:"short"`
	Description string `json:"description"`
}

// decodeEnvelope splits a raw envelope into exactly one of three outcomes:
// the success payload, a *FailError, or a *RemoteError (plus
// *UnknownStatusError for anything off-protocol). This is the only place
// envelope dispatch happens; callers branch on the returned error type.
func decodeEnvelope(body []byte) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("malformed envelope: %w", err)
	}

	switch env.Status {
	case StatusSuccess:
		return env.Data, nil
	case StatusFail:
		var data failData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			// Old servers sometimes put a bare string in data.
			var s string
			if err2 := json.Unmarshal(env.Data, &s); err2 != nil {
				return nil, fmt.Errorf("malformed fail data: %w", err)
			}
			data.Description = s
		}
		return nil, &FailError{Short: data.Short, Description: data.Description}
	case StatusError:
		return nil, &RemoteError{Message: env.Message}
	default:
		return nil, &UnknownStatusError{Status: env.Status}
	}
}
