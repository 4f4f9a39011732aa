package apiclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnreachable is returned when the backend could not be reached at all.
	ErrUnreachable = errors.New("apiclient: backend unreachable")

	// ErrShapeMismatch is returned when a response does not match the envelope contract.
	ErrShapeMismatch = errors.New("apiclient: unexpected response shape")
)

// APIError is a well-formed rejection from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("clinikpe API returned %d: %s", e.Status, e.Message)
}

// StatusOf extracts the backend status from err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// MessageOf returns a user-facing message for err: the backend's own message
// for rejections, a generic one otherwise.
func MessageOf(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, ErrUnreachable):
		return "Unable to reach the server. Please check your connection and try again."
	case errors.Is(err, ErrShapeMismatch):
		return "The server sent an unexpected response."
	default:
		return "Something went wrong. Please try again."
	}
}

// Envelope is the canonical response wrapper of the ClinikPe API.
type Envelope[T any] struct {
	Success    bool   `json:"success"`
	HTTPStatus int    `json:"httpStatus"`
	Message    string `json:"message"`
	Data       T      `json:"data"`
}

type rawEnvelope struct {
	Success    *bool           `json:"success"`
	HTTPStatus int             `json:"httpStatus"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

// Decode narrows resp into an Envelope of T. Responses are validated here and
// nowhere else: an unreachable backend, a body that is not an envelope, and a
// backend rejection each map to a distinct error.
func Decode[T any](resp *Response) (*Envelope[T], error) {
	if resp == nil || resp.Status == 0 {
		var cause error
		if resp != nil {
			cause = resp.Err
		}
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, cause)
	}

	var raw rawEnvelope
	if err := json.Unmarshal(resp.Data, &raw); err != nil || raw.Success == nil {
		if !resp.OK() {
			return nil, &APIError{Status: resp.Status, Message: fallbackMessage(resp)}
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrShapeMismatch, err)
		}
		return nil, fmt.Errorf("%w: missing success flag", ErrShapeMismatch)
	}

	if !*raw.Success || !resp.OK() {
		status := raw.HTTPStatus
		if status == 0 {
			status = resp.Status
		}
		msg := raw.Message
		if msg == "" {
			msg = fallbackMessage(resp)
		}
		return nil, &APIError{Status: status, Message: msg}
	}

	env := &Envelope[T]{
		Success:    true,
		HTTPStatus: raw.HTTPStatus,
		Message:    raw.Message,
	}
	if env.HTTPStatus == 0 {
		env.HTTPStatus = resp.Status
	}
	if len(raw.Data) > 0 && !bytes.Equal(bytes.TrimSpace(raw.Data), []byte("null")) {
		if err := json.Unmarshal(raw.Data, &env.Data); err != nil {
			return nil, fmt.Errorf("%w: data: %v", ErrShapeMismatch, err)
		}
	}
	return env, nil
}

func fallbackMessage(resp *Response) string {
	if resp.StatusText != "" {
		return resp.StatusText
	}
	return http.StatusText(resp.Status)
}
