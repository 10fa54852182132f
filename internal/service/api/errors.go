package api

import (
	"errors"
	"fmt"
)

// GenericErrorMessage is surfaced when a failed response carries no usable
// error field.
const GenericErrorMessage = "Something went wrong"

// NetworkError represents a transport failure: the backend was never
// reached or the exchange was cut short.
type NetworkError struct {
	Endpoint      string
	OriginalError error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error calling %s: %v", e.Endpoint, e.OriginalError)
}

func (e *NetworkError) Unwrap() error {
	return e.OriginalError
}

// APIError represents a response the backend answered with a failure, or a
// success body the client could not parse.
type APIError struct {
	Endpoint      string
	StatusCode    int
	Message       string
	OriginalError error
}

func (e *APIError) Error() string {
	if e.OriginalError != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.OriginalError)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.OriginalError
}

// UserMessage returns the text shown to the user for a failed call.
func UserMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return "Unable to reach the server. Please check your connection and try again."
	}

	return GenericErrorMessage
}

// IsClientError reports whether err came out of the request pipeline.
func IsClientError(err error) bool {
	var apiErr *APIError
	var netErr *NetworkError
	return errors.As(err, &apiErr) || errors.As(err, &netErr)
}
