package domain

import "fmt"

// ErrorKind classifies translation session failures.
type ErrorKind string

const (
	ErrorKindUnconfigured   ErrorKind = "unconfigured"
	ErrorKindHTTP           ErrorKind = "http_error"
	ErrorKindTransport      ErrorKind = "transport_error"
	ErrorKindParseSkip      ErrorKind = "parse_skip"
	ErrorKindAborted        ErrorKind = "aborted"
	ErrorKindInvalidRequest ErrorKind = "invalid_request"
)

// UnconfiguredMessage is shown when no API key has been saved.
const UnconfiguredMessage = "API Key is not configured. Please open Settings to set your API key."

// TranslateError is the single error reported for a failed session.
type TranslateError struct {
	Kind       ErrorKind
	StatusCode int
	Body       string
	Message    string
	Cause      error
}

func (e *TranslateError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *TranslateError) Unwrap() error {
	return e.Cause
}

func NewUnconfiguredError() *TranslateError {
	return &TranslateError{Kind: ErrorKindUnconfigured, Message: UnconfiguredMessage}
}

func NewHTTPError(statusCode int, body string) *TranslateError {
	return &TranslateError{
		Kind:       ErrorKindHTTP,
		StatusCode: statusCode,
		Body:       body,
		Message:    fmt.Sprintf("API error (%d): %s", statusCode, body),
	}
}

func NewTransportError(message string, cause error) *TranslateError {
	return &TranslateError{Kind: ErrorKindTransport, Message: message, Cause: cause}
}

func NewAbortedError(cause error) *TranslateError {
	return &TranslateError{Kind: ErrorKindAborted, Message: "translation aborted", Cause: cause}
}
