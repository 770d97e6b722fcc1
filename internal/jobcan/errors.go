package jobcan

import "fmt"

// AuthError means the site rejected the credentials.
type AuthError struct{}

func (e *AuthError) Error() string {
	return "login authentication failed"
}

// TransportError is a network or HTTP level failure of a request.
type TransportError struct {
	Message string
	URL     string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Message, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UnexpectedResponseError is a well formed response that does not mean what
// the operation needed it to mean.
type UnexpectedResponseError struct {
	Message string
}

func (e *UnexpectedResponseError) Error() string {
	return e.Message
}

// ElementExtractError is an element or attribute missing from a page.
type ElementExtractError struct {
	Message string
}

func (e *ElementExtractError) Error() string {
	return e.Message
}
