// Package apierr defines business failures that carry their own HTTP
// status and client-facing message.
package apierr

// Detail is a single field-level issue attached to a failure.
type Detail struct {
	Field   string
	Message string
}

// Error is a typed business failure. The message is safe to show to
// clients as is.
type Error struct {
	Code    int
	Message string
	Details []Detail
}

// New returns an Error with the given status code and message.
func New(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

func (e *Error) Error() string {
	return e.Message
}
