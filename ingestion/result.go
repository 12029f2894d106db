package ingestion

import "errors"

// ErrorKind discriminates pipeline failures. Every failure inside the
// pipeline carries exactly one kind plus a human-readable message that the
// caller surfaces as-is.
type ErrorKind string

const (
	// KindEmptyInput marks uploads with no non-whitespace content.
	KindEmptyInput ErrorKind = "empty-input"
	// KindUnrecognizedFormat marks content that matches no supported export shape.
	KindUnrecognizedFormat ErrorKind = "unrecognized-format"
	// KindInvalidJSON marks JSON-shaped content that fails to parse.
	KindInvalidJSON ErrorKind = "invalid-json"
	// KindNoMessagesFound marks an extractor that produced zero usable messages.
	KindNoMessagesFound ErrorKind = "no-messages-found"
)

// Error is a pipeline failure. It never escapes the package boundary as a Go
// error: Process collapses it into ProcessingResult.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// KindOf reports the ErrorKind carried by err, or an empty kind for foreign errors.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// ProcessingResult is the terminal output of one ingestion call. On failure
// Success is false, Error holds the human-readable reason and the remaining
// fields are zero-valued.
type ProcessingResult struct {
	Success       bool             `json:"success"`
	MessageCount  int              `json:"messageCount"`
	Patterns      WritingPatterns  `json:"patterns"`
	ImageAnalysis map[string]any   `json:"imageAnalysis,omitempty"`
	Error         string           `json:"error,omitempty"`
}

func successResult(messageCount int, patterns WritingPatterns) ProcessingResult {
	return ProcessingResult{
		Success:      true,
		MessageCount: messageCount,
		Patterns:     patterns,
	}
}

func failureResult(err error) ProcessingResult {
	message := "Unknown processing error"
	if err != nil {
		message = err.Error()
	}
	return ProcessingResult{
		Success:  false,
		Patterns: zeroPatterns(),
		Error:    message,
	}
}
