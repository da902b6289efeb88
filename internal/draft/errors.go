package draft

import (
	"context"
	"errors"
)

var (
	ErrEmptyPrompt   = errors.New("draft: prompt is empty")
	ErrMissingAPIKey = errors.New("draft: GEMINI_API_KEY is not set")
	ErrEmptyResponse = errors.New("draft: model returned no text")
	ErrRequest       = errors.New("draft: generation request failed")
)

// UserMessage is the one message shown for any failed generation.
const UserMessage = "We encountered an issue while searching and drafting your document. Please try again."

// Reason names the failure class of err for logs and the CLI.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyPrompt):
		return "empty_prompt"
	case errors.Is(err, ErrMissingAPIKey):
		return "missing_api_key"
	case errors.Is(err, ErrEmptyResponse):
		return "empty_response"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrRequest):
		return "request"
	default:
		return "unknown"
	}
}
