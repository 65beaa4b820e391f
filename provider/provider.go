package provider

import (
	"context"
	"errors"
	"net"
)

// Client represents different LLM providers
type Client string

const (
	OpenAI    Client = "openai"
	Anthropic Client = "anthropic"
)

// Message represents a message in a conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider is the interface that all chat-completion implementations must satisfy
type Provider interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// TransientError wraps a failure that is worth retrying, such as a rate
// limit or an upstream outage. Permanent failures (bad request, auth)
// are returned unwrapped.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err should trigger a retry. Network-level
// failures and timeouts count as transient even when the implementation
// did not wrap them.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	return false
}
