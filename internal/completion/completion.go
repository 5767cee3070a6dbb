// Package completion talks to the hosted language model. Every provider
// offers a blocking call and a streamed call with a per-chunk callback.
package completion

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"mockery-backend/internal/models"
)

// Request is one completion call.
type Request struct {
	System    string
	Messages  []models.ChatMessage
	MaxTokens int
}

// ChunkFunc receives each text delta as it arrives.
type ChunkFunc func(chunk string)

// Completer is implemented by every provider.
type Completer interface {
	// Complete waits for the whole response.
	Complete(ctx context.Context, req Request) (string, error)
	// Stream forwards deltas to onChunk and returns the accumulated text.
	// On failure the text received so far is returned with the error.
	Stream(ctx context.Context, req Request, onChunk ChunkFunc) (string, error)
}

// Provider is a Completer holding resources that must be released.
type Provider interface {
	Completer
	Name() string
	Close() error
}

// Options selects and configures a provider.
type Options struct {
	Provider string // "anthropic" | "gemini"
	APIKey   string
	Model    string
	APIURL   string
}

// New builds the provider named in opts.
func New(ctx context.Context, opts Options) (Provider, error) {
	switch strings.ToLower(opts.Provider) {
	case "", "anthropic", "claude":
		return NewAnthropicClient(opts.APIKey, opts.Model, opts.APIURL), nil
	case "gemini":
		return NewGeminiClient(ctx, opts.APIKey, opts.Model)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", opts.Provider)
	}
}

// ErrorKind classifies upstream failures.
type ErrorKind int

const (
	// KindTransport covers connection failures and aborted streams.
	KindTransport ErrorKind = iota
	// KindStatus is a non-200 answer.
	KindStatus
	// KindMalformed is a 200 answer without the expected content.
	KindMalformed
	// KindStream is an error frame inside a stream.
	KindStream
)

// ErrRequestFailed matches every *Error through errors.Is.
var ErrRequestFailed = errors.New("completion request failed")

// Error is returned for every upstream failure. No call is retried.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindTransport:
		return fmt.Sprintf("completion transport error: %v", e.Err)
	case KindStatus:
		if e.Message != "" {
			return fmt.Sprintf("completion API error (HTTP %d): %s", e.StatusCode, e.Message)
		}
		return fmt.Sprintf("completion API error (HTTP %d)", e.StatusCode)
	case KindStream:
		return "completion stream error: " + e.Message
	default:
		return "malformed completion response"
	}
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == ErrRequestFailed }
