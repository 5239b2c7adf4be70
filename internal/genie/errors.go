// Package genie implements the conversation lifecycle against the Databricks
// Genie API: the authenticated gateway, the result normalizer and the
// polling client that turns a natural-language question into SQL and rows.
package genie

import (
	"errors"
	"fmt"

	"github.com/fieldline-ai/genie-bridge/internal/model"
)

// Kind classifies a bridge failure with a machine-readable name.
type Kind string

const (
	// KindConfig means credentials or host configuration are missing or
	// malformed. Fatal, detected before any remote call.
	KindConfig Kind = "config"
	// KindUnknownSpace means the space ID is not in the local registry.
	KindUnknownSpace Kind = "unknown_space"
	// KindAuth means the remote service rejected the access token.
	KindAuth Kind = "auth"
	// KindNotFound means the remote resource is absent or expired; the
	// caller must start a new conversation.
	KindNotFound Kind = "not_found"
	// KindTransport means a network failure or 5xx response. Transient.
	KindTransport Kind = "transport"
	// KindInvalidState means a result was fetched before completion; a
	// sequencing bug in the caller.
	KindInvalidState Kind = "invalid_state"
	// KindMalformedResponse means the remote payload lacked an expected
	// shape. Not retried.
	KindMalformedResponse Kind = "malformed_response"
	// KindQueryFailed means the remote reported a terminal failure status
	// (FAILED, CANCELLED or EXPIRED) for the message.
	KindQueryFailed Kind = "query_failed"
	// KindTimeout means the polling deadline elapsed. The error carries the
	// conversation and message IDs so the caller can resume; the in-flight
	// question is not abandoned server-side.
	KindTimeout Kind = "timeout"
)

// Error is a typed bridge failure. ConversationID and MessageID are set when
// known so the caller can follow up or re-poll after timeouts.
type Error struct {
	Kind           Kind
	Message        string
	ConversationID string
	MessageID      string
	Status         model.MessageStatus
	Err            error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("genie: %s: %s", e.Kind, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the failure is transient.
func (e *Error) Retryable() bool { return e.Kind == KindTransport }

// newError builds an *Error with a formatted message.
func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// wrapError builds an *Error around a cause.
func wrapError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// AsError extracts a *Error from err's chain, or nil.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	e := AsError(err)
	return e != nil && e.Kind == kind
}
