package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for caller-input conditions.
var (
	// ErrMissingCharter is returned when an AI operation requires a charter
	// and none was supplied.
	ErrMissingCharter = errors.New("project charter is required")

	// ErrNotFound is returned by repositories when an entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidSelection is returned when a caller-supplied selection index
	// does not address an extracted release.
	ErrInvalidSelection = errors.New("selected release index out of range")
)

// ConfigurationError indicates missing or invalid provider credentials or
// settings. It is fatal at construction time and never retried.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// ProviderError wraps a network or vendor failure from an AI backend.
// The vendor's message is preserved; retries are a caller concern.
type ProviderError struct {
	Provider string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s provider error: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s provider error: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// PromptTooLargeError is returned when a prompt cannot fit the backend's
// context window even after shrinking.
type PromptTooLargeError struct {
	EstimatedTokens int
	ContextWindow   int
}

func (e *PromptTooLargeError) Error() string {
	return fmt.Sprintf("prompt too large: ~%d tokens against a %d token context window", e.EstimatedTokens, e.ContextWindow)
}

// MalformedResponseError indicates the model's output could not be decoded
// into JSON. Raw carries the vendor text for diagnosis; boundary layers must
// not expose it to untrusted callers.
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed model response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// IncompleteResponseError indicates a decoded model reply is missing
// required top-level keys.
type IncompleteResponseError struct {
	MissingKeys []string
}

func (e *IncompleteResponseError) Error() string {
	return "incomplete model response: missing " + strings.Join(e.MissingKeys, ", ")
}

// MissingVariableError indicates a prompt template referenced a variable
// that the caller did not supply. This is a deployment/programming error.
type MissingVariableError struct {
	Operation string
	Variable  string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("prompt %q references variable %q which was not supplied", e.Operation, e.Variable)
}

// TemplateNotFoundError indicates no prompt file exists for the requested
// operation and version (after the "latest" fallback).
type TemplateNotFoundError struct {
	Operation string
	Version   string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("prompt template not found for operation %q version %q", e.Operation, e.Version)
}
