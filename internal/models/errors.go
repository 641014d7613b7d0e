package models

import (
	"errors"
	"fmt"
	"strings"
)

// Endpoint failure classes. HandleError wraps provider errors with one of
// these so callers can test with errors.Is.
var (
	ErrAuth            = errors.New("authentication failed")
	ErrRateLimited     = errors.New("rate limited")
	ErrContextTooLong  = errors.New("context too long")
	ErrModelNotFound   = errors.New("model not found")
	ErrEndpointOffline = errors.New("connection error")
)

// ErrModelUnavailable reports a backend that could not be reached or
// answered with something other than a model response.
type ErrModelUnavailable struct {
	Provider string
	Body     string
	Cause    error
}

func (e *ErrModelUnavailable) Error() string {
	switch {
	case e.Cause != nil:
		return fmt.Sprintf("%s unavailable: %v", e.Provider, e.Cause)
	case e.Body != "":
		return fmt.Sprintf("%s unavailable: %s", e.Provider, e.Body)
	default:
		return e.Provider + " unavailable"
	}
}

func (e *ErrModelUnavailable) Unwrap() error { return e.Cause }

// errorClasses is checked in order against the lowercased provider message.
var errorClasses = []struct {
	class error
	hints []string
}{
	{ErrAuth, []string{"401", "403", "unauthorized", "invalid api key", "api key", "forbidden"}},
	{ErrRateLimited, []string{"429", "rate limit", "quota", "too many requests"}},
	{ErrContextTooLong, []string{"context length", "context_length", "too many tokens", "max tokens", "token limit"}},
	{ErrModelNotFound, []string{"model not found", "404", "not found", "does not exist"}},
	{ErrEndpointOffline, []string{"connection", "eof", "timeout", "dial", "refused", "unavailable"}},
}

// HandleError labels a completion error with its failure class. Errors that
// match no class are returned unchanged.
func HandleError(err error) error {
	if err == nil {
		return nil
	}
	var unavailable *ErrModelUnavailable
	if errors.As(err, &unavailable) {
		return fmt.Errorf("%w: %w", ErrEndpointOffline, err)
	}

	msg := strings.ToLower(err.Error())
	for _, c := range errorClasses {
		for _, hint := range c.hints {
			if strings.Contains(msg, hint) {
				return fmt.Errorf("%w: %w", c.class, err)
			}
		}
	}
	return err
}
