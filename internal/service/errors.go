package service

import (
	"errors"
	"sort"
	"strings"

	"github.com/Skotchmaster/mini_online_store/internal/repo"
	"github.com/Skotchmaster/mini_online_store/internal/tokens"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email is not verified")
	ErrActivationFailed   = errors.New("activation link is invalid")

	ErrNotFound     = repo.ErrNotFound
	ErrConflict     = repo.ErrConflict
	ErrTokenInvalid = tokens.ErrTokenInvalid
	ErrTokenExpired = tokens.ErrTokenExpired
)

// ValidationError carries either per-field messages or a single Message.
type ValidationError struct {
	Fields  map[string][]string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return ErrValidation.Error() + ": " + strings.Join(names, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ConflictError names the unique field that is already taken.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return "a user with that " + e.Field + " already exists"
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// Message is the client-facing text for the field.
func (e *ConflictError) Message() string {
	return "A user with that " + e.Field + " already exists."
}
