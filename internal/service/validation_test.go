package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateStruct_Messages(t *testing.T) {
	t.Parallel()

	err := validateStruct(RegisterInput{Username: "me", Email: "bad", Password: strings.Repeat("é", 37)})
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))

	assert.Equal(t, []string{"This username is reserved."}, ve.Fields["username"])
	assert.Equal(t, []string{"Enter a valid email address."}, ve.Fields["email"])
	assert.Equal(t, []string{"Ensure this field has no more than 72 bytes."}, ve.Fields["password"])
	assert.Equal(t, "validation failed: email, password, username", ve.Error())
}

func TestValidateStruct_ShortPasswordAccepted(t *testing.T) {
	t.Parallel()
	assert.NoError(t, validateStruct(RegisterInput{Username: "u1", Email: "u1@x.com", Password: "pw12345"}))
}

func TestValidateStruct_Required(t *testing.T) {
	t.Parallel()

	err := validateStruct(LoginInput{})
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"This field is required."}, ve.Fields["email"])
	assert.Equal(t, []string{"This field is required."}, ve.Fields["password"])
}

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Bob@example.com", normalizeEmail("  Bob@EXAMPLE.com "))
	assert.Equal(t, "no-at", normalizeEmail("no-at"))
}

func TestErrorsUnwrap(t *testing.T) {
	t.Parallel()
	assert.ErrorIs(t, &ConflictError{Field: "email"}, ErrConflict)
	assert.ErrorIs(t, &ValidationError{Message: "x"}, ErrValidation)
	assert.Equal(t, "A user with that email already exists.", (&ConflictError{Field: "email"}).Message())
}
