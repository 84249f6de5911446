package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrFetch(t *testing.T) {
	cause := errors.New("connection refused")
	err := ErrFetch("rate-source", "Failed to fetch courier rates").Wrap(cause)

	assert.Equal(t, http.StatusBadGateway, err.HTTPStatus)
	assert.Equal(t, CodeFetchError, err.Code)
	assert.Equal(t, "rate-source", err.Details["source"])
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "FETCH_ERROR: Failed to fetch courier rates: connection refused", err.Error())
}

func TestErrPrecondition(t *testing.T) {
	err := ErrPrecondition("no offer to compose fees from")

	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus)
	assert.Equal(t, CodePrecondition, err.Code)
}

func TestAsAppError_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("submit: %w", ErrNotFound("rate session"))

	appErr, ok := AsAppError(wrapped)

	require.True(t, ok)
	assert.Equal(t, "rate session not found", appErr.Message)
	assert.True(t, IsAppError(wrapped))
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	validation := ErrValidation("sort field must be one of: courier, mode, shipping, gst, total")
	assert.Same(t, validation, FromError(validation))

	internal := FromError(errors.New("boom"))
	assert.Equal(t, CodeInternalError, internal.Code)
	assert.Equal(t, http.StatusInternalServerError, internal.HTTPStatus)
	assert.EqualError(t, internal.Unwrap(), "boom")
}

func TestErrValidationWithFields(t *testing.T) {
	err := ErrValidationWithFields("validation failed", map[string]string{"origin": "is required"})

	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus)
	assert.Equal(t, "is required", err.Details["origin"])
}
