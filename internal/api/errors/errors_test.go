package errors

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want int
	}{
		{KindValidation, http.StatusUnprocessableEntity},
		{KindBadRequest, http.StatusBadRequest},
		{KindNotFound, http.StatusNotFound},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindInvalidSignature, http.StatusUnauthorized},
		{KindForbidden, http.StatusForbidden},
		{KindConflict, http.StatusConflict},
		{KindInvalidState, http.StatusConflict},
		{KindRateLimited, http.StatusTooManyRequests},
		{KindProvider, http.StatusServiceUnavailable},
		{KindServiceUnavailable, http.StatusServiceUnavailable},
		{KindInternal, http.StatusInternalServerError},
		{ErrorKind("something-new"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := &APIError{Kind: tt.kind, Message: "x"}
			assert.Equal(t, tt.want, err.HTTPStatus())
		})
	}
}

func TestInvalidStateErrorCarriesCurrentState(t *testing.T) {
	err := NewInvalidStateError("submit print job", "slicing")
	assert.Equal(t, KindInvalidState, err.Kind)
	assert.Equal(t, "slicing", err.Details["current_state"])
	assert.Contains(t, err.Error(), "submit print job")
}

func TestRateLimitErrorCarriesRetryAfter(t *testing.T) {
	err := NewRateLimitError("daily limit exceeded", 3600)
	assert.Equal(t, KindRateLimited, err.Kind)
	assert.Equal(t, 3600, err.RetryAfter)
}

func TestWrapErrorPreservesDetails(t *testing.T) {
	orig := NewValidationError("bad input", map[string]string{"image": "empty"})

	wrapped := WrapError(orig, KindInternal, "pipeline rejected input")
	assert.Equal(t, KindInternal, wrapped.Kind)
	assert.Equal(t, "empty", wrapped.Details["image"])

	assert.Nil(t, WrapError(nil, KindInternal, "nothing"))
}
