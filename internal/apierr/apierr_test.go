package apierr

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want int
	}{
		{"validation", Validationf("bad field"), http.StatusBadRequest},
		{"not found", NotFoundf("content %d", 1), http.StatusNotFound},
		{"auth failure", AuthFailuref("no token"), http.StatusUnauthorized},
		{"conflict", Conflictf("username taken"), http.StatusConflict},
		{"transient", Transient(errors.New("timeout"), "db read"), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Status())
		})
	}
}

func TestAsUnwrapsWrappedError(t *testing.T) {
	cause := NotFoundf("content 7 not found")
	wrapped := errors.New("store: " + cause.Error())

	_, ok := As(wrapped)
	assert.False(t, ok, "a plain errors.New should not be mistaken for a classified error")

	apiErr, ok := As(cause)
	assert.True(t, ok)
	assert.Equal(t, KindNotFound, apiErr.Kind)
}

func TestTransientPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Transient(cause, "connect to redis")
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connect to redis")
}
