package service

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind error
		want int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrConflict, http.StatusUnprocessableEntity},
		{ErrValidation, http.StatusUnprocessableEntity},
		{ErrGeocodeFailed, http.StatusUnprocessableEntity},
		{ErrInvalidCredentials, http.StatusUnauthorized},
		{ErrAuthFailure, http.StatusInternalServerError},
		{ErrWriteFailed, http.StatusInternalServerError},
		{errors.New("unknown"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.kind.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.kind))
		})
	}
}

func TestFailure(t *testing.T) {
	cause := errors.New("pq: connection refused")
	f := newFailure(ErrWriteFailed, msgSignupFailed, cause)

	assert.ErrorIs(t, f, ErrWriteFailed)
	assert.ErrorIs(t, f, cause)
	assert.NotErrorIs(t, f, ErrNotFound)
	assert.Equal(t, msgSignupFailed+": "+cause.Error(), f.Error())
	assert.Equal(t, http.StatusInternalServerError, f.Status())

	bare := newFailure(ErrNotFound, msgUserPlacesNotFound, nil)
	assert.Equal(t, msgUserPlacesNotFound, bare.Error())
	assert.ErrorIs(t, bare, ErrNotFound)

	wrapped := fmt.Errorf("handler: %w", f)
	got, ok := AsFailure(wrapped)
	assert.True(t, ok)
	assert.Same(t, f, got)

	_, ok = AsFailure(cause)
	assert.False(t, ok)
}
