package common

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindNone},
		{"credentials", fmt.Errorf("login: %w", ErrInvalidCredentials), KindAuth},
		{"unauthorized", ErrUnauthorized, KindUnauthorized},
		{"expired token", fmt.Errorf("parse: %w", ErrTokenExpired), KindUnauthorized},
		{"validation", fmt.Errorf("%w: weak password", ErrValidation), KindValidation},
		{"conflict", ErrConflict, KindConflict},
		{"not found", ErrNotFound, KindNotFound},
		{"network", fmt.Errorf("post: %w", ErrUnavailable), KindNetwork},
		{"deadline", context.DeadlineExceeded, KindNetwork},
		{"server", ErrServer, KindServer},
		{"other", errors.New("boom"), KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(KindNetwork))
	assert.True(t, Retryable(KindServer))
	assert.True(t, Retryable(KindUnknown))

	assert.False(t, Retryable(KindAuth))
	assert.False(t, Retryable(KindValidation))
	assert.False(t, Retryable(KindConflict))
	assert.False(t, Retryable(KindUnauthorized))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "network", KindNetwork.String())
	assert.Equal(t, "unknown", Kind(99).String())
}
