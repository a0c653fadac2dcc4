package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesKindAndCode(t *testing.T) {
	sentinel := Unauthorized("invalid_token", "invalid token")

	wrapped := fmt.Errorf("verify: %w", sentinel.Wrap(errors.New("bad footer")))

	assert.ErrorIs(t, wrapped, sentinel)
	assert.NotErrorIs(t, wrapped, Unauthorized("token_expired", "token has expired"))
	assert.NotErrorIs(t, wrapped, Forbidden("invalid_token", "invalid token"))
}

func TestError_WrapKeepsSentinelUntouched(t *testing.T) {
	sentinel := Delivery("delivery_failed", "could not send email")
	cause := errors.New("smtp: 421")

	wrapped := sentinel.Wrap(cause)

	assert.Nil(t, sentinel.Err)
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, "could not send email: smtp: 421", wrapped.Error())
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"typed", Validation("x", "y"), KindValidation},
		{"wrapped typed", fmt.Errorf("ctx: %w", NotFound("x", "y")), KindNotFound},
		{"plain", errors.New("db down"), KindInternal},
		{"nil", nil, KindInternal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, KindOf(tc.err))
		})
	}
}
