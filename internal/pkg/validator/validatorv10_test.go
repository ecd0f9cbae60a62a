package validator

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupPayload struct {
	Username string `validate:"required,username"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,password"`
	Phone    string `validate:"required,max=32"`
}

type codePayload struct {
	EmailCode string `validate:"required,otp"`
}

func TestV10Validator_Validate(t *testing.T) {
	v, err := NewV10Validator()
	require.NoError(t, err)

	tests := []struct {
		name    string
		data    any
		wantErr map[string]string
	}{
		{
			name: "valid signup",
			data: signupPayload{Username: "alice", Email: "a@x.com", Password: "pw123456", Phone: "9876543210"},
		},
		{
			name: "phone format is left to delivery",
			data: signupPayload{Username: "alice", Email: "a@x.com", Password: "pw123456", Phone: "12345"},
		},
		{
			name: "password of 72 multibyte characters accepted",
			data: signupPayload{Username: "alice", Email: "a@x.com", Password: strings.Repeat("é", 72), Phone: "9876543210"},
		},
		{
			name: "bad username and short password",
			data: signupPayload{Username: "a!", Email: "a@x.com", Password: "short", Phone: "9876543210"},
			wantErr: map[string]string{
				"username": "Username must be 3-30 letters, digits, '_', '.' or '-'",
				"password": "Password must be 8-72 characters",
			},
		},
		{
			name:    "password over 72 characters rejected",
			data:    signupPayload{Username: "alice", Email: "a@x.com", Password: strings.Repeat("a", 73), Phone: "9876543210"},
			wantErr: map[string]string{"password": "Password must be 8-72 characters"},
		},
		{
			name:    "otp with letters rejected",
			data:    codePayload{EmailCode: "12a456"},
			wantErr: map[string]string{"email_code": "EmailCode must be a numeric code of up to 6 digits"},
		},
		{
			name: "otp without leading zeros accepted",
			data: codePayload{EmailCode: "12345"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.data)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}

			var verr V10ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.wantErr, verr.Values())
		})
	}
}
