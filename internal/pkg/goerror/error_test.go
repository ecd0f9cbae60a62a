package goerror

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCode_Status(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeInternal, http.StatusInternalServerError},
		{CodeInvalidFormat, http.StatusBadRequest},
		{CodeInvalidInput, http.StatusUnprocessableEntity},
		{CodeConflict, http.StatusConflict},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeGone, http.StatusGone},
		{CodeBadGateway, http.StatusBadGateway},
		{Code(99), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.Status())
		})
	}
	assert.Equal(t, "ERROR_CODE_INTERNAL", Code(99).String())
	assert.Equal(t, "ERROR_TYPE_UNKNOWN", Type(7).String())
}

func TestNewBusinessCause(t *testing.T) {
	cause := errors.New("otp expired")

	err := NewBusinessCause(cause, "Verification code expired", CodeGone, "state", "expired", "outcome")

	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Verification code expired", gerr.Msg())
	assert.Equal(t, http.StatusGone, gerr.StatusCode())
	assert.Equal(t, TypeBusiness, gerr.Type())
	assert.Equal(t, map[string]string{"state": "expired"}, gerr.Fields())
	assert.Equal(t, "otp expired", err.Error())
}

func TestNewInvalidInput(t *testing.T) {
	var gerr *Error

	require.ErrorAs(t, NewInvalidInput(nil, "email", "Email is required"), &gerr)
	assert.Equal(t, CodeInvalidInput, gerr.Code())
	assert.Equal(t, map[string]string{"email": "Email is required"}, gerr.Fields())

	require.ErrorAs(t, NewInvalidInput(nil, "email"), &gerr)
	assert.Equal(t, CodeInvalidFormat, gerr.Code())

	require.ErrorAs(t, NewInvalidInput(errors.New("v")), &gerr)
	assert.Equal(t, http.StatusUnprocessableEntity, gerr.StatusCode())
	assert.Nil(t, gerr.Fields())
}

func TestError_Messages(t *testing.T) {
	assert.Equal(t, "Invalid request body", NewInvalidFormat().Error())
	assert.Equal(t, "bad json", NewInvalidFormat("bad json").Error())
	assert.Equal(t, "Logical business not meet with requirement", (&Error{errType: TypeBusiness}).Error())
	assert.Equal(t, "Internal error", (&Error{}).Error())

	var gerr *Error
	require.ErrorAs(t, NewServer(errors.New("db down")), &gerr)
	assert.Equal(t, "Internal server error", gerr.Msg())
	assert.Contains(t, gerr.String(), "ERROR_CODE_INTERNAL")
}
