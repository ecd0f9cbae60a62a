package entity

import "errors"

var (
	ErrInvalidPhoneFormat  = errors.New("signup: phone number is not in a supported format")
	ErrEmailDeliveryFailed = errors.New("signup: email delivery failed")
	ErrSMSDeliveryFailed   = errors.New("signup: sms delivery failed")
	ErrSessionLost         = errors.New("signup: pending registration not found in session")
	ErrOTPExpired          = errors.New("signup: otp expired or missing")
	ErrOTPMismatched       = errors.New("signup: otp mismatched")
	ErrDuplicateIdentity   = errors.New("signup: username or email already registered")
	ErrTooManyAttempts     = errors.New("signup: too many verification attempts")
	ErrInvalidCredentials  = errors.New("signup: invalid identifier or password")
)
