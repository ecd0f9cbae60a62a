// Package validator provides a small validation abstraction for request and
// domain structs.
//
// Business code depends on the Validator interface; V10Validator backs it with
// go-playground/validator v10 and registers the signup specific rules
// (password, username, otp, phone).
package validator

// Validator validates a struct and returns a descriptive error on failure.
type Validator interface {
	Validate(data any) error
}
