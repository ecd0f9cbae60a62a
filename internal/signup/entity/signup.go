package entity

import (
	"time"
)

// PendingSignup is the unconfirmed registration held in the session until
// both codes are verified.
type PendingSignup struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

// Key returns the OTP store key of the draft.
func (p PendingSignup) Key() string {
	return CompositeKey(p.Email, p.Phone)
}

// OTPRecord is the pair of codes issued for one signup attempt.
type OTPRecord struct {
	EmailCode string    `json:"email_code"`
	PhoneCode string    `json:"phone_code"`
	IssuedAt  time.Time `json:"issued_at"`
	Attempts  int       `json:"attempts"`
}

// Expired reports whether more than window has elapsed since issue.
// A record exactly window old is still valid.
func (r OTPRecord) Expired(now time.Time, window time.Duration) bool {
	return now.Sub(r.IssuedAt) > window
}

// CompositeKey identifies an OTP record by the email and phone it was issued for.
func CompositeKey(email, phone string) string {
	return email + "_" + phone
}

type ChannelTargets struct {
	Email string
	Phone string
}

type OTPCodes struct {
	Email string
	Phone string
}

// Identity is what the notifier needs to address the user.
type Identity struct {
	Username string
}

// DeliveryReport is the per-channel result of a notify call. Errors are
// classified with ErrEmailDeliveryFailed, ErrSMSDeliveryFailed or
// ErrInvalidPhoneFormat.
type DeliveryReport struct {
	EmailSent bool
	SMSSent   bool
	EmailErr  error
	SMSErr    error
}
