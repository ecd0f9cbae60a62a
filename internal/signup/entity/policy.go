package entity

import (
	"errors"
	"fmt"
)

// DeliveryPolicy decides which channel failures abort a signup.
type DeliveryPolicy string

const (
	// DeliveryPolicyStrictEmail aborts when the email code could not be sent.
	// SMS failures are tolerated.
	DeliveryPolicyStrictEmail DeliveryPolicy = "strict_email"

	// DeliveryPolicyBestEffort tolerates failures on both channels.
	DeliveryPolicyBestEffort DeliveryPolicy = "best_effort"
)

// ParseDeliveryPolicy maps a config value to a policy. Unknown values fall
// back to DeliveryPolicyStrictEmail.
func ParseDeliveryPolicy(v string) DeliveryPolicy {
	if DeliveryPolicy(v) == DeliveryPolicyBestEffort {
		return DeliveryPolicyBestEffort
	}
	return DeliveryPolicyStrictEmail
}

func (p DeliveryPolicy) String() string {
	return string(p)
}

// Evaluate returns a non-nil error when the report is fatal under p.
func (p DeliveryPolicy) Evaluate(report DeliveryReport) error {
	if p == DeliveryPolicyBestEffort || report.EmailSent {
		return nil
	}

	if report.EmailErr == nil {
		return ErrEmailDeliveryFailed
	}
	if errors.Is(report.EmailErr, ErrEmailDeliveryFailed) {
		return report.EmailErr
	}

	return fmt.Errorf("%w: %w", ErrEmailDeliveryFailed, report.EmailErr)
}
