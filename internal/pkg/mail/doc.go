// Package mail sends email messages. Callers depend on the Mail interface;
// SMTP delivers them and Retrying wraps any Mail with backoff on transient
// failures.
package mail
