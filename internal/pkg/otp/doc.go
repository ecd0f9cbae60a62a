// Package otp generates short numeric one-time codes delivered out of band
// (email, SMS) and compares submitted codes against issued ones.
package otp
