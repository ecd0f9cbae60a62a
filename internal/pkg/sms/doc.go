// Package sms sends text messages to phone numbers through an HTTP gateway
// or, for local runs, through the application log.
package sms
