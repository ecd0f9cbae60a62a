// Package clock provides a tiny time abstraction.
//
// Production code depends on the Clocker interface instead of calling
// time.Now() directly, so expiry windows can be exercised in tests with the
// Manual clock.
package clock
