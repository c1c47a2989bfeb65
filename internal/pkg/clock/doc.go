// Package clock provides a tiny time abstraction.
//
// Production code should depend on the Clocker interface instead of calling
// time.Now() directly. OTP expiry checks are time-sensitive, so tests swap in
// the Fake clock and move it forward explicitly with Advance.
package clock
