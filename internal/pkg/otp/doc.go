// Package otp generates one-time passcodes for email login.
//
// A Code carries the six-digit value that is mailed to the user and the
// SHA-256 digest of its decimal form, which is the only thing ever stored.
// Submitted codes are digested with Digest and compared against the stored
// digest.
package otp
