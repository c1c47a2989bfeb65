// Package hash provides helpers for hashing and verifying secrets.
//
// Store only the digest of a secret, then verify user input by comparing the
// plaintext against the stored digest. SHA256 is the unkeyed digest used for
// one-time passcodes; HMACSHA256 is keyed with a server secret and is used to
// derive storage keys from session identifiers.
package hash
