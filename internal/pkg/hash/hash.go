package hash

// Hash produces digests and verifies plaintext against them.
type Hash interface {
	// Hash returns the hex-encoded digest of str.
	Hash(str string) ([]byte, error)
	// Verify reports whether str hashes to hashed. Comparison is constant-time.
	Verify(hashed, str string) bool
}
