package security

import "crypto/subtle"

// SecureCompare reports whether a and b are equal in time that depends only on
// the length of a. Use it for tokens and API keys, never ==.
func SecureCompare(a, b string) bool {
	equal, _ := constantTimeEqual([]byte(a), []byte(b))
	return equal
}

// constantTimeEqual visits every byte of a whatever the contents of b and
// returns the number of bytes visited alongside the result.
func constantTimeEqual(a, b []byte) (bool, int) {
	var diff byte
	visited := 0
	for i := range a {
		other := a[i]
		if i < len(b) {
			other = b[i]
		}
		diff |= a[i] ^ other
		visited++
	}

	sameLen := subtle.ConstantTimeEq(int32(len(a)), int32(len(b)))
	sameBytes := subtle.ConstantTimeByteEq(diff, 0)
	return sameLen&sameBytes == 1, visited
}
