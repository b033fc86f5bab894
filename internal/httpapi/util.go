package httpapi

import "crypto/subtle"

// subtleEqual compares two secrets in constant time, as required for
// anything secret-adjacent.
func subtleEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
