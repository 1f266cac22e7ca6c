package auth

import "crypto/subtle"

// VerifyHash compares a client-supplied credential hash against the
// stored one in constant time.
func VerifyHash(supplied, stored string) bool {
	if stored == "" {
		// Federated accounts carry no credential; password login is
		// never valid for them.
		return false
	}
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(stored)) == 1
}
