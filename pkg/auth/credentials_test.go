package auth

import "testing"

func TestVerifyHashMatches(t *testing.T) {
	if !VerifyHash("abc123", "abc123") {
		t.Fatalf("identical hashes should verify")
	}
}

func TestVerifyHashRejectsMismatch(t *testing.T) {
	if VerifyHash("abc123", "abc124") {
		t.Fatalf("different hashes should not verify")
	}
}

func TestVerifyHashRejectsEmptyStored(t *testing.T) {
	if VerifyHash("", "") {
		t.Fatalf("federated accounts without a credential must never verify")
	}
}
