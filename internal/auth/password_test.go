package auth_test

import (
	"testing"

	"github.com/gatehouse-api/gatehouse/internal/auth"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := auth.HashPassword("secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "secret1" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !auth.CheckPassword("secret1", hash) {
		t.Fatal("correct password should verify")
	}
	if auth.CheckPassword("secret2", hash) {
		t.Fatal("wrong password must not verify")
	}
}

func TestPasswordHashesAreSalted(t *testing.T) {
	first, err := auth.HashPassword("secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	second, err := auth.HashPassword("secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if first == second {
		t.Fatal("equal plaintexts must not produce equal hashes")
	}
}

func TestCheckPasswordMalformedHash(t *testing.T) {
	if auth.CheckPassword("secret1", "not-a-bcrypt-hash") {
		t.Fatal("malformed hash must verify as false")
	}
	if auth.CheckPassword("secret1", "") {
		t.Fatal("empty hash must verify as false")
	}
}
