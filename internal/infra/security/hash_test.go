package security

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

func testHasher(t *testing.T) *PasswordHasher {
	t.Helper()
	h, err := NewPasswordHasher(Argon2Config{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	if err != nil {
		t.Fatalf("NewPasswordHasher returned error: %v", err)
	}
	return h
}

func TestHashAndVerify(t *testing.T) {
	h := testHasher(t)

	encoded, err := h.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}

	parts := strings.Split(encoded, "$")
	if len(parts) != 5 || parts[0] != "argon2id" || parts[2] != "m=8192,t=1,p=1" {
		t.Fatalf("unexpected encoded hash %q", encoded)
	}

	ok, err := h.Verify("correct horse battery staple", encoded)
	if err != nil || !ok {
		t.Fatalf("expected password to verify, got ok=%v err=%v", ok, err)
	}

	ok, err = h.Verify("wrong password", encoded)
	if err != nil || ok {
		t.Fatalf("expected mismatch, got ok=%v err=%v", ok, err)
	}
}

func TestHashUsesFreshSalt(t *testing.T) {
	h := testHasher(t)
	a, _ := h.Hash("same-password")
	b, _ := h.Hash("same-password")
	if a == b {
		t.Fatal("expected different hashes for repeated calls")
	}
}

func TestVerifyInvalidFormat(t *testing.T) {
	if _, err := testHasher(t).Verify("password", "invalid-format"); err == nil {
		t.Fatal("expected error for invalid format")
	}
}

func TestVerifyEmptyInputs(t *testing.T) {
	ok, err := testHasher(t).Verify("", "")
	if err != nil || ok {
		t.Fatalf("expected false without error, got ok=%v err=%v", ok, err)
	}
}

func TestVerifyWerkzeugPBKDF2(t *testing.T) {
	password, salt := "farmer-pass-1", "Qx7bL0aZ"
	sum := pbkdf2.Key([]byte(password), []byte(salt), 1000, 32, sha256.New)
	encoded := "pbkdf2:sha256:1000$" + salt + "$" + hex.EncodeToString(sum)

	h := testHasher(t)
	ok, err := h.Verify(password, encoded)
	if err != nil || !ok {
		t.Fatalf("expected legacy pbkdf2 hash to verify, got ok=%v err=%v", ok, err)
	}
	if ok, _ := h.Verify("other", encoded); ok {
		t.Fatal("expected wrong password to fail")
	}
	if !h.NeedsRehash(encoded) {
		t.Fatal("expected legacy hash to need rehash")
	}
}

func TestVerifyWerkzeugScrypt(t *testing.T) {
	password, salt := "farmer-pass-2", "s4ltS4lt"
	sum, err := scrypt.Key([]byte(password), []byte(salt), 1024, 8, 1, 64)
	if err != nil {
		t.Fatalf("scrypt.Key: %v", err)
	}
	encoded := "scrypt:1024:8:1$" + salt + "$" + hex.EncodeToString(sum)

	ok, err := testHasher(t).Verify(password, encoded)
	if err != nil || !ok {
		t.Fatalf("expected legacy scrypt hash to verify, got ok=%v err=%v", ok, err)
	}
}

func TestNeedsRehashOnParameterChange(t *testing.T) {
	h := testHasher(t)
	encoded, _ := h.Hash("secret-value")
	if h.NeedsRehash(encoded) {
		t.Fatal("expected current hash to be up to date")
	}

	stronger, err := NewPasswordHasher(Argon2Config{Memory: 16 * 1024, Iterations: 2, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	if err != nil {
		t.Fatalf("NewPasswordHasher returned error: %v", err)
	}
	if !stronger.NeedsRehash(encoded) {
		t.Fatal("expected hash to need rehash after parameter change")
	}
	if ok, _ := stronger.Verify("secret-value", encoded); !ok {
		t.Fatal("expected old parameters to still verify")
	}
}

func TestNewPasswordHasherRejectsWeakConfig(t *testing.T) {
	if _, err := NewPasswordHasher(Argon2Config{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}); err == nil {
		t.Fatal("expected error for low memory")
	}
}
