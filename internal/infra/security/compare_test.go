package security

import "testing"

func TestSecureCompare(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"abc", "abc", true},
		{"abc", "abd", false},
		{"abc", "ab", false},
		{"ab", "abc", false},
		{"", "", true},
		{"", "x", false},
	}

	for _, tc := range cases {
		if got := SecureCompare(tc.a, tc.b); got != tc.want {
			t.Fatalf("SecureCompare(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestSecureCompareVisitsEveryByteRegardlessOfMismatchPosition(t *testing.T) {
	secret := []byte("s3cr3t-metrics-token")

	for pos := 0; pos < len(secret); pos++ {
		candidate := append([]byte(nil), secret...)
		candidate[pos] ^= 0xff

		equal, visited := constantTimeEqual(secret, candidate)
		if equal {
			t.Fatalf("mismatch at %d reported equal", pos)
		}
		if visited != len(secret) {
			t.Fatalf("mismatch at %d visited %d bytes, want %d", pos, visited, len(secret))
		}
	}

	_, visited := constantTimeEqual(secret, []byte("s"))
	if visited != len(secret) {
		t.Fatalf("length mismatch visited %d bytes, want %d", visited, len(secret))
	}
}
