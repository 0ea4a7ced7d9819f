package security

import (
	"errors"
	"strings"
	"testing"

	"github.com/Krishna2005-yadav/Crop-System/internal/core/domain"
)

func TestValidateEmail(t *testing.T) {
	cases := []struct {
		in     string
		valid  bool
		reason Reason
	}{
		{"a@b.co", true, ""},
		{"farmer.joe+crops@agri-coop.org", true, ""},
		{"a@mailinator.com", false, ReasonDisposableDomain},
		{"someone@YOPMAIL.COM", false, ReasonDisposableDomain},
		{"not-an-email", false, ReasonInvalidFormat},
		{"a@b.c", false, ReasonInvalidFormat},
		{"a b@c.com", false, ReasonInvalidFormat},
		{"", false, ReasonRequired},
		{strings.Repeat("a", 250) + "@b.co", false, ReasonInvalidFormat},
	}

	for _, tc := range cases {
		got := ValidateEmail(tc.in)
		if got.Valid != tc.valid || got.Reason != tc.reason {
			t.Fatalf("ValidateEmail(%q) = %+v, want valid=%v reason=%q", tc.in, got, tc.valid, tc.reason)
		}
		if !got.Valid && got.Message == "" {
			t.Fatalf("ValidateEmail(%q) returned no message", tc.in)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	cases := []struct {
		in     string
		valid  bool
		reason Reason
	}{
		{"Xk9#mQp2Lw", true, ""},
		{"password1", false, ReasonTooCommon},
		{"PASSWORD", false, ReasonTooCommon},
		{"LetMeIn", false, ReasonTooShort},
		{"short", false, ReasonTooShort},
		{strings.Repeat("x", 129), false, ReasonTooLong},
		{strings.Repeat("x", 128), true, ""},
		{"", false, ReasonRequired},
	}

	for _, tc := range cases {
		got := ValidatePassword(tc.in)
		if got.Valid != tc.valid || got.Reason != tc.reason {
			t.Fatalf("ValidatePassword(%q) = %+v, want valid=%v reason=%q", tc.in, got, tc.valid, tc.reason)
		}
	}
}

func TestValidateUsername(t *testing.T) {
	cases := []struct {
		in     string
		valid  bool
		reason Reason
	}{
		{"farmer_01", true, ""},
		{"abc", true, ""},
		{"ab", false, ReasonTooShort},
		{strings.Repeat("u", 31), false, ReasonTooLong},
		{"farmer joe", false, ReasonInvalidChars},
		{"farmer-joe", false, ReasonInvalidChars},
		{"", false, ReasonRequired},
	}

	for _, tc := range cases {
		got := ValidateUsername(tc.in)
		if got.Valid != tc.valid || got.Reason != tc.reason {
			t.Fatalf("ValidateUsername(%q) = %+v, want valid=%v reason=%q", tc.in, got, tc.valid, tc.reason)
		}
	}
}

func TestResultErr(t *testing.T) {
	if err := ValidateUsername("farmer").Err("username"); err != nil {
		t.Fatalf("expected nil error for valid result, got %v", err)
	}

	err := ValidateUsername("x").Err("username")
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if vErr.Field != "username" {
		t.Fatalf("expected field username, got %q", vErr.Field)
	}
}

func TestCustomValidator(t *testing.T) {
	v := NewValidator(RequiredRule("needed"), LengthRule(2, 0, fail(ReasonTooShort, "short"), passed))
	if res := v.Validate(""); res.Reason != ReasonRequired {
		t.Fatalf("expected required, got %+v", res)
	}
	if res := v.Validate("a"); res.Reason != ReasonTooShort {
		t.Fatalf("expected too short, got %+v", res)
	}
	if res := v.Validate(strings.Repeat("a", 1000)); !res.Valid {
		t.Fatalf("expected unbounded max, got %+v", res)
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Farmer@Example.COM "); got != "farmer@example.com" {
		t.Fatalf("unexpected normalized email %q", got)
	}
}
