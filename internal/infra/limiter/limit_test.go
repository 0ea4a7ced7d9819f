package limiter

import (
	"testing"
	"time"
)

func TestParseLimit(t *testing.T) {
	cases := []struct {
		in   string
		want Limit
	}{
		{"5 per minute", Limit{Max: 5, Window: time.Minute}},
		{"10 per minutes", Limit{Max: 10, Window: time.Minute}},
		{"1 per second", Limit{Max: 1, Window: time.Second}},
		{"100 per HOUR", Limit{Max: 100, Window: time.Hour}},
		{"3 per days", Limit{Max: 3, Window: 24 * time.Hour}},
		{"  7   per   hours ", Limit{Max: 7, Window: time.Hour}},
		{"20 hour", Limit{Max: 20, Window: time.Hour}},
		{"5 per fortnight", Limit{Max: 5, Window: DefaultWindow}},
		{"9", Limit{Max: 9, Window: DefaultWindow}},
	}

	for _, tc := range cases {
		got, err := ParseLimit(tc.in)
		if err != nil {
			t.Fatalf("ParseLimit(%q) returned error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseLimit(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestParseLimitRejectsMalformedCounts(t *testing.T) {
	for _, in := range []string{"", "   ", "many per minute", "0 per minute", "-3 per hour"} {
		if _, err := ParseLimit(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestMustParseLimitPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	MustParseLimit("lots")
}
