package domain

import (
	"strings"
	"testing"
	"time"
)

func TestEvaluateBanLegacySentinelIsPermanent(t *testing.T) {
	state, err := ParseLegacyBannedUntil(PermanentBanSentinel, "spam")
	if err != nil {
		t.Fatalf("ParseLegacyBannedUntil returned error: %v", err)
	}

	for _, now := range []time.Time{
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(9999, 12, 31, 23, 59, 0, 0, time.UTC),
	} {
		decision := EvaluateBan(state, now)
		if !decision.Denied() || !decision.Permanent {
			t.Fatalf("expected permanent ban at %s, got %+v", now, decision)
		}
	}
}

func TestEvaluateBanTemporary(t *testing.T) {
	now := time.Date(2025, 10, 12, 10, 0, 0, 0, time.UTC)

	active := EvaluateBan(TemporaryBan(now.Add(time.Hour), "abuse"), now)
	if !active.Denied() {
		t.Fatalf("expected future ban to deny, got %+v", active)
	}
	if !strings.Contains(active.Message(), "abuse") || !strings.Contains(active.Message(), "2025-10-12T11:00:00Z") {
		t.Fatalf("expected message with reason and expiry, got %q", active.Message())
	}

	expired := EvaluateBan(TemporaryBan(now.Add(-time.Hour), "abuse"), now)
	if expired.Denied() {
		t.Fatalf("expected lapsed ban to allow, got %+v", expired)
	}
	if !expired.NeedsClearing() {
		t.Fatal("expected lapsed ban to request clearing")
	}
}

func TestEvaluateBanNone(t *testing.T) {
	decision := EvaluateBan(NoBan(), time.Now())
	if decision.Denied() || decision.NeedsClearing() {
		t.Fatalf("expected active decision, got %+v", decision)
	}
	if decision.Message() != "" {
		t.Fatalf("expected empty message, got %q", decision.Message())
	}
}

func TestBanStateFromColumns(t *testing.T) {
	far := time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	soon := time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC)
	reason := "spam"

	if got := BanStateFromColumns("", &far, &reason); got.Kind != BanPermanent {
		t.Fatalf("expected legacy far-future expiry to be permanent, got %s", got.Kind)
	}
	if got := BanStateFromColumns("", &soon, &reason); got.Kind != BanTemporary || !got.Until.Equal(soon) {
		t.Fatalf("expected temporary ban until %s, got %+v", soon, got)
	}
	if got := BanStateFromColumns("temporary", nil, nil); got.Kind != BanNone {
		t.Fatalf("expected temporary ban without expiry to decode as none, got %s", got.Kind)
	}
	if got := BanStateFromColumns("permanent", nil, &reason); got.Kind != BanPermanent || got.Reason != reason {
		t.Fatalf("unexpected permanent decode %+v", got)
	}
	if got := BanStateFromColumns("none", nil, nil); got.IsBanned() {
		t.Fatalf("expected no ban, got %+v", got)
	}
}

func TestParseLegacyBannedUntil(t *testing.T) {
	state, err := ParseLegacyBannedUntil("2025-10-19T08:30:00.123456", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Kind != BanTemporary || state.Until.Day() != 19 {
		t.Fatalf("unexpected state %+v", state)
	}

	if _, err := ParseLegacyBannedUntil("next tuesday", ""); err == nil {
		t.Fatal("expected error for unparseable value")
	}

	empty, err := ParseLegacyBannedUntil("  ", "")
	if err != nil || empty.IsBanned() {
		t.Fatalf("expected no ban for empty value, got %+v err=%v", empty, err)
	}
}

func TestBanStateStatus(t *testing.T) {
	now := time.Date(2025, 10, 12, 10, 0, 0, 0, time.UTC)
	cases := map[string]BanState{
		"Active":             TemporaryBan(now.Add(-time.Minute), ""),
		"Temporarily Banned": TemporaryBan(now.Add(time.Minute), ""),
		"Permanently Banned": PermanentBan(""),
	}
	for want, state := range cases {
		if got := state.Status(now); got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	}
}
