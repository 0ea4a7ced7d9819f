package domain

import (
	"fmt"
	"strings"
	"time"
)

// BanKind enumerates the administrative ban variants an account can carry.
type BanKind string

const (
	BanNone      BanKind = "none"
	BanTemporary BanKind = "temporary"
	BanPermanent BanKind = "permanent"
)

// PermanentBanSentinel is the legacy banned_until value that encoded a permanent ban.
const PermanentBanSentinel = "9999-12-31"

const defaultBanReason = "No reason provided"

// BanState is the ban attached to an account. Until is only meaningful for BanTemporary.
type BanState struct {
	Kind   BanKind
	Until  time.Time
	Reason string
}

// NoBan returns the state of an account in good standing.
func NoBan() BanState {
	return BanState{Kind: BanNone}
}

// TemporaryBan builds a ban that lapses at until.
func TemporaryBan(until time.Time, reason string) BanState {
	return BanState{Kind: BanTemporary, Until: until.UTC(), Reason: reason}
}

// PermanentBan builds a ban that never lapses.
func PermanentBan(reason string) BanState {
	return BanState{Kind: BanPermanent, Reason: reason}
}

// IsBanned reports whether any ban variant is recorded, expired or not.
func (b BanState) IsBanned() bool {
	return b.Kind == BanTemporary || b.Kind == BanPermanent
}

// Status renders the ban for listings ("Active", "Temporarily Banned", "Permanently Banned").
func (b BanState) Status(now time.Time) string {
	switch EvaluateBan(b, now).Verdict {
	case BanVerdictBanned:
		if b.Kind == BanPermanent {
			return "Permanently Banned"
		}
		return "Temporarily Banned"
	default:
		return "Active"
	}
}

// BanStateFromColumns decodes the persisted ban columns. Rows written before the
// ban_kind column existed only carry banned_until, in which case a year 9999
// expiry is read as permanent.
func BanStateFromColumns(kind string, until *time.Time, reason *string) BanState {
	var why string
	if reason != nil {
		why = *reason
	}

	switch BanKind(kind) {
	case BanPermanent:
		return PermanentBan(why)
	case BanTemporary:
		if until == nil {
			return NoBan()
		}
		return TemporaryBan(*until, why)
	}

	if until == nil {
		return NoBan()
	}
	if until.Year() >= 9999 {
		return PermanentBan(why)
	}
	return TemporaryBan(*until, why)
}

var legacyBanLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseLegacyBannedUntil interprets the free-form banned_until text used by older
// deployments. An empty value means no ban.
func ParseLegacyBannedUntil(value, reason string) (BanState, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return NoBan(), nil
	}
	if strings.HasPrefix(value, "9999") {
		return PermanentBan(reason), nil
	}

	for _, layout := range legacyBanLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return TemporaryBan(ts, reason), nil
		}
	}

	return BanState{}, fmt.Errorf("unrecognised banned_until value %q", value)
}

// BanVerdict is the outcome of evaluating a ban at a point in time.
type BanVerdict int

const (
	// BanVerdictActive means the account may proceed.
	BanVerdictActive BanVerdict = iota
	// BanVerdictExpired means a temporary ban lapsed; the account may proceed and the ban should be cleared.
	BanVerdictExpired
	// BanVerdictBanned means access must be refused.
	BanVerdictBanned
)

// BanDecision is the result of EvaluateBan.
type BanDecision struct {
	Verdict   BanVerdict
	Permanent bool
	Until     time.Time
	Reason    string
}

// Denied reports whether the decision refuses access.
func (d BanDecision) Denied() bool {
	return d.Verdict == BanVerdictBanned
}

// NeedsClearing reports whether the stored ban lapsed and should be removed.
func (d BanDecision) NeedsClearing() bool {
	return d.Verdict == BanVerdictExpired
}

// Message is the user-facing explanation shown on a denied login.
func (d BanDecision) Message() string {
	if d.Verdict != BanVerdictBanned {
		return ""
	}
	if d.Permanent {
		return "Your account has been permanently banned."
	}
	reason := d.Reason
	if reason == "" {
		reason = defaultBanReason
	}
	return fmt.Sprintf("Your account is temporarily banned until %s. Reason: %s", d.Until.UTC().Format(time.RFC3339), reason)
}

// EvaluateBan decides whether a ban blocks access at now. It is the single
// place ban expiry is interpreted.
func EvaluateBan(state BanState, now time.Time) BanDecision {
	switch state.Kind {
	case BanPermanent:
		return BanDecision{Verdict: BanVerdictBanned, Permanent: true, Reason: state.Reason}
	case BanTemporary:
		if state.Until.After(now) {
			return BanDecision{Verdict: BanVerdictBanned, Until: state.Until, Reason: state.Reason}
		}
		return BanDecision{Verdict: BanVerdictExpired, Until: state.Until, Reason: state.Reason}
	default:
		return BanDecision{Verdict: BanVerdictActive}
	}
}

// User mirrors the persisted representation in the users table.
type User struct {
	ID             int64
	Username       string
	Email          string
	PasswordHash   string
	ProfilePicture *string
	IsAdmin        bool
	Ban            BanState
	CreatedAt      time.Time
}

// UserActivity is a user row enriched with usage counters for the admin console.
type UserActivity struct {
	User
	DetectionCount      int
	RecommendationCount int
}
