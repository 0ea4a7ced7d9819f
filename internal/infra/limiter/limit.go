package limiter

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultWindow is used when a limit names a unit that is not recognised.
// The fallback is intentionally permissive: "5 per fortnight" behaves as
// "5 per minute" rather than failing configuration.
const DefaultWindow = time.Minute

var unitWindows = map[string]time.Duration{
	"second":  time.Second,
	"seconds": time.Second,
	"minute":  time.Minute,
	"minutes": time.Minute,
	"hour":    time.Hour,
	"hours":   time.Hour,
	"day":     24 * time.Hour,
	"days":    24 * time.Hour,
}

// Limit is the number of admissions allowed within a trailing window.
type Limit struct {
	Max    int
	Window time.Duration
}

// Enabled reports whether the limit restricts anything.
func (l Limit) Enabled() bool {
	return l.Max > 0 && l.Window > 0
}

func (l Limit) String() string {
	return fmt.Sprintf("%d per %s", l.Max, l.Window)
}

// ParseLimit parses "<N> per <unit>" where unit is second, minute, hour or day,
// singular or plural. The "per" keyword is optional. Unknown units fall back
// to DefaultWindow.
func ParseLimit(spec string) (Limit, error) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(spec)))
	if len(fields) == 0 {
		return Limit{}, fmt.Errorf("limiter: empty limit")
	}

	count, err := strconv.Atoi(fields[0])
	if err != nil {
		return Limit{}, fmt.Errorf("limiter: parse count in %q: %w", spec, err)
	}
	if count <= 0 {
		return Limit{}, fmt.Errorf("limiter: count must be positive in %q", spec)
	}

	window := DefaultWindow
	if len(fields) > 1 {
		unit := fields[len(fields)-1]
		if w, ok := unitWindows[unit]; ok {
			window = w
		}
	}

	return Limit{Max: count, Window: window}, nil
}

// MustParseLimit is ParseLimit for compile-time constants.
func MustParseLimit(spec string) Limit {
	l, err := ParseLimit(spec)
	if err != nil {
		panic(err)
	}
	return l
}
