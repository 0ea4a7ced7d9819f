package logger

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	lg   *zap.Logger
	once sync.Once
)

// New returns a singleton zap.Logger. Production builds JSON output; every
// other environment gets the coloured development encoder.
func New(env string) (*zap.Logger, error) {
	var err error
	once.Do(func() {
		cfg := zap.NewProductionConfig()
		if env != "production" {
			cfg = zap.NewDevelopmentConfig()
			cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}

		lg, err = cfg.Build(zap.Fields(zap.String("service", "crop-system")))
	})

	return lg, err
}

// WithContext returns the base logger annotated with the request id carried by ctx.
func WithContext(ctx context.Context) *zap.Logger {
	if lg == nil {
		lz, _ := zap.NewDevelopment()
		return lz
	}

	if ctx == nil {
		return lg
	}

	if id := RequestIDFromContext(ctx); id != "" {
		return lg.With(zap.String("request_id", id))
	}
	return lg
}

// RequestIDFromContext extracts the request id stored under RequestIDKey.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if val, ok := ctx.Value(RequestIDKey{}).(string); ok {
		return val
	}
	return ""
}

// RequestIDKey is used to store a request identifier on the context.
type RequestIDKey struct{}

var emailRegex = regexp.MustCompile(`^([^@]{1,3})[^@]*(@.+)$`)

// MaskEmail keeps up to three leading characters and the domain.
// Example: grower.one@farm.io -> gro***@farm.io
func MaskEmail(email string) string {
	if email == "" {
		return ""
	}

	if m := emailRegex.FindStringSubmatch(email); len(m) == 3 {
		return m[1] + "***" + m[2]
	}

	if _, domain, found := strings.Cut(email, "@"); found {
		return "***@" + domain
	}

	return "***"
}

// MaskIP keeps the first two IPv4 octets or the first four IPv6 groups.
func MaskIP(ip string) string {
	switch {
	case ip == "":
		return ""
	case strings.Contains(ip, "."):
		if parts := strings.Split(ip, "."); len(parts) == 4 {
			return parts[0] + "." + parts[1] + ".*.*"
		}
	case strings.Contains(ip, ":"):
		if parts := strings.Split(ip, ":"); len(parts) >= 4 {
			return strings.Join(parts[:4], ":") + ":*:*:*:*"
		}
	}
	return "***"
}

// MaskString keeps the first and last two characters of s.
func MaskString(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "***"
	}
	return s[:2] + "***" + s[len(s)-2:]
}

// MaskIdentifier masks a login identifier, treating anything with an @ as an email.
func MaskIdentifier(identifier string) string {
	if strings.Contains(identifier, "@") {
		return MaskEmail(identifier)
	}
	return MaskString(identifier)
}
