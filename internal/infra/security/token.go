package security

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidSessionToken is returned for tokens that are malformed, expired or signed with another key.
var ErrInvalidSessionToken = errors.New("session token: invalid")

const minSessionSecretLength = 32

// GenerateSecureToken returns a base64 URL-safe random string using the specified number of random bytes.
func GenerateSecureToken(byteLength int) (string, error) {
	if byteLength <= 0 {
		return "", fmt.Errorf("length must be positive")
	}

	buf := make([]byte, byteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// SessionTokenCodec signs and parses the cookie value that carries a session id.
// The token holds no user attributes; it only binds the opaque id to this server.
type SessionTokenCodec struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewSessionTokenCodec builds an HS256 codec. The secret must be at least 32 bytes.
func NewSessionTokenCodec(secret, issuer string) (*SessionTokenCodec, error) {
	if len(secret) < minSessionSecretLength {
		return nil, fmt.Errorf("session token: secret must be at least %d bytes", minSessionSecretLength)
	}
	issuer = strings.TrimSpace(issuer)
	if issuer == "" {
		issuer = "crop-system"
	}
	return &SessionTokenCodec{secret: []byte(secret), issuer: issuer, now: time.Now}, nil
}

// WithClock overrides the time source used for issuing and validating tokens.
func (c *SessionTokenCodec) WithClock(now func() time.Time) *SessionTokenCodec {
	if now != nil {
		c.now = now
	}
	return c
}

// Sign encodes sessionID into a token expiring at expiresAt.
func (c *SessionTokenCodec) Sign(sessionID string, expiresAt time.Time) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", fmt.Errorf("session token: empty session id")
	}

	claims := jwt.RegisteredClaims{
		ID:        sessionID,
		Issuer:    c.issuer,
		IssuedAt:  jwt.NewNumericDate(c.now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("session token: sign: %w", err)
	}
	return signed, nil
}

// Parse validates token and returns the session id it carries.
func (c *SessionTokenCodec) Parse(token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", ErrInvalidSessionToken
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSessionToken, err)
	}
	if !parsed.Valid {
		return "", ErrInvalidSessionToken
	}
	if claims.ID == "" {
		return "", ErrInvalidSessionToken
	}
	return claims.ID, nil
}
