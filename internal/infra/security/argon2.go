package security

import (
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

const (
	argon2Variant = "argon2id"
	argon2Version = "v=19"
)

var (
	errInvalidHashFormat = errors.New("argon2: invalid encoded hash format")
	errInvalidConfig     = errors.New("argon2: invalid configuration")
)

// Argon2Config defines tunable parameters for Argon2id password hashing.
type Argon2Config struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Config returns the library default Argon2id configuration.
func DefaultArgon2Config() Argon2Config {
	return Argon2Config{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 4,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func validateArgon2Config(cfg Argon2Config) error {
	if cfg.Memory < 8*1024 {
		return fmt.Errorf("%w: memory must be at least 8192", errInvalidConfig)
	}
	if cfg.Iterations == 0 {
		return fmt.Errorf("%w: iterations must be greater than zero", errInvalidConfig)
	}
	if cfg.Parallelism == 0 {
		return fmt.Errorf("%w: parallelism must be greater than zero", errInvalidConfig)
	}
	if cfg.SaltLength < 8 {
		return fmt.Errorf("%w: salt length must be at least 8 bytes", errInvalidConfig)
	}
	if cfg.KeyLength < 16 {
		return fmt.Errorf("%w: key length must be at least 16 bytes", errInvalidConfig)
	}
	return nil
}

// PasswordHasher hashes new passwords with Argon2id and verifies both Argon2id
// hashes and the pbkdf2/scrypt hashes written by the previous Werkzeug-based
// deployment.
type PasswordHasher struct {
	cfg Argon2Config
}

// NewPasswordHasher validates cfg and builds a hasher.
func NewPasswordHasher(cfg Argon2Config) (*PasswordHasher, error) {
	if err := validateArgon2Config(cfg); err != nil {
		return nil, err
	}
	return &PasswordHasher{cfg: cfg}, nil
}

// Hash generates an Argon2id hash for the provided password.
// Format: argon2id$v=19$m=<memory>,t=<iterations>,p=<parallelism>$<salt>$<hash>
func (h *PasswordHasher) Hash(password string) (string, error) {
	salt := make([]byte, h.cfg.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("argon2: generate salt: %w", err)
	}

	sum := argon2.IDKey([]byte(password), salt, h.cfg.Iterations, h.cfg.Memory, h.cfg.Parallelism, h.cfg.KeyLength)

	return strings.Join([]string{
		argon2Variant,
		argon2Version,
		fmt.Sprintf("m=%d,t=%d,p=%d", h.cfg.Memory, h.cfg.Iterations, h.cfg.Parallelism),
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum),
	}, "$"), nil
}

// Verify compares the provided password against a stored hash.
func (h *PasswordHasher) Verify(password, encoded string) (bool, error) {
	if password == "" || encoded == "" {
		return false, nil
	}

	switch {
	case strings.HasPrefix(encoded, argon2Variant+"$"):
		params, salt, expected, err := decodeArgon2Hash(encoded)
		if err != nil {
			return false, err
		}
		computed := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, uint32(len(expected)))
		return subtle.ConstantTimeCompare(computed, expected) == 1, nil
	case strings.HasPrefix(encoded, "pbkdf2:"), strings.HasPrefix(encoded, "scrypt:"):
		return verifyWerkzeugHash(password, encoded)
	default:
		return false, errInvalidHashFormat
	}
}

// NeedsRehash reports whether encoded was not produced with the current Argon2id settings.
func (h *PasswordHasher) NeedsRehash(encoded string) bool {
	if !strings.HasPrefix(encoded, argon2Variant+"$") {
		return true
	}
	params, _, _, err := decodeArgon2Hash(encoded)
	if err != nil {
		return true
	}
	return params.Memory != h.cfg.Memory || params.Iterations != h.cfg.Iterations || params.Parallelism != h.cfg.Parallelism
}

func decodeArgon2Hash(encoded string) (Argon2Config, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 5 {
		return Argon2Config{}, nil, nil, errInvalidHashFormat
	}

	if parts[0] != argon2Variant {
		return Argon2Config{}, nil, nil, fmt.Errorf("argon2: unexpected variant %q", parts[0])
	}
	if parts[1] != argon2Version {
		return Argon2Config{}, nil, nil, fmt.Errorf("argon2: unsupported version %q", parts[1])
	}

	memory, iterations, parallelism, err := parseArgon2Params(parts[2])
	if err != nil {
		return Argon2Config{}, nil, nil, err
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil {
		return Argon2Config{}, nil, nil, fmt.Errorf("argon2: decode salt: %w", err)
	}

	sum, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return Argon2Config{}, nil, nil, fmt.Errorf("argon2: decode hash: %w", err)
	}

	cfg := Argon2Config{
		Memory:      memory,
		Iterations:  iterations,
		Parallelism: parallelism,
		SaltLength:  uint32(len(salt)),
		KeyLength:   uint32(len(sum)),
	}
	if err := validateArgon2Config(cfg); err != nil {
		return Argon2Config{}, nil, nil, err
	}

	return cfg, salt, sum, nil
}

func parseArgon2Params(segment string) (uint32, uint32, uint8, error) {
	entries := strings.Split(segment, ",")
	if len(entries) != 3 {
		return 0, 0, 0, errInvalidHashFormat
	}

	var (
		memory      uint32
		iterations  uint32
		parallelism uint8
	)

	for _, entry := range entries {
		key, value, found := strings.Cut(entry, "=")
		if !found {
			return 0, 0, 0, errInvalidHashFormat
		}

		var bits int
		switch key {
		case "m", "t":
			bits = 32
		case "p":
			bits = 8
		default:
			return 0, 0, 0, errInvalidHashFormat
		}

		v, err := strconv.ParseUint(value, 10, bits)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("argon2: parse %s: %w", key, err)
		}

		switch key {
		case "m":
			memory = uint32(v)
		case "t":
			iterations = uint32(v)
		case "p":
			parallelism = uint8(v)
		}
	}

	return memory, iterations, parallelism, nil
}

// verifyWerkzeugHash checks "pbkdf2:<digest>:<iterations>$salt$hex" and
// "scrypt:<n>:<r>:<p>$salt$hex" hashes.
func verifyWerkzeugHash(password, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 3 {
		return false, errInvalidHashFormat
	}
	method, salt := parts[0], []byte(parts[1])

	expected, err := hex.DecodeString(parts[2])
	if err != nil {
		return false, fmt.Errorf("werkzeug: decode hash: %w", err)
	}

	args := strings.Split(method, ":")
	var computed []byte

	switch args[0] {
	case "pbkdf2":
		if len(args) < 2 {
			return false, errInvalidHashFormat
		}
		iterations := 600000
		if len(args) > 2 {
			if iterations, err = strconv.Atoi(args[2]); err != nil {
				return false, fmt.Errorf("werkzeug: parse iterations: %w", err)
			}
		}
		var digest func() hash.Hash
		switch args[1] {
		case "sha256":
			digest = sha256.New
		case "sha512":
			digest = sha512.New
		case "sha1":
			digest = sha1.New
		default:
			return false, fmt.Errorf("werkzeug: unsupported digest %q", args[1])
		}
		computed = pbkdf2.Key([]byte(password), salt, iterations, len(expected), digest)
	case "scrypt":
		n, r, p := 32768, 8, 1
		if len(args) == 4 {
			if n, err = strconv.Atoi(args[1]); err != nil {
				return false, fmt.Errorf("werkzeug: parse n: %w", err)
			}
			if r, err = strconv.Atoi(args[2]); err != nil {
				return false, fmt.Errorf("werkzeug: parse r: %w", err)
			}
			if p, err = strconv.Atoi(args[3]); err != nil {
				return false, fmt.Errorf("werkzeug: parse p: %w", err)
			}
		}
		computed, err = scrypt.Key([]byte(password), salt, n, r, p, len(expected))
		if err != nil {
			return false, fmt.Errorf("werkzeug: scrypt: %w", err)
		}
	default:
		return false, errInvalidHashFormat
	}

	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}
