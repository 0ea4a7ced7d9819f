package security

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Krishna2005-yadav/Crop-System/internal/core/domain"
)

// Reason classifies why a value failed validation.
type Reason string

const (
	ReasonRequired         Reason = "required"
	ReasonInvalidFormat    Reason = "invalid_format"
	ReasonDisposableDomain Reason = "disposable_domain"
	ReasonTooShort         Reason = "too_short"
	ReasonTooLong          Reason = "too_long"
	ReasonTooCommon        Reason = "too_common"
	ReasonInvalidChars     Reason = "invalid_chars"
)

// Result is a validation outcome. Policy violations are results, not errors.
type Result struct {
	Valid   bool
	Reason  Reason
	Message string
}

var passed = Result{Valid: true}

func fail(reason Reason, message string) Result {
	return Result{Reason: reason, Message: message}
}

// Err converts a failed result into a *domain.ValidationError for field, or nil.
func (r Result) Err(field string) error {
	if r.Valid {
		return nil
	}
	return domain.NewValidationError(field, r.Message)
}

// Rule validates a single aspect of a value.
type Rule interface {
	Check(value string) Result
}

// RuleFunc adapts a function to be used as a Rule.
type RuleFunc func(value string) Result

// Check executes the underlying rule function.
func (f RuleFunc) Check(value string) Result {
	return f(value)
}

// Validator applies rules in order and stops at the first violation.
type Validator struct {
	rules []Rule
}

// NewValidator constructs a validator with the provided rules.
func NewValidator(rules ...Rule) *Validator {
	copied := make([]Rule, len(rules))
	copy(copied, rules)
	return &Validator{rules: copied}
}

// Validate runs every rule and returns the first failure.
func (v *Validator) Validate(value string) Result {
	for _, rule := range v.rules {
		if res := rule.Check(value); !res.Valid {
			return res
		}
	}
	return passed
}

var (
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

	disposableDomains = map[string]struct{}{
		"tempmail.com": {}, "guerrillamail.com": {}, "10minutemail.com": {}, "mailinator.com": {},
		"throwaway.email": {}, "fakeinbox.com": {}, "trashmail.com": {}, "temp-mail.org": {},
		"getnada.com": {}, "maildrop.cc": {}, "discard.email": {}, "emailondeck.com": {},
		"mohmal.com": {}, "yopmail.com": {}, "sharklasers.com": {}, "guerrillamail.info": {},
	}

	commonPasswords = map[string]struct{}{
		"password": {}, "password1": {}, "123456": {}, "12345678": {}, "qwerty": {},
		"abc123": {}, "admin": {}, "letmein": {}, "welcome": {}, "monkey": {},
	}
)

// RequiredRule rejects empty values.
func RequiredRule(message string) Rule {
	return RuleFunc(func(value string) Result {
		if value == "" {
			return fail(ReasonRequired, message)
		}
		return passed
	})
}

// LengthRule bounds the rune length of a value. A zero bound is ignored.
func LengthRule(min, max int, tooShort, tooLong Result) Rule {
	return RuleFunc(func(value string) Result {
		n := utf8.RuneCountInString(value)
		if min > 0 && n < min {
			return tooShort
		}
		if max > 0 && n > max {
			return tooLong
		}
		return passed
	})
}

// PatternRule requires value to match re.
func PatternRule(re *regexp.Regexp, reason Reason, message string) Rule {
	return RuleFunc(func(value string) Result {
		if !re.MatchString(value) {
			return fail(reason, message)
		}
		return passed
	})
}

// DisposableDomainRule rejects addresses hosted by throwaway mail providers.
func DisposableDomainRule() Rule {
	return RuleFunc(func(value string) Result {
		at := strings.LastIndexByte(value, '@')
		if at < 0 {
			return passed
		}
		if _, found := disposableDomains[strings.ToLower(value[at+1:])]; found {
			return fail(ReasonDisposableDomain, "Disposable email addresses are not allowed")
		}
		return passed
	})
}

// CommonPasswordRule rejects well-known weak passwords, ignoring case.
func CommonPasswordRule() Rule {
	return RuleFunc(func(value string) Result {
		if _, found := commonPasswords[strings.ToLower(value)]; found {
			return fail(ReasonTooCommon, "Password is too common. Please choose a stronger password.")
		}
		return passed
	})
}

var (
	emailValidator = NewValidator(
		RequiredRule("Email is required"),
		LengthRule(0, 254, passed, fail(ReasonInvalidFormat, "Email is too long")),
		PatternRule(emailPattern, ReasonInvalidFormat, "Invalid email format"),
		DisposableDomainRule(),
	)

	passwordValidator = NewValidator(
		RequiredRule("Password is required"),
		LengthRule(8, 128,
			fail(ReasonTooShort, "Password must be at least 8 characters long"),
			fail(ReasonTooLong, "Password is too long"),
		),
		CommonPasswordRule(),
	)

	usernameValidator = NewValidator(
		RequiredRule("Username is required"),
		LengthRule(3, 30,
			fail(ReasonTooShort, "Username must be at least 3 characters long"),
			fail(ReasonTooLong, "Username is too long"),
		),
		PatternRule(usernamePattern, ReasonInvalidChars, "Username can only contain letters, numbers, and underscores"),
	)
)

// ValidateEmail checks shape and rejects disposable domains.
func ValidateEmail(email string) Result {
	return emailValidator.Validate(email)
}

// ValidatePassword checks length bounds and the common-password list.
func ValidatePassword(password string) Result {
	return passwordValidator.Validate(password)
}

// ValidateUsername checks length bounds and the allowed character set.
func ValidateUsername(username string) Result {
	return usernameValidator.Validate(username)
}

// NormalizeEmail is the canonical login identifier for an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
