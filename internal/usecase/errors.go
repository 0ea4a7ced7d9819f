package usecase

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Krishna2005-yadav/Crop-System/internal/core/domain"
)

var (
	// ErrUnauthenticated indicates the request carries no live session.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidCredentials indicates the email or password did not match. It
	// never discloses which of the two was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrStoreUnavailable marks failures of an external store (Postgres, Redis).
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrAccountExists indicates the email or username is already registered.
	ErrAccountExists = errors.New("email or username already exists")
	// ErrUserNotFound indicates the referenced account does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrDetectionNotFound indicates the detection is missing or outside the caller's scope.
	ErrDetectionNotFound = errors.New("detection not found")
	// ErrSelfDelete indicates an administrator tried to delete their own account.
	ErrSelfDelete = errors.New("cannot delete your own account")
	// ErrSelfBan indicates an administrator tried to ban their own account.
	ErrSelfBan = errors.New("cannot ban your own account")
	// ErrIncorrectPassword indicates the current password supplied for a change did not verify.
	ErrIncorrectPassword = errors.New("current password is incorrect")
	// ErrUnknownStatusAction indicates an unsupported admin status action.
	ErrUnknownStatusAction = errors.New("invalid action")
	// ErrModelUnavailable indicates a prediction model could not produce a result.
	ErrModelUnavailable = errors.New("prediction model unavailable")
)

// ValidationError is re-exported so transport code needs only this package for error mapping.
type ValidationError = domain.ValidationError

// ForbiddenReason classifies authorization denials.
type ForbiddenReason string

const (
	ReasonBanned        ForbiddenReason = "banned"
	ReasonAdminRequired ForbiddenReason = "admin_required"
)

// ForbiddenError is an authorization denial. For bans it carries the ban
// details so both the API and interactive surfaces can explain them.
type ForbiddenError struct {
	Reason    ForbiddenReason
	Message   string
	Permanent bool
	Until     time.Time
	BanReason string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("forbidden (%s): %s", e.Reason, e.Message)
}

// NewBanError converts a denying ban decision into a ForbiddenError.
func NewBanError(decision domain.BanDecision) *ForbiddenError {
	return &ForbiddenError{
		Reason:    ReasonBanned,
		Message:   decision.Message(),
		Permanent: decision.Permanent,
		Until:     decision.Until,
		BanReason: decision.Reason,
	}
}

// ErrAdminRequired is returned when an admin-gated operation is attempted by a non-admin.
var ErrAdminRequired = &ForbiddenError{Reason: ReasonAdminRequired, Message: "Admin privileges required"}

// RateLimitedError reports that an operation exceeded its rate limit.
type RateLimitedError struct {
	Operation  string
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s, retry after %ds", e.Operation, RetrySeconds(e.RetryAfter))
}

// LockedOutError reports that an identifier is locked out after repeated failures.
type LockedOutError struct {
	Remaining time.Duration
}

func (e *LockedOutError) Error() string {
	return fmt.Sprintf("too many failed login attempts, try again in %d seconds", RetrySeconds(e.Remaining))
}

// RetrySeconds rounds a wait up to whole seconds so clients never retry early.
func RetrySeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

func storeError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
