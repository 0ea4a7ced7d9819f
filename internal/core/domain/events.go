package domain

import "time"

// UserBannedEvent represents the payload for crop.user.banned messages.
type UserBannedEvent struct {
	EventID         string
	UserID          int64
	BannedBy        int64
	Kind            BanKind
	Until           *time.Time
	Reason          string
	BannedAt        time.Time
	SessionsRevoked int
}

// UserUnbannedEvent represents the payload for crop.user.unbanned messages.
type UserUnbannedEvent struct {
	EventID    string
	UserID     int64
	UnbannedBy int64
	UnbannedAt time.Time
}

// UserDeletedEvent represents the payload for crop.user.deleted messages.
type UserDeletedEvent struct {
	EventID   string
	UserID    int64
	DeletedBy int64
	SelfServe bool
	DeletedAt time.Time
}

// AccountLockedOutEvent represents the payload for crop.auth.locked_out messages.
// Identifier is masked before it leaves the process.
type AccountLockedOutEvent struct {
	EventID    string
	Identifier string
	ClientIP   string
	LockedAt   time.Time
	Until      time.Time
}
