package entity

import "time"

// Passcode is a stored one-time passcode. CodeDigest is the keyed digest of
// the code, never the code itself.
type Passcode struct {
	ID         string
	Identifier string
	Channel    Channel
	CodeDigest string
	CreatedAt  time.Time
	ExpiresAt  time.Time
	Verified   bool
}

// IsActive reports whether p can still be verified at now.
func (p Passcode) IsActive(now time.Time) bool {
	return !p.Verified && p.ExpiresAt.After(now)
}

// Account is the identity bound to a verified identifier.
type Account struct {
	ID          int64
	Identifier  string
	Channel     Channel
	ConfirmedAt time.Time
	CreatedAt   time.Time
}

const (
	MinTTL     = 5 * time.Minute
	MaxTTL     = 10 * time.Minute
	DefaultTTL = 10 * time.Minute
)

// ClampTTL maps a configured TTL into [MinTTL, MaxTTL]; zero means DefaultTTL.
func ClampTTL(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return DefaultTTL
	case d < MinTTL:
		return MinTTL
	case d > MaxTTL:
		return MaxTTL
	default:
		return d
	}
}
