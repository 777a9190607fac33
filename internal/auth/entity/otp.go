package entity

import "time"

// OtpChallenge is one lineage of OTP state for an (identifier, purpose) pair.
// A lineage survives resends: each resend replaces the code and bumps
// ResendCount, while Version guards concurrent writers.
type OtpChallenge struct {
	ID           string
	Identifier   string
	Purpose      OtpPurpose
	Code         string
	Attempts     int
	ResendCount  int
	CreatedAt    time.Time
	ExpiresAt    time.Time
	BlockedUntil *time.Time
	Version      int64
}

// IsExpired reports whether the current code can no longer be verified.
func (c OtpChallenge) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// IsBlocked reports whether the lineage is under an active lockout.
func (c OtpChallenge) IsBlocked(now time.Time) bool {
	return c.BlockedUntil != nil && now.Before(*c.BlockedUntil)
}
