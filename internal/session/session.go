package session

import "time"

// Status is the tracked authentication/health state of a channel.
type Status string

const (
	StatusConnected   Status = "connected"
	StatusExpired     Status = "expired"
	StatusBlocked     Status = "blocked"
	StatusUnknown     Status = "unknown"
	StatusRateLimited Status = "rate_limited"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusConnected, StatusExpired, StatusBlocked, StatusUnknown, StatusRateLimited:
		return true
	}
	return false
}

// Record is the single session row tracked per channel.
type Record struct {
	ChannelID           string     `json:"channel_id" db:"channel_id"`
	Status              Status     `json:"status" db:"status"`
	LastCheckedAt       time.Time  `json:"last_checked_at" db:"last_checked_at"`
	LastAuthenticatedAt *time.Time `json:"last_authenticated_at" db:"last_authenticated_at"`
	FailureCount        int        `json:"failure_count" db:"failure_count"`
	Notes               string     `json:"notes" db:"notes"`
}

// Next computes the session record that results from a status report.
// prev may be nil when the channel has never been checked.
//
// A connected report sets LastAuthenticatedAt to now and resets
// FailureCount; any other report preserves LastAuthenticatedAt and
// increments FailureCount. This holds for every update, including
// repeated connected reports (the auth timestamp keeps advancing) and
// transitions between non-connected states.
func Next(prev *Record, channelID string, status Status, notes string, now time.Time) Record {
	next := Record{
		ChannelID:     channelID,
		Status:        status,
		LastCheckedAt: now,
		Notes:         notes,
	}

	if status == StatusConnected {
		authAt := now
		next.LastAuthenticatedAt = &authAt
		next.FailureCount = 0
		return next
	}

	if prev != nil {
		next.LastAuthenticatedAt = prev.LastAuthenticatedAt
		next.FailureCount = prev.FailureCount + 1
	} else {
		next.FailureCount = 1
	}
	return next
}
