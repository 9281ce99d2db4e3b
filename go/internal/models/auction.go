package models

import (
	"encoding/json"
	"time"
)

// AuctionState is derived from the deadline and the current time. It is never stored.
type AuctionState string

const (
	AuctionStatePending AuctionState = "PENDING"
	AuctionStateRunning AuctionState = "RUNNING"
	AuctionStateEnded   AuctionState = "ENDED"
)

// AuctionSession is the single server-owned auction record.
type AuctionSession struct {
	Deadline  *time.Time `json:"deadline"`
	Version   int64      `json:"version"`
	Label     string     `json:"label,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
	UpdatedBy string     `json:"updated_by,omitempty"`
}

// StateAt derives the auction state at the given instant.
func (s AuctionSession) StateAt(now time.Time) AuctionState {
	return DeriveState(s.Deadline, now)
}

// DeriveState returns ENDED iff now >= deadline, PENDING when no deadline was ever set.
func DeriveState(deadline *time.Time, now time.Time) AuctionState {
	if deadline == nil {
		return AuctionStatePending
	}
	if !now.Before(*deadline) {
		return AuctionStateEnded
	}
	return AuctionStateRunning
}

// Snapshot is the point-in-time view handed to countdown readers.
// Clients compute the remaining time from Deadline - ServerTime plus their own elapsed time.
type Snapshot struct {
	ServerTime time.Time    `json:"server_time"`
	Deadline   *time.Time   `json:"deadline"`
	Version    int64        `json:"version"`
	State      AuctionState `json:"state"`
	Label      string       `json:"label,omitempty"`
}

// NewSnapshot stamps a session with the server time it was read at.
func NewSnapshot(session AuctionSession, serverTime time.Time) Snapshot {
	snap := Snapshot{
		ServerTime: serverTime.UTC(),
		Version:    session.Version,
		State:      session.StateAt(serverTime),
		Label:      session.Label,
	}
	if session.Deadline != nil {
		d := session.Deadline.UTC()
		snap.Deadline = &d
	}
	return snap
}

// RemainingAt returns the time left on the snapshot's deadline, clamped at zero,
// after elapsed local time has passed since the snapshot was fetched.
func (s Snapshot) RemainingAt(elapsed time.Duration) time.Duration {
	if s.Deadline == nil {
		return 0
	}
	remaining := s.Deadline.Sub(s.ServerTime) - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// SessionChange is one committed mutation of the auction session.
type SessionChange struct {
	ID        string          `json:"id"`
	Version   int64           `json:"version"`
	Deadline  time.Time       `json:"deadline"`
	Label     string          `json:"label,omitempty"`
	Actor     string          `json:"actor"`
	Operation string          `json:"operation"`
	Details   json.RawMessage `json:"details,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
