package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultTotalSlots is the number of team slots an auction offers unless configured otherwise.
const DefaultTotalSlots = 12

// Team represents a team taking part in the auction
type Team struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Owner           string    `json:"owner"`
	CoOwnerName     *string   `json:"coowner_name,omitempty"`
	Batch           string    `json:"batch"`
	Price           float64   `json:"price"`
	NumberOfMembers int       `json:"number_of_members"`
	LogoFilename    *string   `json:"logo_filename,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// SlotInfo describes how many team slots are taken.
type SlotInfo struct {
	TotalSlots     int `json:"total_slots"`
	FilledSlots    int `json:"filled_slots"`
	RemainingSlots int `json:"remaining_slots"`
}

// NewSlotInfo computes slot usage from the configured total and the current team count.
func NewSlotInfo(total, teams int) SlotInfo {
	remaining := total - teams
	if remaining < 0 {
		remaining = 0
	}
	return SlotInfo{
		TotalSlots:     total,
		FilledSlots:    teams,
		RemainingSlots: remaining,
	}
}
