package model

import "time"

// Visibility controls whether a profile appears on the public leaderboard.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Profile is the owner of a ledger.
type Profile struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	DisplayName string     `json:"displayName"`
	Visibility  Visibility `json:"visibility"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// LeaderboardRow is one ranked owner. ReturnPct is a percentage (5 means 5%)
// and is nil for owners without a return yet.
type LeaderboardRow struct {
	Rank        int      `json:"rank"`
	OwnerID     string   `json:"ownerId"`
	Username    string   `json:"username"`
	DisplayName string   `json:"displayName"`
	ReturnPct   *float64 `json:"returnPct"`
}
