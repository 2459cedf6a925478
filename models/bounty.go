package models

import (
	"time"
)

// Bounty is a point wager on a target player. The reward is escrowed from
// the placer's score at placement. Claimed transitions false->true exactly
// once under a conditional update; expired unclaimed bounties simply stop
// appearing in active listings and forfeit the escrow.
type Bounty struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	GameID    uint      `json:"game_id" gorm:"not null;index"`
	TargetID  uint      `json:"target_id" gorm:"not null"` // player id
	PlacedBy  uint      `json:"placed_by" gorm:"not null"` // player id
	Reward    int       `json:"reward" gorm:"not null"`
	Reason    string    `json:"reason,omitempty"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null;index"`
	Claimed   bool      `json:"claimed" gorm:"not null;default:false"`
	ClaimedBy *uint     `json:"claimed_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
