package models

import (
	"time"
)

// Sabotage types. The enumeration is closed: every type has a distinct
// effect applied exactly once at trigger time, and the sabotage engine
// switches exhaustively over these values.
const (
	SabotagePointDrain         = "point_drain"
	SabotageSpeedTrap          = "speed_trap"
	SabotageDecoyChallenge     = "decoy_challenge"
	SabotageChallengeIntercept = "challenge_intercept"
	SabotageLocationScramble   = "location_scramble"
)

// ValidSabotageType reports whether t names a known sabotage type.
func ValidSabotageType(t string) bool {
	switch t {
	case SabotagePointDrain, SabotageSpeedTrap, SabotageDecoyChallenge,
		SabotageChallengeIntercept, SabotageLocationScramble:
		return true
	}
	return false
}

// Sabotage is a geofenced trap. Triggered transitions false->true exactly
// once; the transition is guarded by a conditional update so concurrent
// walkers race for a single winner.
type Sabotage struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	GameID       uint       `json:"game_id" gorm:"not null;index"`
	DeployedBy   uint       `json:"deployed_by" gorm:"not null"` // player id
	Type         string     `json:"type" gorm:"not null"`
	Lat          float64    `json:"lat" gorm:"not null"`
	Lon          float64    `json:"lon" gorm:"not null"`
	RadiusMeters float64    `json:"radius_meters" gorm:"not null"`
	ExpiresAt    time.Time  `json:"expires_at" gorm:"not null;index"`
	Triggered    bool       `json:"triggered" gorm:"not null;default:false"`
	TriggeredBy  *uint      `json:"triggered_by,omitempty"`
	TriggeredAt  *time.Time `json:"triggered_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
