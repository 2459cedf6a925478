package models

import (
	"time"
)

// Player roles
const (
	RoleHunter = "hunter"
	RoleHunted = "hunted"
)

// Player rows are hard-deleted on leave, so there is no DeletedAt column.
// Location fields and effect state are never serialized: the only way exact
// coordinates leave the engine is the alliance-gated proximity response.
type Player struct {
	ID                 uint       `json:"id" gorm:"primaryKey"`
	GameID             uint       `json:"game_id" gorm:"not null;uniqueIndex:idx_players_game_user"`
	UserID             uint       `json:"user_id" gorm:"not null;uniqueIndex:idx_players_game_user"`
	Role               string     `json:"role" gorm:"not null;default:'hunted'"` // hunter, hunted
	LastLat            *float64   `json:"-"`
	LastLon            *float64   `json:"-"`
	LocationUpdatedAt  *time.Time `json:"-"`
	ZoneKey            string     `json:"-"`
	ZoneUpdatedAt      *time.Time `json:"-"`
	AllianceID         *uint      `json:"alliance_id,omitempty" gorm:"index"`
	StealthUntil       *time.Time `json:"-"`
	SpeedPenaltyUntil  *time.Time `json:"-"`
	SpeedPenaltyFactor float64    `json:"-"`
	ScrambleUntil      *time.Time `json:"-"`
	NextChallengeFlag  string     `json:"-"`
	Score              int        `json:"score" gorm:"not null;default:0"`
	JoinedAt           time.Time  `json:"joined_at"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`

	// Relationships
	Game Game `json:"-"`
}

// InStealth reports whether the player is hidden from proximity scans at t.
func (p *Player) InStealth(t time.Time) bool {
	return p.StealthUntil != nil && p.StealthUntil.After(t)
}

// Scrambled reports whether the player's outgoing proximity data is flagged
// as noised at t.
func (p *Player) Scrambled(t time.Time) bool {
	return p.ScrambleUntil != nil && p.ScrambleUntil.After(t)
}
