package models

import (
	"time"
)

// Alliance groups players for mutual location visibility. Membership lives
// on Player.AllianceID; an alliance is deleted when its last member leaves,
// so a persisted alliance always has at least one member.
type Alliance struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	GameID    uint      `json:"game_id" gorm:"not null;index"`
	Name      string    `json:"name"`
	CreatedBy uint      `json:"created_by" gorm:"not null"` // player id
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Members []Player `json:"members,omitempty" gorm:"foreignKey:AllianceID"`
}
