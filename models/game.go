package models

import (
	"time"

	"gorm.io/gorm"
)

// Game modes
const (
	ModeHunterHunted = "hunter_hunted"
	ModeAlliance     = "alliance"
)

// Game statuses
const (
	GameStatusWaiting = "waiting"
	GameStatusActive  = "active"
	GameStatusEnded   = "ended"
)

type Game struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	HuntID          uint           `json:"hunt_id" gorm:"not null;index"`
	HostID          uint           `json:"host_id" gorm:"not null"`
	Mode            string         `json:"mode" gorm:"not null;default:'hunter_hunted'"` // hunter_hunted, alliance
	Status          string         `json:"status" gorm:"not null;default:'waiting'"`     // waiting, active, ended
	MaxPlayers      int            `json:"max_players" gorm:"not null;default:20"`
	ProximityRadius float64        `json:"proximity_radius_m" gorm:"not null;default:500"`
	TagRadius       float64        `json:"tag_radius_m" gorm:"not null;default:25"`
	CurrentHunterID *uint          `json:"current_hunter_id"`
	StartedAt       *time.Time     `json:"started_at"`
	EndedAt         *time.Time     `json:"ended_at"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Players []Player `json:"players,omitempty" gorm:"foreignKey:GameID"`
}
