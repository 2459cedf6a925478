package models

import (
	"time"

	"gorm.io/datatypes"
)

// Event types
const (
	EventPlayerJoined      = "player_joined"
	EventPlayerLeft        = "player_left"
	EventRoleChange        = "role_change"
	EventPlayerTagged      = "player_tagged"
	EventSabotageDeployed  = "sabotage_deployed"
	EventSabotageTriggered = "sabotage_triggered"
	EventBountyPlaced      = "bounty_placed"
	EventBountyClaimed     = "bounty_claimed"
	EventAllianceJoined    = "alliance_joined"
	EventAllianceLeft      = "alliance_left"
	EventSafeZoneEntered   = "safe_zone_entered"
)

// Event is one row of the append-only game log, ordered by CreatedAt.
// Rows are never updated or deleted.
type Event struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	GameID    uint           `json:"game_id" gorm:"not null;index"`
	Type      string         `json:"type" gorm:"not null"`
	ActorID   uint           `json:"actor_id" gorm:"not null"` // player id
	TargetID  *uint          `json:"target_id,omitempty"`      // player id
	Payload   datatypes.JSON `json:"payload,omitempty"`
	CreatedAt time.Time      `json:"created_at" gorm:"index"`
}
