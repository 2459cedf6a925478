package services

import (
	"encoding/json"
	"fmt"

	"tagmode/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EventService owns the append-only game log. Every state transition in a
// game lands here; rows are never updated or deleted.
type EventService struct {
	db *gorm.DB
}

func NewEventService(db *gorm.DB) *EventService {
	return &EventService{db: db}
}

// Append writes one event row. When tx is non-nil the append joins the
// caller's transaction so the event and the mutation it records commit or
// roll back together.
func (s *EventService) Append(tx *gorm.DB, gameID uint, eventType string, actorID uint, targetID *uint, payload interface{}) error {
	db := tx
	if db == nil {
		db = s.db
	}

	event := models.Event{
		GameID:   gameID,
		Type:     eventType,
		ActorID:  actorID,
		TargetID: targetID,
	}

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal event payload: %w", err)
		}
		event.Payload = datatypes.JSON(data)
	}

	return db.Create(&event).Error
}

// Recent returns up to limit events for a game, newest first. The log is
// readable by the game's participants only.
func (s *EventService) Recent(gameID, userID uint, limit int) ([]models.Event, error) {
	if _, err := findPlayer(s.db, gameID, userID); err != nil {
		return nil, err
	}

	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var events []models.Event
	err := s.db.Where("game_id = ?", gameID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}
