package services

import (
	"errors"
	"fmt"

	"tagmode/models"

	"gorm.io/gorm"
)

// AllianceService manages mutual-visibility groups. Membership is a pointer
// on the player row; the only behavioral effect of belonging to an alliance
// is exact-coordinate visibility in the proximity scan. An alliance never
// survives its last member.
type AllianceService struct {
	db     *gorm.DB
	events *EventService
}

func NewAllianceService(db *gorm.DB, events *EventService) *AllianceService {
	return &AllianceService{db: db, events: events}
}

type CreateAllianceRequest struct {
	Name string `json:"name"`
}

// Create starts a new alliance with the caller as its first member.
func (s *AllianceService) Create(gameID, userID uint, req *CreateAllianceRequest) (*models.Alliance, error) {
	player, err := findPlayer(s.db, gameID, userID)
	if err != nil {
		return nil, err
	}
	if player.AllianceID != nil {
		return nil, fmt.Errorf("%w: already in an alliance", ErrConflict)
	}

	alliance := models.Alliance{
		GameID:    gameID,
		CreatedBy: player.ID,
	}
	if req != nil {
		alliance.Name = req.Name
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&alliance).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Player{}).Where("id = ?", player.ID).
			Update("alliance_id", alliance.ID).Error; err != nil {
			return err
		}
		return s.events.Append(tx, gameID, models.EventAllianceJoined, player.ID, nil,
			map[string]interface{}{"alliance_id": alliance.ID})
	})
	if err != nil {
		return nil, err
	}

	return &alliance, nil
}

// Join adds the caller to an existing alliance in the same game.
func (s *AllianceService) Join(gameID, allianceID, userID uint) (*models.Alliance, error) {
	player, err := findPlayer(s.db, gameID, userID)
	if err != nil {
		return nil, err
	}
	if player.AllianceID != nil {
		if *player.AllianceID == allianceID {
			// Idempotent re-join
			var alliance models.Alliance
			if err := s.db.Preload("Members").First(&alliance, allianceID).Error; err != nil {
				return nil, err
			}
			return &alliance, nil
		}
		return nil, fmt.Errorf("%w: already in another alliance", ErrConflict)
	}

	var alliance models.Alliance
	if err := s.db.Where("id = ? AND game_id = ?", allianceID, gameID).First(&alliance).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Player{}).Where("id = ?", player.ID).
			Update("alliance_id", alliance.ID).Error; err != nil {
			return err
		}
		return s.events.Append(tx, gameID, models.EventAllianceJoined, player.ID, nil,
			map[string]interface{}{"alliance_id": alliance.ID})
	})
	if err != nil {
		return nil, err
	}

	return &alliance, nil
}

// Leave removes the caller from their alliance, dissolving it when they
// were the last member.
func (s *AllianceService) Leave(gameID, userID uint) error {
	player, err := findPlayer(s.db, gameID, userID)
	if err != nil {
		return err
	}
	if player.AllianceID == nil {
		return fmt.Errorf("%w: not in an alliance", ErrConflict)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		return removeFromAlliance(tx, s.events, player)
	})
}

// removeFromAlliance clears a player's membership inside the caller's
// transaction, deleting the alliance when it would be left empty. Also used
// by the leave-game flow.
func removeFromAlliance(tx *gorm.DB, events *EventService, player *models.Player) error {
	allianceID := *player.AllianceID

	if err := tx.Model(&models.Player{}).Where("id = ?", player.ID).
		Update("alliance_id", nil).Error; err != nil {
		return err
	}

	var remaining int64
	if err := tx.Model(&models.Player{}).Where("alliance_id = ?", allianceID).
		Count(&remaining).Error; err != nil {
		return err
	}
	if remaining == 0 {
		if err := tx.Delete(&models.Alliance{}, allianceID).Error; err != nil {
			return err
		}
	}

	return events.Append(tx, player.GameID, models.EventAllianceLeft, player.ID, nil,
		map[string]interface{}{"alliance_id": allianceID, "dissolved": remaining == 0})
}
