package services

import (
	"errors"
	"fmt"
	"time"

	"tagmode/geo"
	"tagmode/models"

	"gorm.io/gorm"
)

// Sabotage effect tuning.
const (
	PointDrainAmount  = 50
	SpeedTrapFactor   = 0.5
	SpeedTrapDuration = 2 * time.Minute
	ScrambleDuration  = 2 * time.Minute

	defaultSabotageTTL = 10 * time.Minute
	maxSabotageTTL     = time.Hour
)

// SabotageService deploys geofenced traps and evaluates triggers on every
// location update. A trap fires for exactly one player: the conditional
// update on the untriggered row decides the winner, and the effect plus the
// log event commit in the same transaction as the flip.
type SabotageService struct {
	db     *gorm.DB
	events *EventService
}

func NewSabotageService(db *gorm.DB, events *EventService) *SabotageService {
	return &SabotageService{db: db, events: events}
}

type DeploySabotageRequest struct {
	Type         string   `json:"type" binding:"required"`
	Lat          *float64 `json:"lat" binding:"required"`
	Lon          *float64 `json:"lon" binding:"required"`
	RadiusMeters float64  `json:"radius_meters" binding:"required"`
	TTLSeconds   int      `json:"ttl_seconds"`
}

type TriggeredSabotage struct {
	SabotageID uint   `json:"sabotage_id"`
	Type       string `json:"type"`
	Effect     string `json:"effect"`
}

func (s *SabotageService) Deploy(gameID, userID uint, req *DeploySabotageRequest) (*models.Sabotage, error) {
	if req == nil || req.Lat == nil || req.Lon == nil {
		return nil, fmt.Errorf("%w: lat and lon are required", ErrInvalidInput)
	}
	if !models.ValidSabotageType(req.Type) {
		return nil, fmt.Errorf("%w: unknown sabotage type %q", ErrInvalidInput, req.Type)
	}
	if req.RadiusMeters <= 0 {
		return nil, fmt.Errorf("%w: radius must be positive", ErrInvalidInput)
	}

	player, err := findPlayer(s.db, gameID, userID)
	if err != nil {
		return nil, err
	}

	var game models.Game
	if err := s.db.First(&game, gameID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if game.Status == models.GameStatusEnded {
		return nil, ErrGameEnded
	}

	ttl := time.Duration(req.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = defaultSabotageTTL
	}
	if ttl > maxSabotageTTL {
		ttl = maxSabotageTTL
	}

	sabotage := models.Sabotage{
		GameID:       gameID,
		DeployedBy:   player.ID,
		Type:         req.Type,
		Lat:          *req.Lat,
		Lon:          *req.Lon,
		RadiusMeters: req.RadiusMeters,
		ExpiresAt:    time.Now().Add(ttl),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&sabotage).Error; err != nil {
			return err
		}
		// The trap's position stays out of the event payload; the log is
		// readable by every participant.
		return s.events.Append(tx, gameID, models.EventSabotageDeployed, player.ID, nil,
			map[string]interface{}{"type": sabotage.Type, "expires_at": sabotage.ExpiresAt})
	})
	if err != nil {
		return nil, err
	}

	return &sabotage, nil
}

// ListDeployed returns the caller's own active, untriggered sabotages.
func (s *SabotageService) ListDeployed(gameID, userID uint) ([]models.Sabotage, error) {
	player, err := findPlayer(s.db, gameID, userID)
	if err != nil {
		return nil, err
	}

	var sabotages []models.Sabotage
	err = s.db.Where(
		"game_id = ? AND deployed_by = ? AND triggered = ? AND expires_at > ?",
		gameID, player.ID, false, time.Now(),
	).Order("id").Find(&sabotages).Error
	return sabotages, err
}

// CheckTriggers fires every live trap whose radius covers the player's new
// fix. Traps deployed by the player never fire for them, and a player
// inside an active safe zone cannot trigger anything. Losing a trigger
// race is silent: the row is already flipped and the walker just moves on.
func (s *SabotageService) CheckTriggers(gameID uint, player *models.Player, lat, lon float64, inSafeZone bool) ([]TriggeredSabotage, error) {
	if inSafeZone {
		return nil, nil
	}

	now := time.Now()
	var candidates []models.Sabotage
	if err := s.db.Where(
		"game_id = ? AND deployed_by <> ? AND triggered = ? AND expires_at > ?",
		gameID, player.ID, false, now,
	).Order("id").Find(&candidates).Error; err != nil {
		return nil, err
	}

	triggered := []TriggeredSabotage{}
	for i := range candidates {
		sab := &candidates[i]
		if geo.Distance(lat, lon, sab.Lat, sab.Lon) > sab.RadiusMeters {
			continue
		}

		var effect string
		err := s.db.Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&models.Sabotage{}).
				Where("id = ? AND triggered = ?", sab.ID, false).
				Updates(map[string]interface{}{
					"triggered":    true,
					"triggered_by": player.ID,
					"triggered_at": now,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// Lost the race; not an error for this walker.
				return errLostTriggerRace
			}

			var err error
			effect, err = applyEffect(tx, sab, player.ID, now)
			if err != nil {
				return err
			}

			return s.events.Append(tx, gameID, models.EventSabotageTriggered, player.ID, &sab.DeployedBy,
				map[string]interface{}{"sabotage_id": sab.ID, "type": sab.Type, "effect": effect})
		})
		if errors.Is(err, errLostTriggerRace) {
			continue
		}
		if err != nil {
			return triggered, err
		}

		triggered = append(triggered, TriggeredSabotage{
			SabotageID: sab.ID,
			Type:       sab.Type,
			Effect:     effect,
		})
	}

	return triggered, nil
}

var errLostTriggerRace = errors.New("sabotage already triggered")

// applyEffect applies the type-specific effect to the triggering player
// inside the trigger transaction. The switch is exhaustive over the closed
// type enumeration.
func applyEffect(tx *gorm.DB, sab *models.Sabotage, playerID uint, now time.Time) (string, error) {
	switch sab.Type {
	case models.SabotagePointDrain:
		var p models.Player
		if err := tx.First(&p, playerID).Error; err != nil {
			return "", err
		}
		score := p.Score - PointDrainAmount
		if score < 0 {
			score = 0
		}
		if err := tx.Model(&models.Player{}).Where("id = ?", playerID).
			Update("score", score).Error; err != nil {
			return "", err
		}
		return fmt.Sprintf("score -%d", p.Score-score), nil

	case models.SabotageSpeedTrap:
		until := now.Add(SpeedTrapDuration)
		if err := tx.Model(&models.Player{}).Where("id = ?", playerID).
			Updates(map[string]interface{}{
				"speed_penalty_until":  until,
				"speed_penalty_factor": SpeedTrapFactor,
			}).Error; err != nil {
			return "", err
		}
		return fmt.Sprintf("challenge timers x%.1f until %s", SpeedTrapFactor, until.Format(time.RFC3339)), nil

	case models.SabotageDecoyChallenge, models.SabotageChallengeIntercept:
		if err := tx.Model(&models.Player{}).Where("id = ?", playerID).
			Update("next_challenge_flag", sab.Type).Error; err != nil {
			return "", err
		}
		return "next challenge flagged: " + sab.Type, nil

	case models.SabotageLocationScramble:
		until := now.Add(ScrambleDuration)
		if err := tx.Model(&models.Player{}).Where("id = ?", playerID).
			Update("scramble_until", until).Error; err != nil {
			return "", err
		}
		return "location scrambled until " + until.Format(time.RFC3339), nil

	default:
		return "", fmt.Errorf("unhandled sabotage type %q", sab.Type)
	}
}
