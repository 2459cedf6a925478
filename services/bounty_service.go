package services

import (
	"errors"
	"fmt"
	"time"

	"tagmode/models"

	"gorm.io/gorm"
)

// MinBountyReward is the smallest wager the board accepts.
const MinBountyReward = 10

const defaultBountyTTL = 30 * time.Minute

// BountyService runs the point-wagering sub-ledger. The reward is escrowed
// from the placer at placement, so a placer can never commit points twice;
// an expired unclaimed bounty forfeits the escrow. Claiming is a
// conditional update on the unclaimed row, so concurrent claims resolve to
// exactly one winner.
type BountyService struct {
	db     *gorm.DB
	events *EventService
}

func NewBountyService(db *gorm.DB, events *EventService) *BountyService {
	return &BountyService{db: db, events: events}
}

type PlaceBountyRequest struct {
	TargetID   uint   `json:"target_id" binding:"required"`
	Reward     int    `json:"reward" binding:"required"`
	Reason     string `json:"reason"`
	TTLSeconds int    `json:"ttl_seconds"`
}

func (s *BountyService) Place(gameID, userID uint, req *PlaceBountyRequest) (*models.Bounty, error) {
	if req.Reward < MinBountyReward {
		return nil, fmt.Errorf("%w: reward below minimum of %d", ErrInvalidInput, MinBountyReward)
	}

	placer, err := findPlayer(s.db, gameID, userID)
	if err != nil {
		return nil, err
	}
	if req.TargetID == placer.ID {
		return nil, fmt.Errorf("%w: cannot place a bounty on yourself", ErrInvalidInput)
	}

	var target models.Player
	if err := s.db.Where("id = ? AND game_id = ?", req.TargetID, gameID).First(&target).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	ttl := time.Duration(req.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = defaultBountyTTL
	}
	now := time.Now()

	bounty := models.Bounty{
		GameID:    gameID,
		TargetID:  target.ID,
		PlacedBy:  placer.ID,
		Reward:    req.Reward,
		Reason:    req.Reason,
		ExpiresAt: now.Add(ttl),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var active int64
		if err := tx.Model(&models.Bounty{}).Where(
			"game_id = ? AND target_id = ? AND claimed = ? AND expires_at > ?",
			gameID, target.ID, false, now,
		).Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return fmt.Errorf("%w: an active bounty already targets this player", ErrConflict)
		}

		// Escrow: debit the wager up front. The score guard keeps a racing
		// placer from over-committing.
		res := tx.Model(&models.Player{}).
			Where("id = ? AND score >= ?", placer.ID, req.Reward).
			Update("score", gorm.Expr("score - ?", req.Reward))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInsufficientScore
		}

		if err := tx.Create(&bounty).Error; err != nil {
			return err
		}
		return s.events.Append(tx, gameID, models.EventBountyPlaced, placer.ID, &target.ID,
			map[string]interface{}{"bounty_id": bounty.ID, "reward": bounty.Reward, "reason": bounty.Reason})
	})
	if err != nil {
		return nil, err
	}

	return &bounty, nil
}

// Claim credits the reward to the claimer. Exactly one claim can win; the
// target cannot claim their own bounty, and expired bounties award nothing.
func (s *BountyService) Claim(gameID, bountyID, userID uint) (*models.Bounty, error) {
	claimer, err := findPlayer(s.db, gameID, userID)
	if err != nil {
		return nil, err
	}

	var bounty models.Bounty
	if err := s.db.Where("id = ? AND game_id = ?", bountyID, gameID).First(&bounty).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if bounty.TargetID == claimer.ID {
		return nil, fmt.Errorf("%w: the target cannot claim their own bounty", ErrInvalidInput)
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Bounty{}).
			Where("id = ? AND claimed = ? AND expires_at > ?", bounty.ID, false, now).
			Updates(map[string]interface{}{
				"claimed":    true,
				"claimed_by": claimer.ID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: bounty already claimed or expired", ErrConflict)
		}

		if err := tx.Model(&models.Player{}).Where("id = ?", claimer.ID).
			Update("score", gorm.Expr("score + ?", bounty.Reward)).Error; err != nil {
			return err
		}
		return s.events.Append(tx, gameID, models.EventBountyClaimed, claimer.ID, &bounty.TargetID,
			map[string]interface{}{"bounty_id": bounty.ID, "reward": bounty.Reward})
	})
	if err != nil {
		return nil, err
	}

	bounty.Claimed = true
	bounty.ClaimedBy = &claimer.ID
	return &bounty, nil
}

// ListActive returns unclaimed, unexpired bounties for the game,
// participants only. Expiry is purely this read-time filter; nothing is
// deleted.
func (s *BountyService) ListActive(gameID, userID uint) ([]models.Bounty, error) {
	if _, err := findPlayer(s.db, gameID, userID); err != nil {
		return nil, err
	}

	var bounties []models.Bounty
	err := s.db.Where(
		"game_id = ? AND claimed = ? AND expires_at > ?",
		gameID, false, time.Now(),
	).Order("id").Find(&bounties).Error
	return bounties, err
}
