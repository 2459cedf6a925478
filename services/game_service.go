package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"tagmode/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// TagPoints is awarded to a hunter for a successful tag.
const TagPoints = 100

// StealthGrace is how long a freshly tagged-out hunter stays hidden from
// proximity scans, so the new hunter cannot instantly turn around.
const StealthGrace = 2 * time.Minute

const liveStateTTL = 2 * time.Hour

// GameService owns the game and player lifecycle: creating, starting and
// ending games, join/leave with hunter reassignment, and tagging. Hunter
// selection goes through the injected rand source so tests can seed it;
// the policy is uniform random over remaining active players.
type GameService struct {
	db     *gorm.DB
	redis  *redis.Client
	events *EventService

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewGameService(db *gorm.DB, redisClient *redis.Client, events *EventService, rng *rand.Rand) *GameService {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &GameService{
		db:     db,
		redis:  redisClient,
		events: events,
		rng:    rng,
	}
}

type CreateGameRequest struct {
	HuntID          uint    `json:"hunt_id" binding:"required"`
	Mode            string  `json:"mode"`
	MaxPlayers      int     `json:"max_players"`
	ProximityRadius float64 `json:"proximity_radius_m"`
	TagRadius       float64 `json:"tag_radius_m"`
}

type TagRequest struct {
	TargetID uint `json:"target_id" binding:"required"`
}

type TagResult struct {
	Points      int  `json:"points"`
	NewHunterID uint `json:"new_hunter_id"`
}

// LiveState is the redis-cached snapshot of a running game, read by the
// websocket sync path. The database stays authoritative; cache failures
// are logged and ignored.
type LiveState struct {
	GameID          uint         `json:"game_id"`
	Status          string       `json:"status"`
	Mode            string       `json:"mode"`
	CurrentHunterID *uint        `json:"current_hunter_id,omitempty"`
	Players         []LivePlayer `json:"players"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

type LivePlayer struct {
	ID      uint   `json:"id"`
	UserID  uint   `json:"user_id"`
	Role    string `json:"role"`
	Score   int    `json:"score"`
	ZoneKey string `json:"zone_key,omitempty"`
}

func (s *GameService) CreateGame(hostID uint, req *CreateGameRequest) (*models.Game, error) {
	mode := req.Mode
	if mode == "" {
		mode = models.ModeHunterHunted
	}
	if mode != models.ModeHunterHunted && mode != models.ModeAlliance {
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidInput, req.Mode)
	}

	game := models.Game{
		HuntID:          req.HuntID,
		HostID:          hostID,
		Mode:            mode,
		Status:          models.GameStatusWaiting,
		MaxPlayers:      req.MaxPlayers,
		ProximityRadius: req.ProximityRadius,
		TagRadius:       req.TagRadius,
	}
	if game.MaxPlayers <= 0 {
		game.MaxPlayers = 20
	}
	if game.ProximityRadius <= 0 {
		game.ProximityRadius = 500
	}
	if game.TagRadius <= 0 {
		game.TagRadius = 25
	}

	if err := s.db.Create(&game).Error; err != nil {
		return nil, err
	}

	return &game, nil
}

func (s *GameService) GetGame(gameID uint) (*models.Game, error) {
	var game models.Game
	if err := s.db.Preload("Players").First(&game, gameID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &game, nil
}

// StartGame moves a waiting game to active. In hunter_hunted mode the
// initial hunter is picked from the joined players with the same uniform
// random policy used for reassignment.
func (s *GameService) StartGame(gameID, hostID uint) (*models.Game, error) {
	var game models.Game
	if err := s.db.First(&game, gameID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if game.HostID != hostID {
		return nil, ErrUnauthorized
	}
	if game.Status == models.GameStatusEnded {
		return nil, ErrGameEnded
	}
	if game.Status != models.GameStatusWaiting {
		return nil, ErrConflict
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		game.Status = models.GameStatusActive
		game.StartedAt = &now

		if game.Mode == models.ModeHunterHunted {
			var players []models.Player
			if err := tx.Where("game_id = ?", game.ID).Order("id").Find(&players).Error; err != nil {
				return err
			}
			if len(players) > 0 {
				hunter := players[s.pickIndex(len(players))]
				if err := tx.Model(&models.Player{}).Where("id = ?", hunter.ID).
					Update("role", models.RoleHunter).Error; err != nil {
					return err
				}
				game.CurrentHunterID = &hunter.ID
				if err := s.events.Append(tx, game.ID, models.EventRoleChange, hunter.ID, nil,
					map[string]interface{}{"role": models.RoleHunter, "reason": "game_start"}); err != nil {
					return err
				}
			}
		}

		return tx.Save(&game).Error
	})
	if err != nil {
		return nil, err
	}

	s.RefreshLiveState(game.ID)
	return &game, nil
}

// EndGame moves a game to its terminal ended status. Host only.
func (s *GameService) EndGame(gameID, hostID uint) (*models.Game, error) {
	var game models.Game
	if err := s.db.First(&game, gameID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if game.HostID != hostID {
		return nil, ErrUnauthorized
	}
	if game.Status == models.GameStatusEnded {
		return nil, ErrGameEnded
	}

	now := time.Now()
	game.Status = models.GameStatusEnded
	game.EndedAt = &now
	if err := s.db.Save(&game).Error; err != nil {
		return nil, err
	}

	s.RefreshLiveState(game.ID)
	return &game, nil
}

// JoinGame adds the user to the game as hunted. Re-joining returns the
// existing player row unchanged; hunter assignment at game start and on
// hunter departure is handled elsewhere, so late joiners are always hunted.
func (s *GameService) JoinGame(gameID, userID uint) (*models.Player, error) {
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

	// Idempotent re-join
	var existing models.Player
	if err := s.db.Where("game_id = ? AND user_id = ?", gameID, userID).First(&existing).Error; err == nil {
		return &existing, nil
	}

	var count int64
	if err := s.db.Model(&models.Player{}).Where("game_id = ?", gameID).Count(&count).Error; err != nil {
		return nil, err
	}
	if int(count) >= game.MaxPlayers {
		return nil, ErrGameFull
	}

	player := models.Player{
		GameID:   gameID,
		UserID:   userID,
		Role:     models.RoleHunted,
		JoinedAt: time.Now(),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&player).Error; err != nil {
			return err
		}
		return s.events.Append(tx, gameID, models.EventPlayerJoined, player.ID, nil, nil)
	})
	if err != nil {
		// A concurrent join for the same (game, user) can lose the race to
		// the unique index; resolve it idempotently.
		var racing models.Player
		if ferr := s.db.Where("game_id = ? AND user_id = ?", gameID, userID).First(&racing).Error; ferr == nil {
			return &racing, nil
		}
		return nil, err
	}

	s.RefreshLiveState(gameID)
	return &player, nil
}

// LeaveGame removes the player's row. A departing hunter's role is handed
// to a uniformly random remaining player; with nobody left the role stays
// vacant. Alliance membership is cleaned up in the same transaction.
func (s *GameService) LeaveGame(gameID, userID uint) error {
	player, err := findPlayer(s.db, gameID, userID)
	if err != nil {
		return err
	}

	var game models.Game
	if err := s.db.First(&game, gameID).Error; err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if player.AllianceID != nil {
			if err := removeFromAlliance(tx, s.events, player); err != nil {
				return err
			}
		}

		if err := tx.Delete(&models.Player{}, player.ID).Error; err != nil {
			return err
		}
		if err := s.events.Append(tx, gameID, models.EventPlayerLeft, player.ID, nil, nil); err != nil {
			return err
		}

		wasHunter := game.CurrentHunterID != nil && *game.CurrentHunterID == player.ID
		if !wasHunter {
			return nil
		}

		var remaining []models.Player
		if err := tx.Where("game_id = ?", gameID).Order("id").Find(&remaining).Error; err != nil {
			return err
		}
		if len(remaining) == 0 {
			return tx.Model(&models.Game{}).Where("id = ?", gameID).
				Update("current_hunter_id", nil).Error
		}

		next := remaining[s.pickIndex(len(remaining))]
		if err := tx.Model(&models.Player{}).Where("id = ?", next.ID).
			Update("role", models.RoleHunter).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Game{}).Where("id = ?", gameID).
			Update("current_hunter_id", next.ID).Error; err != nil {
			return err
		}
		return s.events.Append(tx, gameID, models.EventRoleChange, next.ID, nil,
			map[string]interface{}{"role": models.RoleHunter, "reason": "hunter_left"})
	})
	if err != nil {
		return err
	}

	s.RefreshLiveState(gameID)
	return nil
}

// Tag lets the current hunter tag a target within the game's tag radius.
// The tagged player becomes the new hunter; the tagger scores TagPoints and
// gets a stealth grace window. Targets standing inside an active safe zone
// cannot be tagged.
func (s *GameService) Tag(gameID, userID uint, req *TagRequest) (*TagResult, error) {
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
	if game.Status != models.GameStatusActive {
		return nil, ErrConflict
	}

	hunter, err := findPlayer(s.db, gameID, userID)
	if err != nil {
		return nil, err
	}
	if hunter.Role != models.RoleHunter || game.CurrentHunterID == nil || *game.CurrentHunterID != hunter.ID {
		return nil, ErrUnauthorized
	}
	if req.TargetID == hunter.ID {
		return nil, fmt.Errorf("%w: cannot tag yourself", ErrInvalidInput)
	}

	var target models.Player
	if err := s.db.Where("id = ? AND game_id = ?", req.TargetID, gameID).First(&target).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if hunter.LastLat == nil || hunter.LastLon == nil || target.LastLat == nil || target.LastLon == nil {
		return nil, fmt.Errorf("%w: both players need a reported location", ErrInvalidInput)
	}

	now := time.Now()
	if distanceBetween(hunter, &target) > game.TagRadius {
		return nil, fmt.Errorf("%w: target out of tag range", ErrConflict)
	}
	if zone, _, err := resolveSafeZone(s.db, gameID, *target.LastLat, *target.LastLon, now); err != nil {
		return nil, err
	} else if zone != nil {
		return nil, fmt.Errorf("%w: target is inside a safe zone", ErrConflict)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Only one tag can transfer the role; the guard on the current
		// hunter id settles concurrent attempts.
		res := tx.Model(&models.Game{}).
			Where("id = ? AND current_hunter_id = ?", gameID, hunter.ID).
			Update("current_hunter_id", target.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		stealthUntil := now.Add(StealthGrace)
		if err := tx.Model(&models.Player{}).Where("id = ?", hunter.ID).
			Updates(map[string]interface{}{
				"role":          models.RoleHunted,
				"score":         gorm.Expr("score + ?", TagPoints),
				"stealth_until": stealthUntil,
			}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Player{}).Where("id = ?", target.ID).
			Update("role", models.RoleHunter).Error; err != nil {
			return err
		}

		if err := s.events.Append(tx, gameID, models.EventPlayerTagged, hunter.ID, &target.ID,
			map[string]interface{}{"points": TagPoints}); err != nil {
			return err
		}
		return s.events.Append(tx, gameID, models.EventRoleChange, target.ID, nil,
			map[string]interface{}{"role": models.RoleHunter, "reason": "tagged"})
	})
	if err != nil {
		return nil, err
	}

	s.RefreshLiveState(gameID)
	return &TagResult{Points: TagPoints, NewHunterID: target.ID}, nil
}

// GetLiveState returns the cached live snapshot, rebuilding it from the
// database on a miss.
func (s *GameService) GetLiveState(gameID uint) (*LiveState, error) {
	if state := s.getCachedLiveState(gameID); state != nil {
		return state, nil
	}
	return s.RefreshLiveState(gameID)
}

// RefreshLiveState rebuilds the redis snapshot from the database. Cache
// write failures are logged, never surfaced.
func (s *GameService) RefreshLiveState(gameID uint) (*LiveState, error) {
	var game models.Game
	if err := s.db.First(&game, gameID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var players []models.Player
	if err := s.db.Where("game_id = ?", gameID).Order("id").Find(&players).Error; err != nil {
		return nil, err
	}

	state := &LiveState{
		GameID:          game.ID,
		Status:          game.Status,
		Mode:            game.Mode,
		CurrentHunterID: game.CurrentHunterID,
		Players:         make([]LivePlayer, 0, len(players)),
		UpdatedAt:       time.Now(),
	}
	for _, p := range players {
		state.Players = append(state.Players, LivePlayer{
			ID:      p.ID,
			UserID:  p.UserID,
			Role:    p.Role,
			Score:   p.Score,
			ZoneKey: p.ZoneKey,
		})
	}

	s.storeLiveState(state)
	return state, nil
}

func (s *GameService) storeLiveState(state *LiveState) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(state)
	if err != nil {
		log.Printf("Failed to marshal live state for game %d: %v", state.GameID, err)
		return
	}
	key := fmt.Sprintf("game:%d", state.GameID)
	if err := s.redis.Set(context.Background(), key, data, liveStateTTL).Err(); err != nil {
		log.Printf("Failed to store live state for game %d: %v", state.GameID, err)
	}
}

func (s *GameService) getCachedLiveState(gameID uint) *LiveState {
	if s.redis == nil {
		return nil
	}
	key := fmt.Sprintf("game:%d", gameID)
	data, err := s.redis.Get(context.Background(), key).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("Redis error getting live state for game %d: %v", gameID, err)
		}
		return nil
	}
	var state LiveState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		log.Printf("Failed to unmarshal live state for game %d: %v", gameID, err)
		return nil
	}
	return &state
}

func (s *GameService) pickIndex(n int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Intn(n)
}

// findPlayer resolves the caller's player row for a game.
func findPlayer(db *gorm.DB, gameID, userID uint) (*models.Player, error) {
	var player models.Player
	if err := db.Where("game_id = ? AND user_id = ?", gameID, userID).First(&player).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotAParticipant
		}
		return nil, err
	}
	return &player, nil
}
