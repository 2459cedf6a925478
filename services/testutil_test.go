package services

import (
	"math/rand"
	"testing"
	"time"

	"tagmode/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	db        *gorm.DB
	events    *EventService
	games     *GameService
	sabotages *SabotageService
	locations *LocationService
	bounties  *BountyService
	alliances *AllianceService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Game{},
		&models.Player{},
		&models.SafeZone{},
		&models.Sabotage{},
		&models.Alliance{},
		&models.Bounty{},
		&models.Event{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	events := NewEventService(db)
	sabotages := NewSabotageService(db, events)
	return &testEnv{
		db:        db,
		events:    events,
		games:     NewGameService(db, nil, events, rand.New(rand.NewSource(1))),
		sabotages: sabotages,
		locations: NewLocationService(db, sabotages, events),
		bounties:  NewBountyService(db, events),
		alliances: NewAllianceService(db, events),
	}
}

func createGame(t *testing.T, env *testEnv, status string) *models.Game {
	t.Helper()
	game := &models.Game{
		HuntID:          1,
		HostID:          1000,
		Mode:            models.ModeHunterHunted,
		Status:          status,
		MaxPlayers:      20,
		ProximityRadius: 500,
		TagRadius:       25,
	}
	if err := env.db.Create(game).Error; err != nil {
		t.Fatalf("create game: %v", err)
	}
	return game
}

func joinPlayer(t *testing.T, env *testEnv, gameID, userID uint) *models.Player {
	t.Helper()
	player, err := env.games.JoinGame(gameID, userID)
	if err != nil {
		t.Fatalf("join game: %v", err)
	}
	return player
}

// setLocation writes a player's fix directly, bypassing the ingestion path.
func setLocation(t *testing.T, env *testEnv, playerID uint, lat, lon float64) {
	t.Helper()
	now := time.Now()
	err := env.db.Model(&models.Player{}).Where("id = ?", playerID).
		Updates(map[string]interface{}{
			"last_lat":            lat,
			"last_lon":            lon,
			"location_updated_at": now,
		}).Error
	if err != nil {
		t.Fatalf("set location: %v", err)
	}
}

// makeHunter promotes a player to the game's current hunter.
func makeHunter(t *testing.T, env *testEnv, gameID, playerID uint) {
	t.Helper()
	if err := env.db.Model(&models.Player{}).Where("id = ?", playerID).
		Update("role", models.RoleHunter).Error; err != nil {
		t.Fatalf("set role: %v", err)
	}
	if err := env.db.Model(&models.Game{}).Where("id = ?", gameID).
		Update("current_hunter_id", playerID).Error; err != nil {
		t.Fatalf("set current hunter: %v", err)
	}
}

func setScore(t *testing.T, env *testEnv, playerID uint, score int) {
	t.Helper()
	if err := env.db.Model(&models.Player{}).Where("id = ?", playerID).
		Update("score", score).Error; err != nil {
		t.Fatalf("set score: %v", err)
	}
}

func reloadPlayer(t *testing.T, env *testEnv, playerID uint) *models.Player {
	t.Helper()
	var player models.Player
	if err := env.db.First(&player, playerID).Error; err != nil {
		t.Fatalf("reload player %d: %v", playerID, err)
	}
	return &player
}

func reloadGame(t *testing.T, env *testEnv, gameID uint) *models.Game {
	t.Helper()
	var game models.Game
	if err := env.db.First(&game, gameID).Error; err != nil {
		t.Fatalf("reload game %d: %v", gameID, err)
	}
	return &game
}

func lastEventOfType(t *testing.T, env *testEnv, gameID uint, eventType string) *models.Event {
	t.Helper()
	var event models.Event
	err := env.db.Where("game_id = ? AND type = ?", gameID, eventType).
		Order("id DESC").First(&event).Error
	if err != nil {
		return nil
	}
	return &event
}
