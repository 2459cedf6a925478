package services

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"tagmode/models"
)

func TestJoinGameIdempotent(t *testing.T) {
	env := newTestEnv(t)
	game := createGame(t, env, models.GameStatusActive)

	first := joinPlayer(t, env, game.ID, 1)
	second := joinPlayer(t, env, game.ID, 1)

	if first.ID != second.ID {
		t.Errorf("re-join created a new player: %d != %d", first.ID, second.ID)
	}

	var count int64
	env.db.Model(&models.Player{}).Where("game_id = ?", game.ID).Count(&count)
	if count != 1 {
		t.Errorf("expected 1 player row, got %d", count)
	}
}

func TestJoinGameAssignsHuntedRole(t *testing.T) {
	env := newTestEnv(t)
	game := createGame(t, env, models.GameStatusActive)

	player := joinPlayer(t, env, game.ID, 1)
	if player.Role != models.RoleHunted {
		t.Errorf("late joiner role = %q, want %q", player.Role, models.RoleHunted)
	}

	if lastEventOfType(t, env, game.ID, models.EventPlayerJoined) == nil {
		t.Error("expected a player_joined event")
	}
}

func TestJoinGameFull(t *testing.T) {
	env := newTestEnv(t)
	game := createGame(t, env, models.GameStatusWaiting)
	env.db.Model(game).Update("max_players", 2)

	joinPlayer(t, env, game.ID, 1)
	joinPlayer(t, env, game.ID, 2)

	if _, err := env.games.JoinGame(game.ID, 3); !errors.Is(err, ErrGameFull) {
		t.Errorf("expected ErrGameFull, got %v", err)
	}
}

func TestJoinGameEnded(t *testing.T) {
	env := newTestEnv(t)
	game := createGame(t, env, models.GameStatusEnded)

	if _, err := env.games.JoinGame(game.ID, 1); !errors.Is(err, ErrGameEnded) {
		t.Errorf("expected ErrGameEnded, got %v", err)
	}
}

func TestStartGamePicksInitialHunter(t *testing.T) {
	env := newTestEnv(t)
	game := createGame(t, env, models.GameStatusWaiting)
	joinPlayer(t, env, game.ID, 1)
	joinPlayer(t, env, game.ID, 2)
	joinPlayer(t, env, game.ID, 3)

	started, err := env.games.StartGame(game.ID, game.HostID)
	if err != nil {
		t.Fatalf("start game: %v", err)
	}
	if started.Status != models.GameStatusActive {
		t.Errorf("status = %q, want active", started.Status)
	}
	if started.CurrentHunterID == nil {
		t.Fatal("no hunter assigned on start")
	}

	hunter := reloadPlayer(t, env, *started.CurrentHunterID)
	if hunter.Role != models.RoleHunter {
		t.Errorf("hunter role = %q, want %q", hunter.Role, models.RoleHunter)
	}
	if lastEventOfType(t, env, game.ID, models.EventRoleChange) == nil {
		t.Error("expected a role_change event")
	}
}

func TestStartGameHostOnly(t *testing.T) {
	env := newTestEnv(t)
	game := createGame(t, env, models.GameStatusWaiting)

	if _, err := env.games.StartGame(game.ID, game.HostID+1); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestHunterSelectionDeterministicWithSeed(t *testing.T) {
	pick := func() uint {
		env := newTestEnv(t)
		game := createGame(t, env, models.GameStatusWaiting)
		joinPlayer(t, env, game.ID, 1)
		joinPlayer(t, env, game.ID, 2)
		joinPlayer(t, env, game.ID, 3)
		started, err := env.games.StartGame(game.ID, game.HostID)
		if err != nil {
			t.Fatalf("start game: %v", err)
		}
		hunter := reloadPlayer(t, env, *started.CurrentHunterID)
		return hunter.UserID
	}

	if a, b := pick(), pick(); a != b {
		t.Errorf("same seed picked different hunters: %d vs %d", a, b)
	}
}

func TestLeaveGameReassignsHunter(t *testing.T) {
	env := newTestEnv(t)
	game := createGame(t, env, models.GameStatusActive)
	hunter := joinPlayer(t, env, game.ID, 1)
	joinPlayer(t, env, game.ID, 2)
	joinPlayer(t, env, game.ID, 3)
	makeHunter(t, env, game.ID, hunter.ID)

	if err := env.games.LeaveGame(game.ID, 1); err != nil {
		t.Fatalf("leave game: %v", err)
	}

	var gone models.Player
	if err := env.db.First(&gone, hunter.ID).Error; err == nil {
		t.Error("leaving player row still exists")
	}

	updated := reloadGame(t, env, game.ID)
	if updated.CurrentHunterID == nil {
		t.Fatal("hunter role left vacant with players remaining")
	}
	next := reloadPlayer(t, env, *updated.CurrentHunterID)
	if next.Role != models.RoleHunter {
		t.Errorf("replacement role = %q, want %q", next.Role, models.RoleHunter)
	}
	if next.UserID != 2 && next.UserID != 3 {
		t.Errorf("replacement is not a remaining player: user %d", next.UserID)
	}

	if lastEventOfType(t, env, game.ID, models.EventPlayerLeft) == nil {
		t.Error("expected a player_left event")
	}
	if lastEventOfType(t, env, game.ID, models.EventRoleChange) == nil {
		t.Error("expected a role_change event")
	}
}

func TestLeaveGameVacatesHunterWhenEmpty(t *testing.T) {
	env := newTestEnv(t)
	game := createGame(t, env, models.GameStatusActive)
	hunter := joinPlayer(t, env, game.ID, 1)
	makeHunter(t, env, game.ID, hunter.ID)

	if err := env.games.LeaveGame(game.ID, 1); err != nil {
		t.Fatalf("leave game: %v", err)
	}

	updated := reloadGame(t, env, game.ID)
	if updated.CurrentHunterID != nil {
		t.Errorf("expected vacant hunter role, got player %d", *updated.CurrentHunterID)
	}
}

func TestLeaveGameNonHunterKeepsCurrentHunter(t *testing.T) {
	env := newTestEnv(t)
	game := createGame(t, env, models.GameStatusActive)
	hunter := joinPlayer(t, env, game.ID, 1)
	joinPlayer(t, env, game.ID, 2)
	makeHunter(t, env, game.ID, hunter.ID)

	if err := env.games.LeaveGame(game.ID, 2); err != nil {
		t.Fatalf("leave game: %v", err)
	}

	updated := reloadGame(t, env, game.ID)
	if updated.CurrentHunterID == nil || *updated.CurrentHunterID != hunter.ID {
		t.Error("hunter changed when a hunted player left")
	}
}

func TestLeaveGameDissolvesSingletonAlliance(t *testing.T) {
	env := newTestEnv(t)
	game := createGame(t, env, models.GameStatusActive)
	joinPlayer(t, env, game.ID, 1)

	alliance, err := env.alliances.Create(game.ID, 1, &CreateAllianceRequest{Name: "solo"})
	if err != nil {
		t.Fatalf("create alliance: %v", err)
	}

	if err := env.games.LeaveGame(game.ID, 1); err != nil {
		t.Fatalf("leave game: %v", err)
	}

	var count int64
	env.db.Model(&models.Alliance{}).Where("id = ?", alliance.ID).Count(&count)
	if count != 0 {
		t.Error("empty alliance was not deleted")
	}
}

func TestTagTransfersHunterRole(t *testing.T) {
	env := newTestEnv(t)
	game := createGame(t, env, models.GameStatusActive)
	hunter := joinPlayer(t, env, game.ID, 1)
	target := joinPlayer(t, env, game.ID, 2)
	makeHunter(t, env, game.ID, hunter.ID)
	setLocation(t, env, hunter.ID, 37.7749, -122.4194)
	setLocation(t, env, target.ID, 37.77495, -122.4194) // ~6 m away

	result, err := env.games.Tag(game.ID, 1, &TagRequest{TargetID: target.ID})
	if err != nil {
		t.Fatalf("tag: %v", err)
	}
	if result.Points != TagPoints {
		t.Errorf("points = %d, want %d", result.Points, TagPoints)
	}
	if result.NewHunterID != target.ID {
		t.Errorf("new hunter = %d, want %d", result.NewHunterID, target.ID)
	}

	updatedGame := reloadGame(t, env, game.ID)
	if updatedGame.CurrentHunterID == nil || *updatedGame.CurrentHunterID != target.ID {
		t.Error("game current hunter not transferred")
	}

	former := reloadPlayer(t, env, hunter.ID)
	if former.Role != models.RoleHunted {
		t.Errorf("former hunter role = %q, want hunted", former.Role)
	}
	if former.Score != TagPoints {
		t.Errorf("former hunter score = %d, want %d", former.Score, TagPoints)
	}
	if former.StealthUntil == nil || !former.StealthUntil.After(time.Now()) {
		t.Error("former hunter has no stealth grace")
	}

	tagged := reloadPlayer(t, env, target.ID)
	if tagged.Role != models.RoleHunter {
		t.Errorf("tagged role = %q, want hunter", tagged.Role)
	}

	if lastEventOfType(t, env, game.ID, models.EventPlayerTagged) == nil {
		t.Error("expected a player_tagged event")
	}
}

func TestTagOutOfRange(t *testing.T) {
	env := newTestEnv(t)
	game := createGame(t, env, models.GameStatusActive)
	hunter := joinPlayer(t, env, game.ID, 1)
	target := joinPlayer(t, env, game.ID, 2)
	makeHunter(t, env, game.ID, hunter.ID)
	setLocation(t, env, hunter.ID, 37.7749, -122.4194)
	setLocation(t, env, target.ID, 37.7799, -122.4194) // ~556 m away

	if _, err := env.games.Tag(game.ID, 1, &TagRequest{TargetID: target.ID}); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}

func TestTagRequiresCurrentHunter(t *testing.T) {
	env := newTestEnv(t)
	game := createGame(t, env, models.GameStatusActive)
	joinPlayer(t, env, game.ID, 1)
	target := joinPlayer(t, env, game.ID, 2)

	if _, err := env.games.Tag(game.ID, 1, &TagRequest{TargetID: target.ID}); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestTagBlockedBySafeZone(t *testing.T) {
	env := newTestEnv(t)
	game := createGame(t, env, models.GameStatusActive)
	hunter := joinPlayer(t, env, game.ID, 1)
	target := joinPlayer(t, env, game.ID, 2)
	makeHunter(t, env, game.ID, hunter.ID)
	setLocation(t, env, hunter.ID, 37.7749, -122.4194)
	setLocation(t, env, target.ID, 37.77495, -122.4194)

	zone := models.SafeZone{GameID: game.ID, Lat: 37.77495, Lon: -122.4194, RadiusMeters: 50}
	if err := env.db.Create(&zone).Error; err != nil {
		t.Fatalf("create safe zone: %v", err)
	}

	if _, err := env.games.Tag(game.ID, 1, &TagRequest{TargetID: target.ID}); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict for safe-zone target, got %v", err)
	}
}

func TestGetGameWithholdsPlayerLocations(t *testing.T) {
	env := newTestEnv(t)
	game := createGame(t, env, models.GameStatusActive)
	joinPlayer(t, env, game.ID, 1)
	other := joinPlayer(t, env, game.ID, 2)
	setLocation(t, env, other.ID, 37.77535, -122.4194)
	env.db.Model(&models.Player{}).Where("id = ?", other.ID).
		Update("stealth_until", time.Now().Add(time.Minute))

	loaded, err := env.games.GetGame(game.ID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if len(loaded.Players) != 2 {
		t.Fatalf("expected 2 players preloaded, got %d", len(loaded.Players))
	}

	data, err := json.Marshal(loaded)
	if err != nil {
		t.Fatalf("marshal game: %v", err)
	}
	body := string(data)
	for _, secret := range []string{"last_lat", "last_lon", "37.77", "stealth_until", "zone_key", "scramble_until"} {
		if strings.Contains(body, secret) {
			t.Errorf("game response leaks %q: %s", secret, body)
		}
	}
}

func TestEndGameIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	game := createGame(t, env, models.GameStatusActive)

	if _, err := env.games.EndGame(game.ID, game.HostID); err != nil {
		t.Fatalf("end game: %v", err)
	}
	if _, err := env.games.EndGame(game.ID, game.HostID); !errors.Is(err, ErrGameEnded) {
		t.Errorf("expected ErrGameEnded on second end, got %v", err)
	}
	if _, err := env.games.StartGame(game.ID, game.HostID); !errors.Is(err, ErrGameEnded) {
		t.Errorf("expected ErrGameEnded on start after end, got %v", err)
	}
}
