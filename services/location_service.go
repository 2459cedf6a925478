package services

import (
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"tagmode/geo"
	"tagmode/models"

	"gorm.io/gorm"
)

// ProximityRecency is how fresh another player's location must be to show
// up in proximity results. Staler locations are treated as unknown.
const ProximityRecency = 5 * time.Minute

// Distance category boundaries in meters.
const (
	dangerCloseMeters = 60
	nearbyMeters      = 105
	approachingMeters = 135
)

// LocationService ingests player coordinates and runs the three reactive
// computations off the just-written fix: safe zone resolution, sabotage
// trigger checks and the proximity scan.
type LocationService struct {
	db        *gorm.DB
	sabotages *SabotageService
	events    *EventService
}

func NewLocationService(db *gorm.DB, sabotages *SabotageService, events *EventService) *LocationService {
	return &LocationService{
		db:        db,
		sabotages: sabotages,
		events:    events,
	}
}

// Lat and Lon are pointers so a missing field is rejected while 0 remains
// a valid coordinate.
type UpdateLocationRequest struct {
	Lat *float64 `json:"lat" binding:"required"`
	Lon *float64 `json:"lon" binding:"required"`
}

type NearbyPlayer struct {
	PlayerID  uint     `json:"player_id"`
	Distance  int      `json:"distance_m"`
	Direction string   `json:"direction"`
	Category  string   `json:"category"`
	IsHunter  bool     `json:"is_hunter"`
	Scrambled bool     `json:"scrambled,omitempty"`
	Lat       *float64 `json:"lat,omitempty"`
	Lon       *float64 `json:"lon,omitempty"`
}

type SafeZoneInfo struct {
	ZoneID   uint   `json:"zone_id"`
	Name     string `json:"name,omitempty"`
	Distance int    `json:"distance_m"`
}

type LocationUpdateResult struct {
	ZoneKey            string              `json:"zone_key"`
	InSafeZone         bool                `json:"in_safe_zone"`
	SafeZone           *SafeZoneInfo       `json:"safe_zone,omitempty"`
	NearbyPlayers      []NearbyPlayer      `json:"nearby_players"`
	TriggeredSabotages []TriggeredSabotage `json:"triggered_sabotages"`
}

// UpdateLocation writes the player's coordinates and zone key, then
// resolves safe zones, checks sabotage triggers and scans for nearby
// players against the same fix, returning everything in one response.
func (s *LocationService) UpdateLocation(gameID, userID uint, req *UpdateLocationRequest) (*LocationUpdateResult, error) {
	if req == nil || req.Lat == nil || req.Lon == nil {
		return nil, fmt.Errorf("%w: lat and lon are required", ErrInvalidInput)
	}
	lat, lon := *req.Lat, *req.Lon
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("%w: coordinates out of range", ErrInvalidInput)
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

	now := time.Now()

	// Whether the previous fix was inside a safe zone, for edge detection.
	wasInSafeZone := false
	if player.LastLat != nil && player.LastLon != nil {
		zone, _, err := resolveSafeZone(s.db, gameID, *player.LastLat, *player.LastLon, now)
		if err != nil {
			return nil, err
		}
		wasInSafeZone = zone != nil
	}

	zoneKey := geo.ZoneKey(lat, lon)
	if err := s.db.Model(&models.Player{}).Where("id = ?", player.ID).
		Updates(map[string]interface{}{
			"last_lat":            lat,
			"last_lon":            lon,
			"location_updated_at": now,
			"zone_key":            zoneKey,
			"zone_updated_at":     now,
		}).Error; err != nil {
		return nil, err
	}
	player.LastLat = &lat
	player.LastLon = &lon
	player.LocationUpdatedAt = &now
	player.ZoneKey = zoneKey

	result := &LocationUpdateResult{
		ZoneKey:            zoneKey,
		NearbyPlayers:      []NearbyPlayer{},
		TriggeredSabotages: []TriggeredSabotage{},
	}

	zone, zoneDist, err := resolveSafeZone(s.db, gameID, lat, lon, now)
	if err != nil {
		return nil, err
	}
	if zone != nil {
		result.InSafeZone = true
		result.SafeZone = &SafeZoneInfo{
			ZoneID:   zone.ID,
			Name:     zone.Name,
			Distance: int(math.Round(zoneDist)),
		}
		if !wasInSafeZone {
			if err := s.events.Append(nil, gameID, models.EventSafeZoneEntered, player.ID, nil,
				map[string]interface{}{"zone_id": zone.ID}); err != nil {
				log.Printf("Failed to record safe zone entry for player %d: %v", player.ID, err)
			}
		}
	}

	triggered, err := s.sabotages.CheckTriggers(gameID, player, lat, lon, result.InSafeZone)
	if err != nil {
		return nil, err
	}
	result.TriggeredSabotages = triggered

	nearby, err := s.nearbyPlayers(&game, player, lat, lon, now)
	if err != nil {
		return nil, err
	}
	result.NearbyPlayers = nearby

	return result, nil
}

// nearbyPlayers scans the game's other active players. Privacy contract:
// exact coordinates are only included when requester and target share an
// alliance; everyone else gets derived distance and direction only.
func (s *LocationService) nearbyPlayers(game *models.Game, requester *models.Player, lat, lon float64, now time.Time) ([]NearbyPlayer, error) {
	cutoff := now.Add(-ProximityRecency)

	var others []models.Player
	if err := s.db.Where(
		"game_id = ? AND id <> ? AND last_lat IS NOT NULL AND location_updated_at > ?",
		game.ID, requester.ID, cutoff,
	).Find(&others).Error; err != nil {
		return nil, err
	}

	radius := game.ProximityRadius
	if radius <= 0 {
		radius = 500
	}

	nearby := []NearbyPlayer{}
	for i := range others {
		other := &others[i]
		if other.InStealth(now) {
			continue
		}

		d := geo.Distance(lat, lon, *other.LastLat, *other.LastLon)
		if d > radius {
			continue
		}

		entry := NearbyPlayer{
			PlayerID:  other.ID,
			Distance:  int(math.Round(d)),
			Direction: geo.Compass(lat, lon, *other.LastLat, *other.LastLon),
			Category:  distanceCategory(d),
			IsHunter:  other.Role == models.RoleHunter,
			Scrambled: other.Scrambled(now),
		}
		if sharedAlliance(requester, other) {
			entry.Lat = other.LastLat
			entry.Lon = other.LastLon
		}
		nearby = append(nearby, entry)
	}

	return nearby, nil
}

func distanceCategory(d float64) string {
	switch {
	case d < dangerCloseMeters:
		return "danger_close"
	case d < nearbyMeters:
		return "nearby"
	case d < approachingMeters:
		return "approaching"
	default:
		return "far"
	}
}

func sharedAlliance(a, b *models.Player) bool {
	return a.AllianceID != nil && b.AllianceID != nil && *a.AllianceID == *b.AllianceID
}

// resolveSafeZone returns the nearest currently-active safe zone covering
// the coordinate, or nil when none does. Ties break on the lower zone id
// so the answer is deterministic.
func resolveSafeZone(db *gorm.DB, gameID uint, lat, lon float64, now time.Time) (*models.SafeZone, float64, error) {
	var zones []models.SafeZone
	if err := db.Where("game_id = ?", gameID).Order("id").Find(&zones).Error; err != nil {
		return nil, 0, err
	}

	hour := now.Hour()
	var best *models.SafeZone
	bestDist := 0.0
	for i := range zones {
		zone := &zones[i]
		if !zone.ActiveAt(hour) {
			continue
		}
		d := geo.Distance(lat, lon, zone.Lat, zone.Lon)
		if d > zone.RadiusMeters {
			continue
		}
		if best == nil || d < bestDist {
			best = zone
			bestDist = d
		}
	}

	return best, bestDist, nil
}

// distanceBetween is a convenience over two players' last known fixes.
// Callers must have checked that both have one.
func distanceBetween(a, b *models.Player) float64 {
	return geo.Distance(*a.LastLat, *a.LastLon, *b.LastLat, *b.LastLon)
}
