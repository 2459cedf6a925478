package models

import (
	"time"
)

// SafeZone is a protective geofence. The hour window is optional local time;
// a zone with no window is always active, and a window may wrap past
// midnight (22-6 covers 22:00-23:59 and 00:00-06:00).
type SafeZone struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	GameID          uint      `json:"game_id" gorm:"not null;index"`
	Name            string    `json:"name"`
	Lat             float64   `json:"lat" gorm:"not null"`
	Lon             float64   `json:"lon" gorm:"not null"`
	RadiusMeters    float64   `json:"radius_meters" gorm:"not null"`
	ActiveStartHour *int      `json:"active_start_hour,omitempty"`
	ActiveEndHour   *int      `json:"active_end_hour,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ActiveAt reports whether the zone's hour window covers the given local hour.
func (z *SafeZone) ActiveAt(hour int) bool {
	if z.ActiveStartHour == nil || z.ActiveEndHour == nil {
		return true
	}
	start, end := *z.ActiveStartHour, *z.ActiveEndHour
	if start <= end {
		return hour >= start && hour <= end
	}
	// Window wraps past midnight
	return hour >= start || hour <= end
}
