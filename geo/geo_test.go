package geo

import (
	"math"
	"testing"
)

func TestDistanceReferenceValues(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
		epsilon                float64
	}{
		{
			// One degree of longitude on the equator
			name: "equator degree",
			lat1: 0, lon1: 0, lat2: 0, lon2: 1,
			want:    111194.9,
			epsilon: 1.0,
		},
		{
			// One degree of latitude anywhere
			name: "meridian degree",
			lat1: 10, lon1: 20, lat2: 11, lon2: 20,
			want:    111194.9,
			epsilon: 1.0,
		},
		{
			name: "paris to london",
			lat1: 48.8566, lon1: 2.3522, lat2: 51.5074, lon2: -0.1278,
			want:    343560,
			epsilon: 1000,
		},
		{
			name: "identical points",
			lat1: 37.7749, lon1: -122.4194, lat2: 37.7749, lon2: -122.4194,
			want:    0,
			epsilon: 0.001,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.want) > tt.epsilon {
				t.Errorf("Distance() = %f, want %f ± %f", got, tt.want, tt.epsilon)
			}
		})
	}
}

func TestDistanceSymmetry(t *testing.T) {
	ab := Distance(48.8566, 2.3522, 51.5074, -0.1278)
	ba := Distance(51.5074, -0.1278, 48.8566, 2.3522)
	if ab != ba {
		t.Errorf("Distance is not symmetric: %f != %f", ab, ba)
	}
}

func TestZoneKey(t *testing.T) {
	tests := []struct {
		lat, lon float64
		want     string
	}{
		{37.7749, -122.4194, "z37774:-122420"},
		{0, 0, "z0:0"},
		{-0.0001, -0.0001, "z-1:-1"},
		{51.5074, -0.1278, "z51507:-128"},
	}

	for _, tt := range tests {
		if got := ZoneKey(tt.lat, tt.lon); got != tt.want {
			t.Errorf("ZoneKey(%f, %f) = %q, want %q", tt.lat, tt.lon, got, tt.want)
		}
	}
}

func TestZoneKeyStableWithinCell(t *testing.T) {
	a := ZoneKey(37.7741, -122.4199)
	b := ZoneKey(37.77495, -122.41901)
	if a != b {
		t.Errorf("expected same cell, got %q and %q", a, b)
	}
}

func TestCompass(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   string
	}{
		{"north", 0, 0, 1, 0, "N"},
		{"east", 0, 0, 0, 1, "E"},
		{"south", 0, 0, -1, 0, "S"},
		{"west", 0, 0, 0, -1, "W"},
		{"northeast", 0, 0, 1, 1, "NE"},
		{"southeast", 0, 0, -1, 1, "SE"},
		{"southwest", 0, 0, -1, -1, "SW"},
		{"northwest", 0, 0, 1, -1, "NW"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compass(tt.lat1, tt.lon1, tt.lat2, tt.lon2); got != tt.want {
				t.Errorf("Compass() = %q, want %q", got, tt.want)
			}
		})
	}
}
