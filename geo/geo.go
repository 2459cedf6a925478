// Package geo provides the pure location math used by the tag mode engine:
// great-circle distance, grid-cell zone keys and compass directions. It
// holds no state and never touches the store.
package geo

import (
	"fmt"
	"math"
)

// EarthRadiusMeters is the spherical Earth radius used by Distance.
const EarthRadiusMeters = 6371000.0

// zoneCellDegrees is the grid cell size per axis for ZoneKey. 0.001 degrees
// is about 111 m of latitude, a street-scale bucket.
const zoneCellDegrees = 0.001

var compassLabels = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// Distance returns the great-circle (haversine) distance in meters between
// two coordinates. Planar approximations drift badly past 1 km, so all
// range checks in the engine go through this.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// ZoneKey quantizes a coordinate onto the fixed 0.001-degree grid and
// returns the cell's key. Both axes are floored independently, so the key
// is stable anywhere inside a cell.
func ZoneKey(lat, lon float64) string {
	latCell := int(math.Floor(lat / zoneCellDegrees))
	lonCell := int(math.Floor(lon / zoneCellDegrees))
	return fmt.Sprintf("z%d:%d", latCell, lonCell)
}

// Compass maps the initial bearing from one coordinate to another onto one
// of the 8 compass labels using standard 45-degree sectors.
func Compass(fromLat, fromLon, toLat, toLon float64) string {
	phi1 := fromLat * math.Pi / 180
	phi2 := toLat * math.Pi / 180
	dLambda := (toLon - fromLon) * math.Pi / 180

	y := math.Sin(dLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)

	bearing := math.Atan2(y, x) * 180 / math.Pi
	bearing = math.Mod(bearing+360, 360)

	sector := int(math.Floor((bearing+22.5)/45)) % 8
	return compassLabels[sector]
}
