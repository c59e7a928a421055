package geo

import (
	"errors"
	"math"
	"time"
)

// PositionSample is one device fix. Samples are ephemeral: they exist only
// long enough to be forwarded to the transport channel.
type PositionSample struct {
	TourID     string
	Latitude   float64
	Longitude  float64
	CapturedAt time.Time
}

var ErrInvalidCoordinates = errors.New("invalid coordinates")

// Validate checks the sample's coordinates are real-world values.
func (p PositionSample) Validate() error {
	if math.IsNaN(p.Latitude) || math.IsNaN(p.Longitude) {
		return ErrInvalidCoordinates
	}
	if math.Abs(p.Latitude) > 90 || math.Abs(p.Longitude) > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}

// DistanceMeters is the haversine distance between two fixes in meters.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusM = 6371000.0
	a1 := lat1 * math.Pi / 180
	a2 := lat2 * math.Pi / 180
	da := (lat2 - lat1) * math.Pi / 180
	db := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(da/2)*math.Sin(da/2) +
		math.Cos(a1)*math.Cos(a2)*math.Sin(db/2)*math.Sin(db/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusM * c
}
