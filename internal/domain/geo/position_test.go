package geo

import (
	"math"
	"testing"
)

func TestPositionSampleValidate(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		lng     float64
		wantErr bool
	}{
		{"berlin", 52.52, 13.405, false},
		{"equator", 0, 0, false},
		{"poles", 90, 180, false},
		{"lat overflow", 91, 0, true},
		{"lng overflow", 0, -181, true},
		{"nan", math.NaN(), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := PositionSample{Latitude: tt.lat, Longitude: tt.lng}
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate(%v, %v) = %v, wantErr %v", tt.lat, tt.lng, err, tt.wantErr)
			}
		})
	}
}

func TestDistanceMeters(t *testing.T) {
	// Berlin Alexanderplatz to Brandenburg Gate is roughly 2.2 km.
	d := DistanceMeters(52.5219, 13.4132, 52.5163, 13.3777)
	if d < 2000 || d > 2700 {
		t.Fatalf("Alexanderplatz-Brandenburg Gate: got %.0f m, want ~2200 m", d)
	}

	if d := DistanceMeters(52.52, 13.405, 52.52, 13.405); d != 0 {
		t.Fatalf("identical points: got %f, want 0", d)
	}

	// ~50 m north of a reference point (1 degree latitude is ~111.1 km)
	d = DistanceMeters(52.52, 13.405, 52.52045, 13.405)
	if d < 45 || d > 55 {
		t.Fatalf("50 m step: got %.1f m", d)
	}
}
