package service

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"horizon-field/internal/domain/stop"
	"horizon-field/internal/domain/tour"
	"horizon-field/internal/ports"
)

// generateCorrelationID creates a simple correlation ID for tracing requests.
func generateCorrelationID() string {
	var b [3]byte // 6 hex chars
	_, _ = rand.Read(b[:])
	ts := time.Now().UTC().Format("20060102T150405") // e.g., 20251028T184523
	return "req_" + ts + "_" + hex.EncodeToString(b[:])
}

// tourView maps a domain tour to its list representation.
func tourView(t *tour.Tour) ports.TourView {
	return ports.TourView{
		TourID:  t.ID,
		Name:    t.Name,
		Date:    t.Date,
		Status:  t.Status.String(),
		Vehicle: t.Vehicle,
	}
}

// stopViews maps the stop sequence with optimistic display statuses.
func stopViews(stops []*stop.Stop) []ports.StopView {
	views := make([]ports.StopView, 0, len(stops))
	for _, s := range stops {
		views = append(views, ports.StopView{
			StopID:     s.ID,
			ClientID:   s.ClientID,
			Sequence:   s.Sequence,
			ClientName: s.ClientName,
			Address:    s.Address,
			Latitude:   s.Latitude,
			Longitude:  s.Longitude,
			Status:     s.Displayed().String(),
		})
	}
	return views
}
