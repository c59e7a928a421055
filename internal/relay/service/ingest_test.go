package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"horizon-field/internal/general/contracts"
	"horizon-field/internal/general/logger"
	"horizon-field/internal/ports"
)

type fakeArchive struct {
	mu          sync.Mutex
	positions   []ports.PositionRecord
	collections []ports.CollectionEventRecord
	failWith    error
}

func (f *fakeArchive) ArchivePosition(ctx context.Context, rec ports.PositionRecord) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.mu.Lock()
	f.positions = append(f.positions, rec)
	f.mu.Unlock()
	return nil
}

func (f *fakeArchive) ArchiveCollectionEvent(ctx context.Context, rec ports.CollectionEventRecord) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.mu.Lock()
	f.collections = append(f.collections, rec)
	f.mu.Unlock()
	return nil
}

type fakePublisher struct {
	mu       sync.Mutex
	bodies   [][]byte
	failWith error
}

func (f *fakePublisher) Publish(exchange, routingKey string, body []byte) error {
	if f.failWith != nil {
		return f.failWith
	}
	if exchange != contracts.ExchangeTelemetryFanout || routingKey != "" {
		return fmt.Errorf("unexpected destination %s/%s", exchange, routingKey)
	}
	f.mu.Lock()
	f.bodies = append(f.bodies, body)
	f.mu.Unlock()
	return nil
}

func TestHandlePosition(t *testing.T) {
	archive := &fakeArchive{}
	pub := &fakePublisher{}
	svc := NewRelayService(logger.New("relay-test"), archive, pub)

	svc.HandlePosition(context.Background(), "team-1", "tour-1", 52.52, 13.405)

	if len(archive.positions) != 1 {
		t.Fatalf("archived positions = %d, want 1", len(archive.positions))
	}
	rec := archive.positions[0]
	if rec.TeamID != "team-1" || rec.TourID != "tour-1" || rec.Latitude != 52.52 {
		t.Fatalf("unexpected record: %+v", rec)
	}

	if len(pub.bodies) != 1 {
		t.Fatalf("broadcasts = %d, want 1", len(pub.bodies))
	}
	var msg contracts.PositionBroadcast
	if err := json.Unmarshal(pub.bodies[0], &msg); err != nil {
		t.Fatalf("decode broadcast: %v", err)
	}
	if msg.TourID != "tour-1" || msg.Lng != 13.405 {
		t.Fatalf("unexpected broadcast: %+v", msg)
	}
}

func TestHandleCollection(t *testing.T) {
	archive := &fakeArchive{}
	pub := &fakePublisher{}
	svc := NewRelayService(logger.New("relay-test"), archive, pub)

	svc.HandleCollection(context.Background(), "team-1", "tour-1", "client-1", "COMPLETED")

	if len(archive.collections) != 1 {
		t.Fatalf("archived events = %d, want 1", len(archive.collections))
	}
	if archive.collections[0].ClientID != "client-1" {
		t.Fatalf("unexpected record: %+v", archive.collections[0])
	}

	var msg contracts.CollectionBroadcast
	if err := json.Unmarshal(pub.bodies[0], &msg); err != nil {
		t.Fatalf("decode broadcast: %v", err)
	}
	if msg.Status != "COMPLETED" {
		t.Fatalf("unexpected broadcast: %+v", msg)
	}
}

func TestIngestFailuresAreSwallowed(t *testing.T) {
	archive := &fakeArchive{failWith: fmt.Errorf("db down")}
	pub := &fakePublisher{failWith: fmt.Errorf("broker down")}
	svc := NewRelayService(logger.New("relay-test"), archive, pub)

	// both handlers must absorb the failures without panicking; the
	// sending agent never learns about them
	svc.HandlePosition(context.Background(), "team-1", "tour-1", 52.52, 13.405)
	svc.HandleCollection(context.Background(), "team-1", "tour-1", "client-1", "COMPLETED")
}
