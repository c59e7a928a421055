package horizonapi

import (
	"context"
	"fmt"
	"net/http"

	"horizon-field/internal/ports"
)

type collectionRequest struct {
	TourID   string `json:"tour_id"`
	ClientID string `json:"client_id"`
	Status   string `json:"status"`
}

// RecordCollection issues the durable confirmation write. The store
// deduplicates on (tour_id, client_id), so retries are safe.
func (c *Client) RecordCollection(ctx context.Context, rec ports.ConfirmationRecord) error {
	req := collectionRequest{
		TourID:   rec.TourID,
		ClientID: rec.ClientID,
		Status:   rec.Status.String(),
	}
	if err := c.do(ctx, http.MethodPost, "/collections", req, nil); err != nil {
		return fmt.Errorf("record collection: %w", err)
	}
	return nil
}
