package gpsd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"horizon-field/internal/domain/geo"
	"horizon-field/internal/general/logger"
	"horizon-field/internal/ports"
)

// Ensure Provider implements the ports.LocationProvider interface.
var _ ports.LocationProvider = (*Provider)(nil)

// Provider reads device fixes from a local gpsd daemon. gpsd speaks
// newline-delimited JSON over TCP; fixes arrive as class "TPV" reports.
type Provider struct {
	addr   string
	logger *logger.Logger
}

// NewProvider returns a Provider for the given gpsd address (host:port).
func NewProvider(addr string, log *logger.Logger) *Provider {
	return &Provider{addr: addr, logger: log}
}

const watchCommand = `?WATCH={"enable":true,"json":true};` + "\n"

// tpvReport is the subset of a gpsd TPV report the stream needs.
type tpvReport struct {
	Class string   `json:"class"`
	Lat   *float64 `json:"lat"`
	Lon   *float64 `json:"lon"`
	Time  string   `json:"time"` // RFC 3339
}

// Watch opens the gpsd stream and delivers fixes until ctx is cancelled.
// An unreachable daemon maps to ErrPermissionDenied: the device cannot
// provide location, and tracking degrades to off.
func (p *Provider) Watch(ctx context.Context) (<-chan geo.PositionSample, error) {
	dialer := net.Dialer{Timeout: 5 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", p.addr)
	if err != nil {
		return nil, fmt.Errorf("%w: gpsd unreachable at %s: %v", ports.ErrPermissionDenied, p.addr, err)
	}

	if _, err := conn.Write([]byte(watchCommand)); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: gpsd watch request failed: %v", ports.ErrPermissionDenied, err)
	}

	out := make(chan geo.PositionSample)

	// unblock the blocking read when the subscription is torn down
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	go func() {
		defer close(out)
		defer conn.Close()

		scanner := bufio.NewScanner(conn)
		scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)

		for scanner.Scan() {
			var report tpvReport
			if err := json.Unmarshal(scanner.Bytes(), &report); err != nil {
				continue // gpsd interleaves non-JSON banners on some builds
			}
			if report.Class != "TPV" || report.Lat == nil || report.Lon == nil {
				continue
			}

			captured := time.Now().UTC()
			if ts, err := time.Parse(time.RFC3339, report.Time); err == nil {
				captured = ts.UTC()
			}

			sample := geo.PositionSample{
				Latitude:   *report.Lat,
				Longitude:  *report.Lon,
				CapturedAt: captured,
			}
			if sample.Validate() != nil {
				continue
			}

			select {
			case out <- sample:
			case <-ctx.Done():
				return
			}
		}

		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			p.logger.Error(context.WithoutCancel(ctx), "gpsd_stream_failed", "gpsd stream ended unexpectedly", err, nil)
		}
	}()

	return out, nil
}
