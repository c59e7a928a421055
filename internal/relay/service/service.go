package service

import (
	"horizon-field/internal/general/logger"
	"horizon-field/internal/ports"
)

// Publisher is the broadcast sink, satisfied by rabbitmq.MQPublisher.
type Publisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// relayService holds all dependencies required by the telemetry relay.
type relayService struct {
	logger  *logger.Logger
	archive ports.TelemetryArchive
	pub     Publisher
}

// NewRelayService constructs the relay service with required dependencies.
func NewRelayService(log *logger.Logger, archive ports.TelemetryArchive, pub Publisher) ports.RelayService {
	return &relayService{
		logger:  log,
		archive: archive,
		pub:     pub,
	}
}

// Ensure relayService implements the ports.RelayService interface.
var _ ports.RelayService = (*relayService)(nil)
