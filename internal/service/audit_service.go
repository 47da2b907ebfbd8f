package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/donor-registry/internal/events"
)

// AuditService writes a log line for every registry event.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventDonorRegistered, a.handleDonorRegistered)
	a.dispatcher.Subscribe(events.EventLegacyImported, a.handleLegacyImported)
}

func (a *AuditService) handleDonorRegistered(_ context.Context, event events.Event) error {
	a.logger.Info("DonorRegistered",
		zap.String("event_id", event.ID),
		zap.String("email", event.Subject),
		zap.Any("payload", event.Payload))
	return nil
}

func (a *AuditService) handleLegacyImported(_ context.Context, event events.Event) error {
	a.logger.Info("LegacyImported",
		zap.String("event_id", event.ID),
		zap.Any("payload", event.Payload))
	return nil
}
