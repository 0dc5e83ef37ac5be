// Package mqhandler turns consumed domain events into notifications
// through the notification service, so the store-then-push ordering is
// preserved no matter where an event originates.
package mqhandler

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/grupobacar/helpdesk/internal/model"
	"github.com/grupobacar/helpdesk/internal/mq"
	"github.com/grupobacar/helpdesk/internal/service/notification"
)

type TicketUpdatedHandler struct {
	notifier *notification.Service
	deduper  *Deduper
	logger   *zap.Logger
}

func NewTicketUpdatedHandler(notifier *notification.Service, deduper *Deduper, logger *zap.Logger) *TicketUpdatedHandler {
	return &TicketUpdatedHandler{
		notifier: notifier,
		deduper:  deduper,
		logger:   logger,
	}
}

func (h *TicketUpdatedHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var p mq.TicketUpdatedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal ticket updated payload", zap.Error(err))
		return err
	}

	if !h.deduper.AcquireOnce(ctx, mq.RoutingKeyTicketUpdated, p.TicketID, p.Status) {
		h.logger.Info("Duplicate ticket event skipped",
			zap.Int("ticket_id", p.TicketID),
			zap.String("status", p.Status),
		)
		return nil
	}

	message := fmt.Sprintf("Ticket #%d actualizado|||%s cambió a %s", p.TicketID, p.Title, p.Status)

	_, err := h.notifier.Notify(ctx, p.RecipientID, message, model.NotificationTypeInfo, &notification.Related{
		Type: "ticket",
		ID:   p.TicketID,
	})
	if err != nil {
		h.logger.Error("Failed to create ticket notification",
			zap.Int("ticket_id", p.TicketID),
			zap.Int("recipient_id", p.RecipientID),
			zap.Error(err),
		)
		return err
	}

	return nil
}
