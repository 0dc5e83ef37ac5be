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

type PaymentReceivedHandler struct {
	notifier *notification.Service
	deduper  *Deduper
	logger   *zap.Logger
}

func NewPaymentReceivedHandler(notifier *notification.Service, deduper *Deduper, logger *zap.Logger) *PaymentReceivedHandler {
	return &PaymentReceivedHandler{
		notifier: notifier,
		deduper:  deduper,
		logger:   logger,
	}
}

func (h *PaymentReceivedHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var p mq.PaymentReceivedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal payment received payload", zap.Error(err))
		return err
	}

	if !h.deduper.AcquireOnce(ctx, mq.RoutingKeyPaymentReceived, p.PaymentID, "received") {
		h.logger.Info("Duplicate payment event skipped", zap.Int("payment_id", p.PaymentID))
		return nil
	}

	message := fmt.Sprintf("Pago recibido|||Tu pago del plan %s por $%.2f fue confirmado", p.Plan, p.Amount)

	_, err := h.notifier.Notify(ctx, p.RecipientID, message, model.NotificationTypeSuccess, &notification.Related{
		Type: "payment",
		ID:   p.PaymentID,
	})
	if err != nil {
		h.logger.Error("Failed to create payment notification",
			zap.Int("payment_id", p.PaymentID),
			zap.Int("recipient_id", p.RecipientID),
			zap.Error(err),
		)
		return err
	}

	return nil
}
