// Command publish emits a sample domain event onto the events exchange,
// for exercising the consumers against a local broker.
//
//	go run ./cmd/publish -event ticket.updated -recipient 42 -id 7
//	go run ./cmd/publish -event payment.received -recipient 42 -id 15
package main

import (
	"flag"
	"time"

	"go.uber.org/zap"

	"github.com/grupobacar/helpdesk/internal/config"
	"github.com/grupobacar/helpdesk/internal/mq"
)

func main() {
	event := flag.String("event", mq.RoutingKeyTicketUpdated, "routing key to publish")
	recipient := flag.Int("recipient", 42, "recipient user id")
	entityID := flag.Int("id", 1, "ticket or payment id")
	flag.Parse()

	cfg := config.Load()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	producer, err := mq.NewProducer(cfg.MQ.URL)
	if err != nil {
		logger.Fatal("Failed to connect producer", zap.Error(err))
	}
	defer producer.Close()

	var payload any
	switch *event {
	case mq.RoutingKeyTicketUpdated:
		payload = mq.TicketUpdatedPayload{
			TicketID:    *entityID,
			RecipientID: *recipient,
			Title:       "Impresora no funciona",
			Status:      "en progreso",
			UpdatedAt:   time.Now(),
		}
	case mq.RoutingKeyPaymentReceived:
		payload = mq.PaymentReceivedPayload{
			PaymentID:   *entityID,
			RecipientID: *recipient,
			Plan:        "Premium",
			Amount:      99.90,
			ReceivedAt:  time.Now(),
		}
	default:
		logger.Fatal("Unknown event", zap.String("event", *event))
	}

	if err := producer.Publish(*event, payload); err != nil {
		logger.Fatal("Failed to publish", zap.String("event", *event), zap.Error(err))
	}

	logger.Info("Event published",
		zap.String("event", *event),
		zap.Int("recipient_id", *recipient),
		zap.Int("id", *entityID),
	)
}
