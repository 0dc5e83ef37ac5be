package mq

import "time"

// Routing keys for the domain events this service consumes.
const (
	RoutingKeyTicketUpdated   = "ticket.updated"
	RoutingKeyPaymentReceived = "payment.received"
)

// TicketUpdatedPayload announces a ticket status change.
type TicketUpdatedPayload struct {
	TicketID    int       `json:"ticket_id"`
	RecipientID int       `json:"recipient_id"`
	Title       string    `json:"title"`
	Status      string    `json:"status"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PaymentReceivedPayload announces a confirmed plan payment.
type PaymentReceivedPayload struct {
	PaymentID   int       `json:"payment_id"`
	RecipientID int       `json:"recipient_id"`
	Plan        string    `json:"plan"`
	Amount      float64   `json:"amount"`
	ReceivedAt  time.Time `json:"received_at"`
}
