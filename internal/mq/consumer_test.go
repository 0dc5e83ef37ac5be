package mq

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type fakeAcker struct {
	mu       sync.Mutex
	acks     int
	nacks    int
	requeued bool
}

func (a *fakeAcker) Ack(_ uint64, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acks++
	return nil
}

func (a *fakeAcker) Nack(_ uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacks++
	a.requeued = requeue
	return nil
}

func (a *fakeAcker) Reject(_ uint64, _ bool) error { return nil }

func TestConsumeLoopAcksOnSuccessNacksOnFailure(t *testing.T) {
	acker := &fakeAcker{}
	msgs := make(chan amqp091.Delivery, 2)
	msgs <- amqp091.Delivery{Acknowledger: acker, Body: []byte(`{"ticket_id":7}`)}
	msgs <- amqp091.Delivery{Acknowledger: acker, Body: []byte(`fail`)}
	close(msgs)

	c := &Consumer{routingKey: RoutingKeyTicketUpdated, logger: zap.NewNop()}
	c.SetHandler(func(_ context.Context, data json.RawMessage) error {
		if string(data) == "fail" {
			return errors.New("handler failure")
		}
		return nil
	})

	c.consumeLoop(context.Background(), msgs)

	if acker.acks != 1 {
		t.Errorf("acks = %d, want 1", acker.acks)
	}
	if acker.nacks != 1 {
		t.Errorf("nacks = %d, want 1", acker.nacks)
	}
	if !acker.requeued {
		t.Error("failed message was not requeued")
	}
}

func TestConsumeLoopPassesCallerContext(t *testing.T) {
	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "shutdown-aware")

	msgs := make(chan amqp091.Delivery, 1)
	msgs <- amqp091.Delivery{Acknowledger: &fakeAcker{}, Body: []byte(`{}`)}
	close(msgs)

	var got any
	c := &Consumer{routingKey: RoutingKeyPaymentReceived, logger: zap.NewNop()}
	c.SetHandler(func(handlerCtx context.Context, _ json.RawMessage) error {
		got = handlerCtx.Value(ctxKey{})
		return nil
	})

	c.consumeLoop(ctx, msgs)

	if got != "shutdown-aware" {
		t.Errorf("handler context value = %v, want the caller's", got)
	}
}

func TestConsumeLoopStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := &Consumer{routingKey: RoutingKeyTicketUpdated, logger: zap.NewNop()}
	c.SetHandler(func(context.Context, json.RawMessage) error { return nil })

	done := make(chan struct{})
	go func() {
		c.consumeLoop(ctx, make(chan amqp091.Delivery))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consume loop did not stop on context cancel")
	}
}
