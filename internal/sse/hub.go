// Package sse implements the realtime delivery channel: a room-keyed
// fan-out hub, an optional Redis Pub/Sub bridge for multi-instance
// deployments, and the HTTP endpoint streaming server-sent events.
package sse

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/grupobacar/helpdesk/internal/metrics"
	"github.com/grupobacar/helpdesk/internal/model"
)

// Event is one frame pushed to connected sessions. Data carries the
// JSON-serialized payload.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// RecipientRoom addresses every session of one user.
func RecipientRoom(recipientID int) string {
	return fmt.Sprintf("recipient:%d", recipientID)
}

// RoleRoom addresses every session holding a role.
func RoleRoom(role model.Role) string {
	return fmt.Sprintf("role:%s", role)
}

// Hub keeps in-memory subscribers grouped by room. It is process-local;
// the redis bridge replays publishes into the hubs of other instances.
// The mutex covers both the room sets and the lifetime of each session
// channel: closing a channel only happens under the lock, so a publish
// can never send on a channel a concurrent unsubscribe is closing.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[chan Event]struct{})}
}

// Subscribe registers a session in the given rooms and returns its event
// channel plus an unsubscribe function to call on disconnect. An empty
// room list yields a connected session that receives nothing, which is
// how unauthenticated sockets are handled.
func (h *Hub) Subscribe(rooms []string) (<-chan Event, func()) {
	ch := make(chan Event, 16)
	names := append([]string(nil), rooms...)

	h.mu.Lock()
	for _, room := range names {
		set, ok := h.rooms[room]
		if !ok {
			set = make(map[chan Event]struct{})
			h.rooms[room] = set
		}
		set[ch] = struct{}{}
	}
	h.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			h.mu.Lock()
			for _, room := range names {
				if set, ok := h.rooms[room]; ok {
					delete(set, ch)
					if len(set) == 0 {
						delete(h.rooms, room)
					}
				}
			}
			close(ch)
			h.mu.Unlock()
		})
	}

	return ch, unsubscribe
}

// Publish sends an event to every session in the room. Publishing to an
// empty room is a silent no-op. Slow consumers are skipped so producer
// code never blocks on a stalled connection.
func (h *Hub) Publish(room string, ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.rooms[room] {
		select {
		case ch <- ev:
		default:
			metrics.ChannelEventsDropped.Inc()
		}
	}
}
