// Package testutil provides in-memory doubles for the notification
// store, the user directory and the delivery channel, so service and
// handler tests run without Postgres or Redis.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/grupobacar/helpdesk/internal/apperr"
	"github.com/grupobacar/helpdesk/internal/model"
)

// MemStore is an in-memory notification store with the same contract as
// the pgx repository.
type MemStore struct {
	mu     sync.Mutex
	nextID int
	rows   []model.Notification

	// FailNext forces the next operation to fail, for persistence-error
	// paths.
	FailNext error
}

func NewMemStore() *MemStore {
	return &MemStore{}
}

func (s *MemStore) takeErr() error {
	err := s.FailNext
	s.FailNext = nil
	return err
}

func (s *MemStore) Create(_ context.Context, n *model.Notification) (*model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr(); err != nil {
		return nil, err
	}

	s.nextID++
	row := *n
	row.ID = s.nextID
	row.IsRead = false
	// Strictly increasing timestamps keep ordering deterministic even
	// when two creates land in the same wall-clock instant.
	row.CreatedAt = time.Now().Add(time.Duration(s.nextID) * time.Microsecond)
	s.rows = append(s.rows, row)

	out := row
	return &out, nil
}

func (s *MemStore) ListByRecipient(_ context.Context, recipientID, limit int) ([]model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr(); err != nil {
		return nil, err
	}

	out := []model.Notification{}
	for _, row := range s.rows {
		if row.RecipientID == recipientID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemStore) CountUnread(_ context.Context, recipientID int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr(); err != nil {
		return 0, err
	}

	count := 0
	for _, row := range s.rows {
		if row.RecipientID == recipientID && !row.IsRead {
			count++
		}
	}
	return count, nil
}

func (s *MemStore) MarkRead(_ context.Context, id, recipientID int) (*model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr(); err != nil {
		return nil, err
	}

	for i := range s.rows {
		if s.rows[i].ID == id && s.rows[i].RecipientID == recipientID {
			s.rows[i].IsRead = true
			out := s.rows[i]
			return &out, nil
		}
	}
	return nil, apperr.NotFound("notification %d for recipient %d", id, recipientID)
}

func (s *MemStore) MarkAllRead(_ context.Context, recipientID int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr(); err != nil {
		return 0, err
	}

	count := 0
	for i := range s.rows {
		if s.rows[i].RecipientID == recipientID && !s.rows[i].IsRead {
			s.rows[i].IsRead = true
			count++
		}
	}
	return count, nil
}

// MemDirectory is an in-memory user directory.
type MemDirectory struct {
	Users []model.User
}

func (d *MemDirectory) ListIDsByRole(_ context.Context, role model.Role) ([]int, error) {
	var ids []int
	for _, u := range d.Users {
		if u.Role == role {
			ids = append(ids, u.ID)
		}
	}
	return ids, nil
}

func (d *MemDirectory) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range d.Users {
		if u.Email == email {
			out := u
			return &out, nil
		}
	}
	return nil, apperr.NotFound("user %s", email)
}

// Push records one delivery-channel publish.
type Push struct {
	Room    string
	Event   string
	Payload any
}

// StubChannel records pushes instead of delivering them. Setting Err
// makes every push fail, for delivery-error paths.
type StubChannel struct {
	mu     sync.Mutex
	pushes []Push
	Err    error
}

func (c *StubChannel) Push(room, event string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.pushes = append(c.pushes, Push{Room: room, Event: event, Payload: payload})
	return nil
}

func (c *StubChannel) Pushes() []Push {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Push, len(c.pushes))
	copy(out, c.pushes)
	return out
}
