// Package notification orchestrates notification creation, realtime
// push and read-state mutation. It is the only component allowed to
// mutate notification rows; handlers and MQ consumers go through it.
package notification

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/grupobacar/helpdesk/internal/apperr"
	"github.com/grupobacar/helpdesk/internal/metrics"
	"github.com/grupobacar/helpdesk/internal/model"
	"github.com/grupobacar/helpdesk/internal/sse"
)

// EventNotification is the channel event name carrying a serialized
// notification to connected clients.
const EventNotification = "notification"

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

// Store is the durable notification record.
type Store interface {
	Create(ctx context.Context, n *model.Notification) (*model.Notification, error)
	ListByRecipient(ctx context.Context, recipientID, limit int) ([]model.Notification, error)
	CountUnread(ctx context.Context, recipientID int) (int, error)
	MarkRead(ctx context.Context, id, recipientID int) (*model.Notification, error)
	MarkAllRead(ctx context.Context, recipientID int) (int, error)
}

// Directory resolves role membership for write-time fan-out.
type Directory interface {
	ListIDsByRole(ctx context.Context, role model.Role) ([]int, error)
}

// Channel is the realtime delivery handle. Push is best effort: failures
// are logged by the service and never escalated.
type Channel interface {
	Push(room, event string, payload any) error
}

type Service struct {
	store     Store
	directory Directory
	channel   Channel
	logger    *zap.Logger
}

func NewService(store Store, directory Directory, channel Channel, logger *zap.Logger) *Service {
	return &Service{
		store:     store,
		directory: directory,
		channel:   channel,
		logger:    logger,
	}
}

// Related is an optional weak reference to another entity, used by the
// SPA for click-through navigation.
type Related struct {
	Type string
	ID   int
}

func validateContent(message string, ntype model.NotificationType) (model.NotificationType, error) {
	if message == "" {
		return "", apperr.Validation("message is required")
	}
	if ntype == "" {
		ntype = model.NotificationTypeInfo
	}
	if !ntype.Valid() {
		return "", apperr.Validation("unknown notification type %q", ntype)
	}
	return ntype, nil
}

// Notify persists a notification and pushes it to the recipient's room.
// The store write happens before the push, so a client reconciling via
// pull after the push always observes the row. A push failure never
// rolls back the write.
func (s *Service) Notify(ctx context.Context, recipientID int, message string, ntype model.NotificationType, related *Related) (*model.Notification, error) {
	if recipientID <= 0 {
		return nil, apperr.Validation("recipient_id is required")
	}
	ntype, err := validateContent(message, ntype)
	if err != nil {
		return nil, err
	}

	n := &model.Notification{
		RecipientID: recipientID,
		Message:     message,
		Type:        ntype,
	}
	if related != nil {
		n.RelatedType = &related.Type
		relatedID := related.ID
		n.RelatedID = &relatedID
	}

	created, err := s.store.Create(ctx, n)
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	metrics.IncrementNotificationsCreated(string(created.Type))

	s.push(sse.RecipientRoom(recipientID), created)
	return created, nil
}

// NotifyRole persists one notification per member of the role and pushes
// a single event to the role room. Members connected at push time get
// instant delivery; the rest discover their row on the next pull.
func (s *Service) NotifyRole(ctx context.Context, role model.Role, message string, ntype model.NotificationType, related *Related) ([]model.Notification, error) {
	if !role.Valid() {
		return nil, apperr.Validation("unknown role %q", role)
	}
	ntype, err := validateContent(message, ntype)
	if err != nil {
		return nil, err
	}

	memberIDs, err := s.directory.ListIDsByRole(ctx, role)
	if err != nil {
		return nil, apperr.Persistence(err)
	}

	created := make([]model.Notification, 0, len(memberIDs))
	for _, memberID := range memberIDs {
		n := &model.Notification{
			RecipientID: memberID,
			Message:     message,
			Type:        ntype,
		}
		if related != nil {
			n.RelatedType = &related.Type
			relatedID := related.ID
			n.RelatedID = &relatedID
		}
		row, err := s.store.Create(ctx, n)
		if err != nil {
			// Rows already written stay written; storage is the source
			// of truth and partial fan-out heals via pull.
			return created, apperr.Persistence(err)
		}
		metrics.IncrementNotificationsCreated(string(row.Type))
		created = append(created, *row)
	}

	if len(created) > 0 {
		s.push(sse.RoleRoom(role), &created[0])
	}
	return created, nil
}

// List returns the recipient's notifications, newest first.
func (s *Service) List(ctx context.Context, recipientID, limit int) ([]model.Notification, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	notifications, err := s.store.ListByRecipient(ctx, recipientID, limit)
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	return notifications, nil
}

// CountUnread returns the recipient's unread count.
func (s *Service) CountUnread(ctx context.Context, recipientID int) (int, error) {
	count, err := s.store.CountUnread(ctx, recipientID)
	if err != nil {
		return 0, apperr.Persistence(err)
	}
	return count, nil
}

// MarkRead flags one notification as read. No push: the mutation is
// recipient-initiated, other sessions of the same user converge on
// their next pull.
func (s *Service) MarkRead(ctx context.Context, id, recipientID int) (*model.Notification, error) {
	n, err := s.store.MarkRead(ctx, id, recipientID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		return nil, apperr.Persistence(err)
	}
	return n, nil
}

// MarkAllRead flags every unread notification of the recipient.
func (s *Service) MarkAllRead(ctx context.Context, recipientID int) (int, error) {
	count, err := s.store.MarkAllRead(ctx, recipientID)
	if err != nil {
		return 0, apperr.Persistence(err)
	}
	return count, nil
}

func (s *Service) push(room string, n *model.Notification) {
	if err := s.channel.Push(room, EventNotification, n); err != nil {
		// DeliveryError: log and move on, the row is durable and clients
		// reconcile via pull.
		s.logger.Warn("Failed to push notification",
			zap.String("room", room),
			zap.Int("notification_id", n.ID),
			zap.Error(err),
		)
	}
}
