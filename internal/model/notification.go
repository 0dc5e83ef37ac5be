package model

import (
	"strings"
	"time"
)

// NotificationType is a presentation hint for the SPA; it has no
// behavioral effect server-side.
type NotificationType string

const (
	NotificationTypeSuccess NotificationType = "success"
	NotificationTypeError   NotificationType = "error"
	NotificationTypeInfo    NotificationType = "info"
	NotificationTypeWarning NotificationType = "warning"
)

// Valid reports whether t is one of the four known types.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationTypeSuccess, NotificationTypeError, NotificationTypeInfo, NotificationTypeWarning:
		return true
	}
	return false
}

// Notification is an in-app notification owned by exactly one recipient.
// RelatedType/RelatedID are a weak reference used for click-through
// navigation ("ticket" + id), not an ownership relation.
type Notification struct {
	ID          int              `json:"id"`
	RecipientID int              `json:"recipient_id"`
	Message     string           `json:"message"`
	Type        NotificationType `json:"type"`
	RelatedType *string          `json:"related_type,omitempty"`
	RelatedID   *int             `json:"related_id,omitempty"`
	IsRead      bool             `json:"is_read"`
	CreatedAt   time.Time        `json:"created_at"`
}

// titleDelimiter separates an optional bold title from the body inside
// Message. Splitting happens at the first occurrence only.
const titleDelimiter = "|||"

// SplitMessage returns the title and body halves of a message. When the
// delimiter is absent the whole string is the body and the title is empty.
func SplitMessage(message string) (title, body string) {
	before, after, found := strings.Cut(message, titleDelimiter)
	if !found {
		return "", message
	}
	return before, after
}
