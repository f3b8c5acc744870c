package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrSubscriberNotFound = errors.New("subscriber not found")

type Subscriber struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	SubscribedAt time.Time `json:"subscribed_at"`
}

// SubscriptionRequest is the decoded form body of POST /subscriptions.
// Only presence of both fields is checked, not the email format.
type SubscriptionRequest struct {
	Name  string `form:"name" binding:"required"`
	Email string `form:"email" binding:"required"`
}

func NewSubscriber(email, name string) *Subscriber {
	return &Subscriber{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		SubscribedAt: time.Now().UTC(),
	}
}

// SubscriptionCreatedEvent is published after a subscriber has been stored.
type SubscriptionCreatedEvent struct {
	SubscriberID string `json:"subscriber_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	SubscribedAt string `json:"subscribed_at"`
}

func NewSubscriptionCreatedEvent(s *Subscriber) SubscriptionCreatedEvent {
	return SubscriptionCreatedEvent{
		SubscriberID: s.ID.String(),
		Name:         s.Name,
		Email:        s.Email,
		SubscribedAt: s.SubscribedAt.Format(time.RFC3339),
	}
}
