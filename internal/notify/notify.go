// Package notify delivers activation links to account holders.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/Skotchmaster/mini_online_store/internal/events"
	"github.com/Skotchmaster/mini_online_store/internal/models"
	"github.com/Skotchmaster/mini_online_store/pkg/logging"
)

const ActivationEmail = "activation_email"

type Notifier interface {
	SendActivationLink(ctx context.Context, a *models.Account, link string) error
}

type NotifierFunc func(ctx context.Context, a *models.Account, link string) error

func (f NotifierFunc) SendActivationLink(ctx context.Context, a *models.Account, link string) error {
	return f(ctx, a, link)
}

// LogNotifier writes the link to the request logger. Meant for local development.
type LogNotifier struct{}

func (LogNotifier) SendActivationLink(ctx context.Context, a *models.Account, link string) error {
	logging.FromContext(ctx).Info("activation_link",
		"user_id", a.ID,
		"email", a.Email,
		"link", link,
	)
	return nil
}

// Message is what the mail worker consumes from the notification topic.
type Message struct {
	Type     string    `json:"type"`
	UserID   uint      `json:"user_id"`
	To       string    `json:"to"`
	Username string    `json:"username"`
	Link     string    `json:"link"`
	SentAt   time.Time `json:"sent_at"`
}

type KafkaNotifier struct {
	Publisher events.Publisher
	Topic     string
}

func (n *KafkaNotifier) SendActivationLink(ctx context.Context, a *models.Account, link string) error {
	msg := Message{
		Type:     ActivationEmail,
		UserID:   a.ID,
		To:       a.Email,
		Username: a.Username,
		Link:     link,
		SentAt:   time.Now().UTC(),
	}
	if err := n.Publisher.PublishEvent(ctx, n.Topic, a.Email, msg); err != nil {
		return fmt.Errorf("notify activation: %w", err)
	}
	return nil
}
