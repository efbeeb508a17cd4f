package events

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/Skotchmaster/mini_online_store/internal/models"
)

const (
	UserRegistered    = "user_registered"
	UserEmailVerified = "user_email_verified"
	UserLoggedIn      = "user_logged_in"
	UserLoggedOut     = "user_logged_out"
)

// Publisher is satisfied by *mykafka.Producer.
type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

type UserEvent struct {
	Type       string      `json:"type"`
	UserID     uint        `json:"user_id"`
	Username   string      `json:"username"`
	Email      string      `json:"email,omitempty"`
	Role       models.Role `json:"role"`
	OccurredAt time.Time   `json:"occurred_at"`
}

func NewUserEvent(typ string, a *models.Account, at time.Time) UserEvent {
	return UserEvent{
		Type:       typ,
		UserID:     a.ID,
		Username:   a.Username,
		Email:      a.Email,
		Role:       a.Role,
		OccurredAt: at.UTC(),
	}
}

// Key partitions events by account.
func (e UserEvent) Key() string {
	return strconv.FormatUint(uint64(e.UserID), 10)
}

type Nop struct{}

func (Nop) PublishEvent(context.Context, string, string, any) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Recorded
}

type Recorded struct {
	Topic string
	Key   string
	Event any
}

func (r *Recorder) PublishEvent(_ context.Context, topic, key string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Recorded{Topic: topic, Key: key, Event: event})
	return nil
}

func (r *Recorder) Events() []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Recorded(nil), r.events...)
}
