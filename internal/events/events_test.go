package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/mini_online_store/internal/models"
)

func TestNewUserEvent(t *testing.T) {
	t.Parallel()
	a := &models.Account{ID: 12, Username: "alice", Email: "a@example.com", Role: models.RoleUser}
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.FixedZone("X", 3600))

	ev := NewUserEvent(UserRegistered, a, at)
	assert.Equal(t, UserRegistered, ev.Type)
	assert.EqualValues(t, 12, ev.UserID)
	assert.Equal(t, "12", ev.Key())
	assert.Equal(t, time.UTC, ev.OccurredAt.Location())
}

func TestRecorderAndNop(t *testing.T) {
	t.Parallel()
	var r Recorder
	require.NoError(t, r.PublishEvent(context.Background(), "user_events", "1", "x"))
	require.Len(t, r.Events(), 1)
	assert.Equal(t, "user_events", r.Events()[0].Topic)

	assert.NoError(t, Nop{}.PublishEvent(context.Background(), "t", "k", nil))
}
