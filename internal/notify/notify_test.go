package notify

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/mini_online_store/internal/events"
	"github.com/Skotchmaster/mini_online_store/internal/models"
	"github.com/Skotchmaster/mini_online_store/pkg/logging"
)

var bob = &models.Account{ID: 3, Username: "bob", Email: "bob@example.com"}

func TestKafkaNotifier(t *testing.T) {
	t.Parallel()
	rec := &events.Recorder{}
	n := &KafkaNotifier{Publisher: rec, Topic: "notification_events"}

	require.NoError(t, n.SendActivationLink(context.Background(), bob, "http://x/verify"))

	got := rec.Events()
	require.Len(t, got, 1)
	assert.Equal(t, "notification_events", got[0].Topic)
	assert.Equal(t, "bob@example.com", got[0].Key)

	msg, ok := got[0].Event.(Message)
	require.True(t, ok)
	assert.Equal(t, ActivationEmail, msg.Type)
	assert.Equal(t, "http://x/verify", msg.Link)
	assert.Equal(t, "bob@example.com", msg.To)
}

type failingPublisher struct{}

func (failingPublisher) PublishEvent(context.Context, string, string, any) error {
	return errors.New("down")
}

func TestKafkaNotifier_Error(t *testing.T) {
	t.Parallel()
	n := &KafkaNotifier{Publisher: failingPublisher{}, Topic: "t"}
	assert.ErrorContains(t, n.SendActivationLink(context.Background(), bob, "l"), "down")
}

func TestLogNotifier(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	ctx := logging.IntoContext(context.Background(), logging.NewWithWriter(&buf, "info"))

	require.NoError(t, LogNotifier{}.SendActivationLink(ctx, bob, "http://x/verify"))
	assert.Contains(t, buf.String(), `"link":"http://x/verify"`)
	assert.Contains(t, buf.String(), "activation_link")
}

func TestNotifierFunc(t *testing.T) {
	t.Parallel()
	var got string
	n := NotifierFunc(func(_ context.Context, _ *models.Account, link string) error {
		got = link
		return nil
	})
	require.NoError(t, n.SendActivationLink(context.Background(), bob, "l1"))
	assert.Equal(t, "l1", got)
}
