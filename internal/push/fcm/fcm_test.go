package fcm

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/JMURv/fieldlog/internal/config"
	"github.com/JMURv/fieldlog/internal/push"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	got *messaging.MulticastMessage
	br  *messaging.BatchResponse
	err error
}

func (f *fakeSender) SendEachForMulticast(
	_ context.Context,
	msg *messaging.MulticastMessage,
) (*messaging.BatchResponse, error) {
	f.got = msg
	return f.br, f.err
}

func TestNew_NotConfigured(t *testing.T) {
	c, err := New(context.Background(), config.Config{})
	assert.NoError(t, err)
	assert.Nil(t, c)
}

func TestClient_SendMulticast(t *testing.T) {
	ctx := context.Background()
	msg := &push.Message{
		Tokens: []string{"a", "b"},
		Title:  "Reminder",
		Body:   "Due tomorrow",
		Data:   map[string]string{"type": "reminder"},
	}

	t.Run("MapsResponses", func(t *testing.T) {
		sender := &fakeSender{
			br: &messaging.BatchResponse{
				SuccessCount: 1,
				FailureCount: 1,
				Responses: []*messaging.SendResponse{
					{Success: true, MessageID: "m1"},
					{Success: false, Error: errors.New("quota")},
				},
			},
		}
		c := &Client{cli: sender}

		res, err := c.SendMulticast(ctx, msg)
		require.NoError(t, err)
		require.Len(t, res, 2)

		assert.True(t, res[0].Success())
		assert.Equal(t, "a", res[0].Token)
		assert.Equal(t, "m1", res[0].MessageID)

		assert.False(t, res[1].Success())
		assert.Equal(t, "b", res[1].Token)
		assert.False(t, res[1].Unregistered)

		assert.Equal(t, msg.Tokens, sender.got.Tokens)
		assert.Equal(t, "Reminder", sender.got.Notification.Title)
		assert.Equal(t, "reminder", sender.got.Data["type"])
	})

	t.Run("GatewayError", func(t *testing.T) {
		c := &Client{cli: &fakeSender{err: errors.New("unreachable")}}
		res, err := c.SendMulticast(ctx, msg)
		assert.Error(t, err)
		assert.Nil(t, res)
	})

	t.Run("ResponseMismatch", func(t *testing.T) {
		c := &Client{cli: &fakeSender{br: &messaging.BatchResponse{}}}
		_, err := c.SendMulticast(ctx, msg)
		assert.ErrorIs(t, err, ErrResponseMismatch)
	})
}
