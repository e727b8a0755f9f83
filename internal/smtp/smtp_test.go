package smtp

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JMURv/fieldlog/internal/config"
	md "github.com/JMURv/fieldlog/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

func TestNew_NotConfigured(t *testing.T) {
	assert.Nil(t, New(config.Config{}))
}

func TestEmailServer_SendReminder(t *testing.T) {
	var sent []*gomail.Message
	s := &EmailServer{
		user: "noreply@fieldlog.app",
		send: func(m ...*gomail.Message) error {
			sent = append(sent, m...)
			return nil
		},
	}

	rc := md.ReminderCandidate{Title: "Fence check", DueDate: time.Date(2024, 6, 16, 10, 0, 0, 0, time.UTC)}
	require.NoError(t, s.SendReminder(context.Background(), "owner@example.com", rc))
	require.Len(t, sent, 1)

	assert.Equal(t, []string{"owner@example.com"}, sent[0].GetHeader("To"))
	assert.Equal(t, []string{"Reminder: Fence check is due tomorrow"}, sent[0].GetHeader("Subject"))

	buf := &bytes.Buffer{}
	_, err := sent[0].WriteTo(buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Sun, 16 Jun 2024 10:00")
}

func TestEmailServer_SendReminder_Error(t *testing.T) {
	s := &EmailServer{send: func(...*gomail.Message) error { return errors.New("dial failed") }}
	assert.Error(t, s.SendReminder(context.Background(), "owner@example.com", md.ReminderCandidate{}))
}
