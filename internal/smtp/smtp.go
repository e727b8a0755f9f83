package smtp

import (
	"context"
	"fmt"

	"github.com/JMURv/fieldlog/internal/config"
	md "github.com/JMURv/fieldlog/internal/models"
	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

const dueLayout = "Mon, 02 Jan 2006 15:04"

type EmailServer struct {
	user string
	send func(m ...*gomail.Message) error
}

// New returns nil when no SMTP server is configured.
func New(conf config.Config) *EmailServer {
	if conf.Email.Server == "" {
		return nil
	}

	d := gomail.NewDialer(conf.Email.Server, conf.Email.Port, conf.Email.User, conf.Email.Pass)
	return &EmailServer{
		user: conf.Email.User,
		send: d.DialAndSend,
	}
}

func (s *EmailServer) GetMessageBase(subject, toEmail string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.user)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", subject)
	return m
}

func (s *EmailServer) Send(m *gomail.Message) error {
	if err := s.send(m); err != nil {
		zap.L().Error("Failed to send an email", zap.Error(err))
		return err
	}
	return nil
}

// SendReminder mails the owner of a record that is due tomorrow.
func (s *EmailServer) SendReminder(ctx context.Context, to string, rc md.ReminderCandidate) error {
	const op = "smtp.SendReminder"
	span, _ := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	due := rc.DueDate.Format(dueLayout)
	m := s.GetMessageBase(fmt.Sprintf("Reminder: %s is due tomorrow", rc.Title), to)
	m.SetBody("text/plain", fmt.Sprintf("%q is due on %s.", rc.Title, due))
	m.AddAlternative("text/html", fmt.Sprintf("<p><b>%s</b> is due on %s.</p>", rc.Title, due))

	if err := s.Send(m); err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		return err
	}
	return nil
}
